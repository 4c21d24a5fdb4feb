// Package classify assigns categories to news titles using ordered keyword rules.
// Rules are evaluated in the given order and the first rule with a matching
// keyword wins, so more specific categories must come first.
package classify

import (
	"strings"

	"github.com/umputun/newswatch/pkg/domain"
)

// Rule maps a set of case-insensitive keywords to a category
type Rule struct {
	Category domain.Category
	Keywords []string
}

// Classifier is a first-match-wins keyword rule engine
type Classifier struct {
	rules    []Rule
	fallback domain.Category
}

// New makes a classifier from ordered rules. Keywords are lowercased and empty
// ones dropped. Titles matching no rule get domain.CategoryGeneral.
func New(rules []Rule) *Classifier {
	res := &Classifier{fallback: domain.CategoryGeneral, rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		res.rules = append(res.rules, Rule{Category: r.Category, Keywords: kws})
	}
	return res
}

// Classify returns the category of the first rule with a keyword contained in title
func (c *Classifier) Classify(title string) domain.Category {
	lower := strings.ToLower(title)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Category
			}
		}
	}
	return c.fallback
}

// DefaultRules returns built-in rules for biotech company news,
// clinical/regulatory before commercial.
func DefaultRules() []Rule {
	return []Rule{
		{Category: domain.CategoryClinical, Keywords: []string{
			"clinical", "trial", "phase 1", "phase 2", "phase 3", "phase i", "phase ii", "phase iii",
			"fda", "nmpa", "approval", "approved", "approves", "biologics license application",
			"biosimilar", "topline", "endpoint", "patients", "data readout",
			"临床", "获批", "批准", "上市申请", "注册", "试验", "受理",
		}},
		{Category: domain.CategoryCommercial, Keywords: []string{
			"agreement", "license", "licensing", "partnership", "partner", "collaboration",
			"commercialization", "commercial", "revenue", "sales", "acquisition", "deal",
			"launch", "distribution", "earnings", "financial results", "royalty", "milestone payment",
			"合作", "授权", "许可", "营收", "业绩", "销售", "协议", "商业化", "年报", "财报",
		}},
	}
}
