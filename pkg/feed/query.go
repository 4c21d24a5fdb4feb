package feed

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildQuery makes a search expression from keywords joined with OR and
// restricted to the last windowDays days. Multi-word keywords are quoted
// unless already quoted.
func BuildQuery(keywords []string, windowDays int) string {
	terms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.ContainsAny(kw, " \t") && !strings.HasPrefix(kw, `"`) {
			kw = `"` + kw + `"`
		}
		terms = append(terms, kw)
	}

	query := strings.Join(terms, " OR ")
	if windowDays > 0 {
		query += fmt.Sprintf(" when:%dd", windowDays)
	}
	return query
}

// SearchURL makes the feed URL for the query. Language is a locale like "en-US",
// region a country code like "US"; edition defaults to "<region>:<lang>".
func SearchURL(baseURL, query, language, region, edition string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base url %q", baseURL)
	}

	q := u.Query()
	q.Set("q", query)
	if language != "" {
		q.Set("hl", language)
	}
	if region != "" {
		q.Set("gl", region)
	}
	if edition == "" && region != "" && language != "" {
		lang, _, _ := strings.Cut(language, "-")
		edition = region + ":" + lang
	}
	if edition != "" {
		q.Set("ceid", edition)
	}
	u.RawQuery = strings.ReplaceAll(q.Encode(), "+", "%20")
	return u.String(), nil
}
