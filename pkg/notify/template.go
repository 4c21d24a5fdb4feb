package notify

import (
	"strings"
	"time"

	"github.com/umputun/newswatch/pkg/domain"
)

// Message is a push notification ready for dispatch
type Message struct {
	Title string // header text
	Body  string
	URL   string
	Group string
	Level string
	Sound string
	Icon  string
}

// template is the presentation of one category
type template struct {
	suffix      string // appended to the header prefix
	groupSuffix string
	level       string
	sound       string
}

// templates is the fixed category to presentation mapping
var templates = map[domain.Category]template{
	domain.CategoryClinical:   {suffix: "Clinical/Regulatory", groupSuffix: "-clinical", level: "timeSensitive", sound: "alarm"},
	domain.CategoryCommercial: {suffix: "Commercial", groupSuffix: "-commercial", level: "active", sound: "bell"},
	domain.CategoryGeneral:    {suffix: "News", level: "passive"},
}

// Presenter renders news items into messages
type Presenter struct {
	Header     string // header prefix, usually the company display name
	Group      string // base group tag
	Icon       string
	DateFormat string
	Location   *time.Location
}

// Message makes a notification for the item using its category template.
// Unknown categories are presented as general news.
func (p Presenter) Message(item domain.NewsItem) Message {
	tmpl, ok := templates[item.Category]
	if !ok {
		tmpl = templates[domain.CategoryGeneral]
	}

	header := tmpl.suffix
	if p.Header != "" {
		header = p.Header + " · " + tmpl.suffix
	}

	group := ""
	if p.Group != "" {
		group = p.Group + tmpl.groupSuffix
	}

	body := item.Title
	if date := p.formatDate(item); date != "" {
		body += "\n" + date
	}

	return Message{
		Title: header,
		Body:  body,
		URL:   item.Link,
		Group: group,
		Level: tmpl.level,
		Sound: tmpl.sound,
		Icon:  p.Icon,
	}
}

// formatDate formats the publish date. Raw feed string is used when no format
// is set or when the date could not be parsed.
func (p Presenter) formatDate(item domain.NewsItem) string {
	raw := strings.TrimSpace(item.Published)
	if p.DateFormat == "" || (item.Estimated && raw != "") {
		return raw
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	return item.PublishedAt.In(loc).Format(p.DateFormat)
}
