// Package notify dispatches push notifications for new items.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newswatch/pkg/domain"
)

// DefaultBarkEndpoint is the public Bark server
const DefaultBarkEndpoint = "https://api.day.app"

// ErrNoKey is returned when dispatch is attempted without a device key
var ErrNoKey = errors.New("bark key is not set")

// Bark sends notifications to the Bark push service
type Bark struct {
	endpoint  string
	key       string
	client    *http.Client
	presenter Presenter
}

// BarkParams defines Bark client settings
type BarkParams struct {
	Endpoint  string
	Key       string
	Timeout   time.Duration
	Presenter Presenter
}

// barkResponse is the JSON reply of Bark server
type barkResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewBark makes a Bark client
func NewBark(p BarkParams) *Bark {
	if p.Endpoint == "" {
		p.Endpoint = DefaultBarkEndpoint
	}
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	return &Bark{
		endpoint:  strings.TrimRight(p.Endpoint, "/"),
		key:       strings.TrimSpace(p.Key),
		client:    &http.Client{Timeout: p.Timeout},
		presenter: p.Presenter,
	}
}

// Enabled reports whether a device key is configured
func (b *Bark) Enabled() bool { return b.key != "" }

// Notify renders the item with its category template and sends it
func (b *Bark) Notify(ctx context.Context, item domain.NewsItem) error {
	return b.Send(ctx, b.presenter.Message(item))
}

// Send posts a single message to Bark
func (b *Bark) Send(ctx context.Context, msg Message) error {
	if !b.Enabled() {
		return ErrNoKey
	}

	form := url.Values{}
	setNotEmpty := func(k, v string) {
		if v != "" {
			form.Set(k, v)
		}
	}
	setNotEmpty("title", msg.Title)
	setNotEmpty("body", msg.Body)
	setNotEmpty("url", msg.URL)
	setNotEmpty("group", msg.Group)
	setNotEmpty("level", msg.Level)
	setNotEmpty("sound", msg.Sound)
	setNotEmpty("icon", msg.Icon)

	reqURL := b.endpoint + "/" + url.PathEscape(b.key) + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("send to bark: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bark responded with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var br barkResponse
	if err := json.Unmarshal(body, &br); err == nil && br.Code != 0 && br.Code != http.StatusOK {
		return fmt.Errorf("bark rejected message, code %d: %s", br.Code, br.Message)
	}

	lgr.Printf("[DEBUG] bark accepted %q", msg.Title)
	return nil
}
