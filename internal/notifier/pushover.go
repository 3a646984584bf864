package notifier

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

const defaultPushoverURL = "https://api.pushover.net/1/messages.json"

// maxPushoverLen is the API limit on the message field, in characters.
const maxPushoverLen = 1024

// PushoverNotifier sends messages through the Pushover API.
type PushoverNotifier struct {
	AppToken string
	UserKey  string
	URL      string
	client   *resty.Client
}

func NewPushoverNotifier(appToken, userKey, proxyURL string) *PushoverNotifier {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &PushoverNotifier{AppToken: appToken, UserKey: userKey, URL: defaultPushoverURL, client: client}
}

func (p *PushoverNotifier) Name() string { return "pushover" }

func (p *PushoverNotifier) Send(ctx context.Context, msg Message) error {
	text := clipRunes(msg.Text, maxPushoverLen)
	var out struct {
		Status int      `json:"status"`
		Errors []string `json:"errors"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"token":   p.AppToken,
			"user":    p.UserKey,
			"title":   msg.Title,
			"message": text,
		}).
		SetResult(&out).
		SetError(&out).
		Post(p.URL)
	if err != nil {
		return fmt.Errorf("pushover send: %w", err)
	}
	if resp.IsError() || out.Status != 1 {
		return fmt.Errorf("pushover API error: status %d: %v", resp.StatusCode(), out.Errors)
	}
	return nil
}

// clipRunes shortens s to at most n characters, ending in "..." when cut.
func clipRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	keep := n - 3
	for i := range s {
		if keep == 0 {
			return s[:i] + "..."
		}
		keep--
	}
	return s
}
