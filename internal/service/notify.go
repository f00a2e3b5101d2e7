package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OriginNotifier pushes a text back to the widget on the website that
// originated a session. Delivery is best effort: callers log the error and
// move on, they never surface it.
type OriginNotifier interface {
	NotifyOrigin(ctx context.Context, domain, sessionID, text string) error
}

// WidgetNotifier posts a form-encoded callback to the widget endpoint on
// the website's own host.
type WidgetNotifier struct {
	path   string
	client *http.Client
}

func NewWidgetNotifier(path string, timeout time.Duration) *WidgetNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WidgetNotifier{
		path:   path,
		client: &http.Client{Timeout: timeout},
	}
}

func (n *WidgetNotifier) NotifyOrigin(ctx context.Context, domain, sessionID, text string) error {
	form := url.Values{
		"action":      {"ohsi_receive_agent_message"},
		"session_id":  {sessionID},
		"message":     {text},
		"sender_type": {"system"},
	}

	endpoint := fmt.Sprintf("https://%s%s", domain, n.path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("widget callback to %s returned %d", domain, resp.StatusCode)
	}
	return nil
}

// logNotify is the single place the discard happens, so every caller
// treats origin callbacks identically.
func logNotify(notifier OriginNotifier, ctx context.Context, domain, sessionID, text string) {
	if notifier == nil || domain == "" {
		return
	}
	if err := notifier.NotifyOrigin(ctx, domain, sessionID, text); err != nil {
		log.Printf("[Notify] origin callback for session %s failed: %v", sessionID, err)
	}
}
