package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPSender posts emails as JSON to a generic email service endpoint.
// Only 200 OK counts as accepted.
type HTTPSender struct {
	url    string
	client *http.Client
}

func NewHTTPSender(url string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSender{url: strings.TrimSpace(url), client: &http.Client{Timeout: timeout}}
}

type httpPayload struct {
	To          string `json:"to"`
	Subject     string `json:"subject"`
	HTMLContent string `json:"html_content"`
	TextContent string `json:"text_content"`
}

func (s *HTTPSender) Send(ctx context.Context, e Email) error {
	if s.url == "" {
		return ErrNotConfigured
	}

	data, err := json.Marshal(httpPayload{To: e.To, Subject: e.Subject, HTMLContent: e.HTML, TextContent: e.Text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("email service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}
	return nil
}
