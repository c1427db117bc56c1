package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultWebhookTimeout = 15 * time.Second
	defaultWebhookRetries = 2

	// messageLimit caps the text portion of an upload. Receivers reject
	// longer messages, so anything over the limit is cut and marked.
	messageLimit     = 1800
	truncationMarker = "\n...(truncated)"
)

// WebhookConfig configures a WebhookNotifier.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
	Retries int

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// WebhookNotifier posts artifacts to an HTTP webhook as multipart form data
// with a "content" text field and a "file" attachment.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	timeout time.Duration
	retries int
}

func NewWebhookNotifier(cfg WebhookConfig) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook notifier: url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWebhookTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = defaultWebhookRetries
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &WebhookNotifier{
		url:     cfg.URL,
		client:  client,
		timeout: cfg.Timeout,
		retries: cfg.Retries,
	}, nil
}

func (n *WebhookNotifier) SendFile(ctx context.Context, filename string, payload []byte, message string) error {
	body, contentType, err := buildMultipart(filename, payload, truncateMessage(message))
	if err != nil {
		return fmt.Errorf("encode webhook upload %s: %w", filename, err)
	}

	var lastErr error
	attempts := n.retries + 1
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = n.post(ctx, body, contentType)
		if lastErr == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
	}
	return fmt.Errorf("webhook upload %s: %w", filename, lastErr)
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte, contentType string) error {
	reqCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

func buildMultipart(filename string, payload []byte, message string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if message != "" {
		if err := w.WriteField("content", message); err != nil {
			return nil, "", err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", attachmentType(filename))
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func truncateMessage(message string) string {
	if len(message) <= messageLimit {
		return message
	}
	return message[:messageLimit] + truncationMarker
}

func attachmentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
