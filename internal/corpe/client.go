// Package corpe is the pass-through client for the Corpe business API.
// Every operation is a JSON POST against a configured endpoint path.
package corpe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/corpedigital/assistant-api/internal/logger"
)

// UpstreamError carries the upstream HTTP status and a best-effort
// extracted message so the tool layer can map it to user-facing text.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("corpe api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("corpe api: status %d", e.Status)
}

// AsUpstreamError unwraps err into an UpstreamError, if it is one.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient builds a client over the transport's default timeout; the
// API offers no SLA worth encoding here and retries are the caller's
// problem (deliberately: there are none).
func NewClient(baseURL string, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     log.With("service", "corpe"),
	}
}

// Send POSTs payload to endpointPath and returns the raw response body.
// Both the outgoing request and the response status are logged; that is
// the operational trace for every business call.
func (c *Client) Send(ctx context.Context, payload any, endpointPath string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/" + strings.TrimLeft(endpointPath, "/")
	c.log.Info("corpe request", "method", http.MethodPost, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("corpe request failed", "url", url, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("corpe response read failed", "url", url, "error", err)
		return nil, err
	}

	c.log.Info("corpe response", "status", resp.StatusCode, "url", url)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			Status:  resp.StatusCode,
			Message: extractMessage(raw),
		}
	}
	return raw, nil
}

// extractMessage pulls the upstream "message" field out of an error
// body, falling back to the trimmed body itself.
func extractMessage(raw []byte) string {
	var decoded struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Message != "" {
		return decoded.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return msg
}
