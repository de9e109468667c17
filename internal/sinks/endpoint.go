package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spiritrise/yogacamp/internal/models"
)

// EndpointSink posts the registration to a yoga camp registration endpoint (POST /api/register).
type EndpointSink struct {
	name   string
	url    string
	client *http.Client
}

// NewEndpointSink creates a sink for url. A nil client uses a pooled default.
func NewEndpointSink(name, url string, client *http.Client) *EndpointSink {
	if name == "" {
		name = "endpoint"
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &EndpointSink{name: name, url: url, client: client}
}

func (s *EndpointSink) Name() string { return s.name }

// Submit treats any 2xx as accepted and reads already_registered from the body.
func (s *EndpointSink) Submit(ctx context.Context, reg models.Registration) Outcome {
	body, err := json.Marshal(toInput(reg))
	if err != nil {
		return failed(s.name, 0, fmt.Errorf("marshal: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return failed(s.name, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return failed(s.name, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failed(s.name, resp.StatusCode, readError(resp))
	}

	var result models.Result
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &result); err != nil {
		// Accepted but not JSON: still a delivery.
		return Outcome{Sink: s.name, OK: true}
	}
	return Outcome{Sink: s.name, OK: true, AlreadyRegistered: result.AlreadyRegistered, Message: result.Message}
}
