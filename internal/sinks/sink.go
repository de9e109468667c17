// Package sinks delivers a validated registration to one or more destinations
// and joins the results under a success policy.
package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spiritrise/yogacamp/internal/models"
)

// Sink is one delivery destination.
type Sink interface {
	Name() string
	Submit(ctx context.Context, reg models.Registration) Outcome
}

// Outcome is the result of delivering to a single sink.
type Outcome struct {
	Sink              string
	OK                bool
	AlreadyRegistered bool
	Message           string
	Err               error
}

// DeliveryError describes why a sink did not accept a registration.
type DeliveryError struct {
	Sink   string
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("deliver to %s: status %d: %v", e.Sink, e.Status, e.Err)
	}
	return fmt.Sprintf("deliver to %s: %v", e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func failed(sink string, status int, err error) Outcome {
	return Outcome{Sink: sink, Err: &DeliveryError{Sink: sink, Status: status, Err: err}}
}

// defaultHTTPClient has no timeout of its own; the broadcaster bounds each call with a context.
func defaultHTTPClient() *http.Client {
	return &http.Client{Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}}
}

// errorBody is the error shape returned by the registration endpoint.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// readError extracts a short reason from a failed response.
func readError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return fmt.Errorf("%s", body.Error)
		}
		if body.Message != "" {
			return fmt.Errorf("%s", body.Message)
		}
	}
	return fmt.Errorf("unexpected response %s", resp.Status)
}

func toInput(reg models.Registration) models.Input {
	return models.Input{Name: reg.Name, Email: reg.Email, Phone: reg.Phone}
}
