package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spiritrise/yogacamp/internal/models"
)

// submissionClaims is the signed envelope a webhook receiver can verify.
type submissionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// WebhookSink delivers to a third-party form webhook (spreadsheet / CRM style).
// Some receivers only accept one request shape, so a 404 on the JSON POST is
// retried as a GET with query parameters and then as a multipart form POST.
type WebhookSink struct {
	name   string
	url    string
	secret []byte
	client *http.Client
}

// NewWebhookSink creates a webhook sink. When secret is non-empty each request
// carries an HS256 bearer token over the submitted fields.
func NewWebhookSink(name, webhookURL, secret string, client *http.Client) *WebhookSink {
	if name == "" {
		name = "webhook"
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &WebhookSink{name: name, url: webhookURL, secret: []byte(secret), client: client}
}

func (s *WebhookSink) Name() string { return s.name }

func (s *WebhookSink) Submit(ctx context.Context, reg models.Registration) Outcome {
	token, err := s.sign(reg)
	if err != nil {
		return failed(s.name, 0, fmt.Errorf("sign: %w", err))
	}

	attempts := []func(context.Context, models.Registration) (*http.Request, error){
		s.jsonRequest, s.queryRequest, s.formRequest,
	}
	var status int
	for _, build := range attempts {
		req, err := build(ctx, reg)
		if err != nil {
			return failed(s.name, 0, fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return failed(s.name, 0, err)
		}
		status = resp.StatusCode
		if status >= 200 && status <= 299 {
			resp.Body.Close()
			return Outcome{Sink: s.name, OK: true, Message: reg.Name + " successfully registered for yoga camp!"}
		}
		if status != http.StatusNotFound {
			err := readError(resp)
			resp.Body.Close()
			return failed(s.name, status, err)
		}
		resp.Body.Close()
	}
	return failed(s.name, status, fmt.Errorf("webhook not found for any request shape"))
}

func (s *WebhookSink) sign(reg models.Registration) (string, error) {
	if len(s.secret) == 0 {
		return "", nil
	}
	now := time.Now()
	claims := submissionClaims{
		Name:  reg.Name,
		Email: reg.Email,
		Phone: reg.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   reg.ContactKey,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
			ID:        uuid.New().String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *WebhookSink) jsonRequest(ctx context.Context, reg models.Registration) (*http.Request, error) {
	body, err := json.Marshal(toInput(reg))
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (s *WebhookSink) queryRequest(ctx context.Context, reg models.Registration) (*http.Request, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for k, v := range formValues(reg) {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func (s *WebhookSink) formRequest(ctx context.Context, reg models.Registration) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, k := range []string{"name", "email", "phone"} {
		if v, ok := formValues(reg)[k]; ok {
			if err := w.WriteField(k, v); err != nil {
				return nil, err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}

func formValues(reg models.Registration) map[string]string {
	v := map[string]string{"name": reg.Name}
	if reg.Email != "" {
		v["email"] = reg.Email
	}
	if reg.Phone != "" {
		v["phone"] = reg.Phone
	}
	return v
}

// VerifyWebhookToken parses a token produced by a WebhookSink with the same secret.
// Receivers written in Go can use it to check a delivery's origin.
func VerifyWebhookToken(token, secret string) (contactKey string, err error) {
	var claims submissionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}
