package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reflectionsmatch/logger"
)

type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Mailer is the email delivery collaborator. Send returns the provider's delivery id.
type Mailer interface {
	Send(ctx context.Context, email Email) (string, error)
}

// ResendError is a non-2xx answer from Resend.
type ResendError struct {
	StatusCode int
	Name       string
	Message    string
}

func (e *ResendError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("resend error %d (%s): %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("resend error %d: %s", e.StatusCode, e.Message)
}

// ResendMailer sends through the Resend HTTP API.
type ResendMailer struct {
	log         *logger.Logger
	apiKey      string
	baseURL     string
	defaultFrom string
	httpClient  *http.Client
}

func NewResendMailer(log *logger.Logger, apiKey, baseURL, defaultFrom string) (*ResendMailer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("missing RESEND_API_KEY")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.resend.com"
	}
	return &ResendMailer{
		log:         log.With("client", "ResendMailer"),
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		defaultFrom: defaultFrom,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (m *ResendMailer) Send(ctx context.Context, email Email) (string, error) {
	if email.From == "" {
		email.From = m.defaultFrom
	}
	if len(email.To) == 0 {
		return "", fmt.Errorf("email has no recipients")
	}
	b, err := json.Marshal(email)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		rerr := &ResendError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var payload struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
			rerr.Name = payload.Name
			rerr.Message = payload.Message
		}
		return "", rerr
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("resend decode: %w", err)
	}
	m.log.Debug("email sent", "id", out.ID, "subject", email.Subject)
	return out.ID, nil
}
