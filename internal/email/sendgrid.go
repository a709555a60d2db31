package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultAPIURL = "https://api.sendgrid.com/v3/mail/send"

// SendGridConfig holds the configuration for the SendGrid mail client
type SendGridConfig struct {
	APIKey string
	Sender string
	APIURL string
}

// SendGrid delivers transactional email through the SendGrid v3 API
type SendGrid struct {
	apiKey string
	sender string
	apiURL string
	client *http.Client
}

func NewSendGrid(cfg SendGridConfig) *SendGrid {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &SendGrid{
		apiKey: cfg.APIKey,
		sender: cfg.Sender,
		apiURL: apiURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sgAddress struct {
	Email string `json:"email"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgMail struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

// SendWelcome greets a freshly registered user
func (s *SendGrid) SendWelcome(ctx context.Context, to, name string) error {
	if name == "" {
		name = "there"
	}

	return s.send(ctx, sgMail{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: to}}}},
		From:             sgAddress{Email: s.sender},
		Subject:          "Welcome to the bookstore!",
		Content: []sgContent{{
			Type:  "text/plain",
			Value: fmt.Sprintf("Hi %s,\n\nyour account is ready. Happy reading!", name),
		}},
	})
}

func (s *SendGrid) send(ctx context.Context, m sgMail) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, msg)
	}

	return nil
}
