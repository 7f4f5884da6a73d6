// Package email sends transactional notifications through an
// EmailJS-compatible REST endpoint.
//
// Delivery is best-effort by contract: callers fire notifications off the
// request path and log failures, they never propagate them.
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

// DefaultEndpoint is the public EmailJS send endpoint.
const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// Config contains email notification configuration.
type Config struct {
	// Enabled turns notification sending on. Default: false.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint overrides the EmailJS API endpoint (tests, self-hosted).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	ServiceID   string `mapstructure:"service_id" yaml:"service_id,omitempty"`
	PublicKey   string `mapstructure:"public_key" yaml:"public_key,omitempty"`
	AccessToken string `mapstructure:"access_token" yaml:"access_token,omitempty"`

	// SignupTemplateID renders the "new signup awaiting approval" mail
	// sent to the admin address.
	SignupTemplateID string `mapstructure:"signup_template_id" yaml:"signup_template_id,omitempty"`

	// ApprovalTemplateID renders the "your account was approved" mail
	// sent to the user.
	ApprovalTemplateID string `mapstructure:"approval_template_id" yaml:"approval_template_id,omitempty"`

	// AdminEmail receives signup notifications.
	AdminEmail string `mapstructure:"admin_email" yaml:"admin_email,omitempty"`

	// Timeout bounds one send attempt. Default: 10s.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// Mailer sends notifications through the EmailJS REST API.
type Mailer struct {
	config Config
	client *http.Client
}

// New creates a mailer. A disabled config yields a mailer whose sends are
// no-ops, so callers need no nil checks.
func New(config Config) *Mailer {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &Mailer{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// SendSignupNotice tells the admin address that a new account is waiting
// for approval.
func (m *Mailer) SendSignupNotice(ctx context.Context, userEmail string) error {
	return m.send(ctx, m.config.SignupTemplateID, map[string]string{
		"to_email":   m.config.AdminEmail,
		"user_email": userEmail,
	})
}

// SendApprovalNotice tells a user their account has been approved.
func (m *Mailer) SendApprovalNotice(ctx context.Context, userEmail string) error {
	return m.send(ctx, m.config.ApprovalTemplateID, map[string]string{
		"to_email": userEmail,
	})
}

func (m *Mailer) send(ctx context.Context, templateID string, params map[string]string) error {
	if !m.config.Enabled {
		return nil
	}
	if templateID == "" {
		return fmt.Errorf("no template configured")
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:      m.config.ServiceID,
		TemplateID:     templateID,
		UserID:         m.config.PublicKey,
		AccessToken:    m.config.AccessToken,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email service returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
