// Package esign wraps the external e-signature provider's submission API.
package esign

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/nurpe/crm-contracts/internal/config"
	"github.com/nurpe/crm-contracts/internal/placement"
)

type Area = placement.Area

type SubmissionField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Role     string `json:"role"`
	Required bool   `json:"required"`
	Areas    []Area `json:"areas"`
}

type SubmissionDocument struct {
	Name   string            `json:"name"`
	File   string            `json:"file"`
	Fields []SubmissionField `json:"fields"`
}

type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Submitter struct {
	Role       string  `json:"role"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone,omitempty"`
	ExternalID string  `json:"external_id"`
	SendEmail  bool    `json:"send_email"`
	Message    Message `json:"message"`
}

type SubmissionRequest struct {
	Name       string               `json:"name"`
	Documents  []SubmissionDocument `json:"documents"`
	Submitters []Submitter          `json:"submitters"`
	SendEmail  bool                 `json:"send_email"`
	Order      string               `json:"order"`
	ExpireAt   string               `json:"expire_at"`
	ReplyTo    string               `json:"reply_to,omitempty"`
}

type SubmitterResponse struct {
	ID         int64  `json:"id"`
	Slug       string `json:"slug"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	ExternalID string `json:"external_id"`
}

type SubmissionResponse struct {
	ID         int64               `json:"id"`
	Slug       string              `json:"slug"`
	Status     string              `json:"status"`
	Submitters []SubmitterResponse `json:"submitters"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Client struct {
	http        *resty.Client
	signBaseURL string
	log         zerolog.Logger
}

func NewClient(cfg config.ESignConfig, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Auth-Token", cfg.APIToken)

	return &Client{
		http:        httpClient,
		signBaseURL: strings.TrimRight(cfg.SignBaseURL, "/"),
		log:         log,
	}
}

// CreateSubmission issues the single outbound submission-creation call. A
// non-success status preserves the provider's error message in the returned
// error.
func (c *Client) CreateSubmission(ctx context.Context, req SubmissionRequest) (*SubmissionResponse, error) {
	var result SubmissionResponse
	var apiErr errorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&apiErr).
		Post("/submissions")
	if err != nil {
		return nil, fmt.Errorf("submission call failed: %w", err)
	}
	if resp.IsError() {
		detail := apiErr.Error
		if detail == "" {
			detail = strings.TrimSpace(resp.String())
		}
		return nil, fmt.Errorf("provider rejected submission (%d): %s", resp.StatusCode(), detail)
	}

	c.log.Info().
		Int64("submission_id", result.ID).
		Str("slug", result.Slug).
		Int("submitters", len(result.Submitters)).
		Msg("submission created")
	return &result, nil
}

// SigningLink builds the link a submitter opens to sign.
func (c *Client) SigningLink(slug string) string {
	return c.signBaseURL + "/s/" + slug
}
