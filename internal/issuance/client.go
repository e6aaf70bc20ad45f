// Package issuance wraps the external DID/VC trust network. It holds no local
// state: every call is pure request/response with explicit failure signaling.
// Issuance is NOT idempotent at the network layer - calling twice produces two
// distinct signed artifacts - so callers must check for an existing payload
// before issuing.
package issuance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"credtrust/internal/platform/config"
	dErrors "credtrust/pkg/domain-errors"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the external trust network over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient HTTPDoer
	tracer     trace.Tracer
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// NewClient creates a trust network client from configuration.
func NewClient(cfg config.TrustNetworkConfig, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		tracer:  otel.Tracer("credtrust/issuance"),
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createDIDResponse struct {
	DID string `json:"did"`
}

// CreateDID mints a fresh DID on the network. Never partially succeeds.
func (c *Client) CreateDID(ctx context.Context) (string, error) {
	ctx, span := c.tracer.Start(ctx, "issuance.CreateDID")
	var retErr error
	defer func() { endSpan(span, retErr) }()

	if c.baseURL == "" || c.apiKey == "" {
		retErr = dErrors.New(dErrors.CodeServiceFailure, "trust network not configured")
		return "", retErr
	}

	form := url.Values{
		"network":                {"testnet"},
		"identifierFormatType":   {"did:key"},
		"verificationMethodType": {"Ed25519VerificationKey2018"},
		"service":                {"[]"},
		"@context":               {"https://www.w3.org/ns/did/v1"},
	}

	body, err := c.post(ctx, "/did/create", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		retErr = err
		return "", retErr
	}

	var resp createDIDResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.DID == "" {
		retErr = dErrors.New(dErrors.CodeServiceFailure, "trust network returned malformed DID response")
		return "", retErr
	}
	span.SetAttributes(attribute.String("did", resp.DID))
	return resp.DID, nil
}

type issueRequest struct {
	IssuerDID  string         `json:"issuerDid"`
	SubjectDID string         `json:"subjectDid"`
	Attributes map[string]any `json:"attributes"`
	Format     string         `json:"format"`
	Type       string         `json:"type"`
}

// IssueCredential asks the network to sign a credential. The returned payload
// is the full signed-credential envelope as produced by the network.
func (c *Client) IssueCredential(ctx context.Context, issuerDID, subjectDID string, attributes map[string]any, credentialType string) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "issuance.IssueCredential",
		trace.WithAttributes(attribute.String("credential_type", credentialType)))
	var retErr error
	defer func() { endSpan(span, retErr) }()

	if c.baseURL == "" || c.apiKey == "" {
		retErr = dErrors.New(dErrors.CodeServiceFailure, "trust network not configured")
		return nil, retErr
	}
	if issuerDID == "" || subjectDID == "" {
		retErr = dErrors.New(dErrors.CodeServiceFailure, "issuer and subject DIDs are required for issuance")
		return nil, retErr
	}

	payload, err := json.Marshal(issueRequest{
		IssuerDID:  issuerDID,
		SubjectDID: subjectDID,
		Attributes: attributes,
		Format:     "jwt",
		Type:       credentialType,
	})
	if err != nil {
		retErr = dErrors.Wrap(err, dErrors.CodeServiceFailure, "failed to marshal issuance request")
		return nil, retErr
	}

	body, err := c.post(ctx, "/credentials/issue", "application/json", bytes.NewReader(payload))
	if err != nil {
		retErr = err
		return nil, retErr
	}

	if !json.Valid(body) {
		retErr = dErrors.New(dErrors.CodeServiceFailure, "trust network returned malformed credential")
		return nil, retErr
	}
	return json.RawMessage(body), nil
}

type verifyRequest struct {
	Credential json.RawMessage `json:"credential"`
	Policies   []string        `json:"policies"`
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

// VerifyCredential checks a signed payload against the network. Verification
// is advisory: any failure yields false, never an error.
func (c *Client) VerifyCredential(ctx context.Context, payload json.RawMessage) bool {
	ctx, span := c.tracer.Start(ctx, "issuance.VerifyCredential")
	defer span.End()

	if c.baseURL == "" || c.apiKey == "" || len(payload) == 0 {
		return false
	}

	reqBody, err := json.Marshal(verifyRequest{Credential: payload, Policies: []string{"signature"}})
	if err != nil {
		return false
	}

	body, err := c.post(ctx, "/credentials/verify", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return false
	}

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false
	}
	return resp.Verified
}

// post executes a bounded-timeout POST and returns the body on 2xx, or a
// typed service error otherwise.
func (c *Client) post(ctx context.Context, path, contentType string, reqBody io.Reader) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reqBody)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeServiceFailure, "failed to create trust network request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, dErrors.Wrap(err, dErrors.CodeServiceFailure, "trust network request timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeServiceFailure, "trust network request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeServiceFailure, "failed to read trust network response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, dErrors.New(dErrors.CodeServiceFailure,
			fmt.Sprintf("trust network returned status %d", resp.StatusCode))
	}
	return body, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
