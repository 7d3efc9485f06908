package hmrc

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

	"vatfiler/pkg/logging"
)

const (
	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 10 << 20

	// HeaderTestScenario selects a sandbox test scenario.
	HeaderTestScenario = "Gov-Test-Scenario"

	// DefaultObligationStatus lists open obligations.
	DefaultObligationStatus = "O"
)

// TokenSource supplies a valid bearer token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// ReceiptRecorder stores a successful submission.
type ReceiptRecorder interface {
	Append(vrn string, periodKey *string, response json.RawMessage) error
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the VAT API on behalf of the single connected user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	receipts   ReceiptRecorder
}

// NewClient creates a Client. receipts may be nil, in which case
// submissions are not recorded.
func NewClient(cfg Config, tokens TokenSource, receipts ReceiptRecorder) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		receipts:   receipts,
	}
}

// ObligationsQuery selects obligations for a VRN.
type ObligationsQuery struct {
	VRN string
	// Status defaults to "O" (open).
	Status string
	// From and To are optional ISO dates.
	From     string
	To       string
	Scenario string
}

// DateRangeQuery selects liabilities or payments for a VRN.
type DateRangeQuery struct {
	VRN      string
	From     string
	To       string
	Scenario string
}

// Obligations lists VAT obligations.
func (c *Client) Obligations(ctx context.Context, hdr http.Header, q ObligationsQuery) (json.RawMessage, error) {
	status := q.Status
	if status == "" {
		status = DefaultObligationStatus
	}
	params := url.Values{"status": {status}}
	if q.From != "" {
		params.Set("from", q.From)
	}
	if q.To != "" {
		params.Set("to", q.To)
	}

	return c.do(ctx, request{
		method:   http.MethodGet,
		path:     vatPath(q.VRN, "obligations"),
		query:    params,
		header:   hdr,
		scenario: q.Scenario,
	})
}

// SubmitReturn submits a nine-box VAT return. body is forwarded verbatim.
// On success a receipt is appended before the response is returned; a
// failed append fails the call.
func (c *Client) SubmitReturn(ctx context.Context, hdr http.Header, vrn string, body json.RawMessage) (json.RawMessage, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   vatPath(vrn, "returns"),
		header: hdr,
		body:   body,
	})
	if err != nil {
		logging.Audit(logging.AuditEvent{
			Action:  "return_submitted",
			Outcome: "failure",
			Subject: vrn,
			Err:     err,
		})
		return nil, err
	}

	periodKey := periodKeyOf(body)
	logging.Audit(logging.AuditEvent{
		Action:  "return_submitted",
		Outcome: "success",
		Subject: vrn,
		Details: "periodKey=" + describe(periodKey),
	})

	if c.receipts != nil {
		if err := c.receipts.Append(vrn, periodKey, resp); err != nil {
			logging.Error("HMRC", err, "Return for VRN %s was submitted but the receipt could not be recorded", vrn)
			return nil, fmt.Errorf("failed to record receipt: %w", err)
		}
	}
	return resp, nil
}

// ViewReturn fetches a submitted return.
func (c *Client) ViewReturn(ctx context.Context, hdr http.Header, vrn, periodKey string) (json.RawMessage, error) {
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   vatPath(vrn, "returns", periodKey),
		header: hdr,
	})
}

// Liabilities lists VAT liabilities in a date range.
func (c *Client) Liabilities(ctx context.Context, hdr http.Header, q DateRangeQuery) (json.RawMessage, error) {
	return c.dateRange(ctx, hdr, "liabilities", q)
}

// Payments lists VAT payments in a date range.
func (c *Client) Payments(ctx context.Context, hdr http.Header, q DateRangeQuery) (json.RawMessage, error) {
	return c.dateRange(ctx, hdr, "payments", q)
}

func (c *Client) dateRange(ctx context.Context, hdr http.Header, resource string, q DateRangeQuery) (json.RawMessage, error) {
	return c.do(ctx, request{
		method:   http.MethodGet,
		path:     vatPath(q.VRN, resource),
		query:    url.Values{"from": {q.From}, "to": {q.To}},
		header:   hdr,
		scenario: q.Scenario,
	})
}

type request struct {
	method   string
	path     string
	query    url.Values
	header   http.Header
	body     json.RawMessage
	scenario string
}

// do performs one authenticated call. There are no retries.
func (c *Client) do(ctx context.Context, r request) (json.RawMessage, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for name, values := range r.header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.scenario != "" {
		req.Header.Set(HeaderTestScenario, r.scenario)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response of %s %s: %w", r.method, r.path, err)
	}

	logging.Debug("HMRC", "%s %s -> %d (%s)", r.method, r.path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{Status: resp.StatusCode, Body: data}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(data), nil
}

// vatPath builds /organisations/vat/{vrn}/... with escaped segments.
func vatPath(vrn string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/organisations/vat/")
	b.WriteString(url.PathEscape(vrn))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// periodKeyOf returns the submission's periodKey, or nil when the body is
// not an object or has no string periodKey.
func periodKeyOf(body json.RawMessage) *string {
	var fields struct {
		PeriodKey *string `json:"periodKey"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	return fields.PeriodKey
}

func describe(s *string) string {
	if s == nil {
		return "(none)"
	}
	return *s
}
