// Package hoaapi is a typed client for the HOA REST backend.
package hoaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout  = 15 * time.Second
	maxJSONBody     = 4 << 20
	maxReceiptBytes = 20 << 20
)

type Options struct {
	Timeout   time.Duration
	Transport http.RoundTripper
}

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

func New(baseURL string, opts Options) *Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(base)},
		timeout: timeout,
	}
}

// ---------------- Auth ----------------

func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var out LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", req, &out); err != nil {
		return LoginResponse{}, err
	}
	if err := out.Validate(); err != nil {
		return LoginResponse{}, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", req, &out)
	return out, err
}

func (c *Client) ChangePassword(ctx context.Context, token string, req ChangePasswordRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/change-password", token, req, &out)
	return out, err
}

// ---------------- Payments ----------------

func (c *Client) InitiatePayment(ctx context.Context, token string, req InitiatePaymentRequest) (InitiatePaymentResponse, error) {
	var out InitiatePaymentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/resident/payment/initiate", token, req, &out); err != nil {
		return InitiatePaymentResponse{}, err
	}
	if err := out.Validate(); err != nil {
		return InitiatePaymentResponse{}, err
	}
	return out, nil
}

func (c *Client) CompletePayment(ctx context.Context, token, paymentID string) (CompletePaymentResponse, error) {
	var out CompletePaymentResponse
	path := "/resident/payment/" + url.PathEscape(paymentID) + "/success"
	err := c.doJSON(ctx, http.MethodPut, path, token, nil, &out)
	return out, err
}

func (c *Client) PaymentHistory(ctx context.Context, token string) ([]Payment, error) {
	return List[Payment](ctx, c, token, "/resident/payments", "payments")
}

type Receipt struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Receipt downloads the receipt document for a completed transaction.
func (c *Client) Receipt(ctx context.Context, token, transactionID string) (Receipt, error) {
	path := "/resident/payment/receipt/" + url.PathEscape(transactionID)
	resp, cancel, err := c.send(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return Receipt{}, err
	}
	defer cancel()
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReceiptBytes))
	if err != nil {
		return Receipt{}, fmt.Errorf("read receipt: %w", err)
	}
	rc := Receipt{
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    "receipt-" + transactionID + ".pdf",
		Data:        data,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		rc.Filename = params["filename"]
	}
	if rc.ContentType == "" {
		rc.ContentType = "application/octet-stream"
	}
	return rc, nil
}

// ---------------- Generic resources ----------------

// List fetches a collection and validates every element. The backend answers
// either with a bare array or with an object holding the array under "data"
// or under the collection key.
func List[T Validator](ctx context.Context, c *Client, token, path, key string) ([]T, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[T](raw, key)
	if err != nil {
		return nil, err
	}
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
	}
	return items, nil
}

// Create posts a JSON object and returns the created element, found either
// as the whole body or under "data" or the singular key.
func Create[T Validator](ctx context.Context, c *Client, token, path, key string, body json.RawMessage) (T, error) {
	var zero T
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, path, token, body, &raw); err != nil {
		return zero, err
	}
	item, err := decodeItem[T](raw, key)
	if err != nil {
		return zero, err
	}
	if err := item.Validate(); err != nil {
		return zero, err
	}
	return item, nil
}

func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return items, nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	for _, k := range []string{"data", key} {
		inner, ok := wrapper[k]
		if !ok {
			continue
		}
		var items []T
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, k, err)
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: no %q array in body", ErrInvalidResponse, key)
}

func decodeItem[T any](raw json.RawMessage, key string) (T, error) {
	var item T
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err == nil {
		for _, k := range []string{"data", key} {
			if inner, ok := wrapper[k]; ok && k != "" && bytes.HasPrefix(bytes.TrimSpace(inner), []byte("{")) {
				raw = inner
				break
			}
		}
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return item, nil
}

// ---------------- Transport ----------------

func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	resp, cancel, err := c.send(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxJSONBody))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// send performs the request and turns non-2xx answers into *APIError. On
// success the caller owns resp.Body and must call cancel once done with it.
func (c *Client) send(ctx context.Context, method, path, token string, body any) (*http.Response, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case json.RawMessage:
		rdr = bytes.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			cancel()
			return nil, nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		slog.ErrorContext(ctx, "backend request failed", "method", method, "path", path, "err", err)
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	slog.DebugContext(ctx, "backend request", "method", method, "path", path, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		return nil, nil, &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	return resp, cancel, nil
}

func errorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
