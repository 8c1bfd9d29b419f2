package portalui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrEmptyResponse is returned when the server answers with a JSON null.
// Any other JSON value that is not an object decodes to a Result without
// fields.
var ErrEmptyResponse = errors.New("empty response body")

// Result is the decoded reply of a mutating endpoint.
type Result struct {
	Fields map[string]any
}

// Success reports whether the "success" field is truthy.
func (r Result) Success() bool {
	return truthy(r.Fields["success"])
}

// ErrorMessage returns the server supplied error text, or fallback when the
// "error" field is missing or falsy.
func (r Result) ErrorMessage(fallback string) string {
	v := r.Fields["error"]
	if !truthy(v) {
		return fallback
	}
	return displayString(v)
}

// displayString renders a decoded JSON value the way string concatenation in
// the page would: objects collapse to "[object Object]" and arrays join their
// elements with commas.
func displayString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return formatNumber(t)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = displayString(item)
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		s := strconv.FormatFloat(f, 'g', -1, 64)
		// 1e-07 is written 1e-7.
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// truthy mirrors loose boolean coercion of a decoded JSON value.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// Client talks to the portal server. Cookies, including the CSRF cookie, live
// in the http.Client's jar.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient builds a client for baseURL. The http.Client should carry a cookie
// jar; no timeout is imposed beyond what httpClient configures.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

// BaseURL returns the server root.
func (c *Client) BaseURL() *url.URL {
	return c.baseURL
}

// Cookies renders the jar's cookies for the server as "a=1; b=2".
func (c *Client) Cookies() string {
	if c.http.Jar == nil {
		return ""
	}
	cookies := c.http.Jar.Cookies(c.baseURL)
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.baseURL.String() + path
	}
	return c.baseURL.ResolveReference(ref).String()
}

// Get fetches path and returns the response body with its status code.
func (c *Client) Get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// PostJSON issues a mutating POST. A nil payload sends no body and no
// Content-Type. The CSRF header is attached whenever the session has a token.
// The reply is decoded as JSON regardless of the status code.
func (c *Client) PostJSON(ctx context.Context, session Session, path string, payload any) (Result, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return Result{}, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path), body)
	if err != nil {
		return Result{}, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session.HasToken {
		req.Header.Set(CSRFHeader, session.CSRFToken)
	}
	return c.do(req)
}

// PostForm submits an urlencoded form, used for the login and signup pages.
// It returns the status code of the final response after redirects.
func (c *Client) PostForm(ctx context.Context, session Session, path string, form url.Values) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path), strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if session.HasToken {
		req.Header.Set(CSRFHeader, session.CSRFToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *Client) do(req *http.Request) (Result, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response (status %d): %w", resp.StatusCode, err)
	}
	return decodeResult(raw, resp.StatusCode)
}

// decodeResult parses the whole body as a single JSON value; trailing bytes
// are a decode error.
func decodeResult(raw []byte, status int) (Result, error) {
	var reply any
	if err := json.Unmarshal(raw, &reply); err != nil {
		return Result{}, fmt.Errorf("decode response (status %d): %w", status, err)
	}
	switch v := reply.(type) {
	case nil:
		return Result{}, ErrEmptyResponse
	case map[string]any:
		return Result{Fields: v}, nil
	default:
		return Result{}, nil
	}
}
