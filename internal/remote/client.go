// Package remote is the HTTP client for the market backend and third-party
// data providers.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds every request, including reading the body.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 512

type Request struct {
	Method string
	URL    string
	Params url.Values
	Header http.Header
}

type Response struct {
	Status int
	Data   json.RawMessage
}

// Decorator mutates outgoing requests whose URL contains Match.
type Decorator struct {
	Match string
	Apply func(*http.Request)
}

// Keys holds provider credentials used by ProviderDecorators.
type Keys struct {
	Finnhub string
	NewsAPI string
	GNews   string
}

// ProviderDecorators attaches each provider's credential the way it expects:
// Finnhub and GNews as query parameters, NewsAPI as a header. Providers
// without a key are left untouched.
func ProviderDecorators(keys Keys) []Decorator {
	var out []Decorator
	if keys.Finnhub != "" {
		out = append(out, Decorator{Match: "finnhub", Apply: queryParam("token", keys.Finnhub)})
	}
	if keys.NewsAPI != "" {
		out = append(out, Decorator{Match: "newsapi", Apply: func(req *http.Request) {
			req.Header.Set("X-API-Key", keys.NewsAPI)
		}})
	}
	if keys.GNews != "" {
		out = append(out, Decorator{Match: "gnews", Apply: queryParam("apikey", keys.GNews)})
	}
	return out
}

func queryParam(name, value string) func(*http.Request) {
	return func(req *http.Request) {
		q := req.URL.Query()
		q.Set(name, value)
		req.URL.RawQuery = q.Encode()
	}
}

type limitRule struct {
	match   string
	limiter *RateLimiter
}

type Client struct {
	http       *http.Client
	baseURL    string
	tracer     trace.Tracer
	decorators []Decorator
	limits     []limitRule
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithDecorators(ds ...Decorator) Option {
	return func(c *Client) { c.decorators = append(c.decorators, ds...) }
}

// WithRateLimit throttles requests whose URL contains match.
func WithRateLimit(match string, limiter *RateLimiter) Option {
	return func(c *Client) { c.limits = append(c.limits, limitRule{match: match, limiter: limiter}) }
}

// NewClient builds a client resolving relative URLs against baseURL.
func NewClient(tracer trace.Tracer, baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Get issues a GET with the given query parameters.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Params: params})
}

// GetJSON issues a GET and decodes the body into dst.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, dst any) error {
	resp, err := c.Get(ctx, rawURL, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Data, dst); err != nil {
		nerr := &NetworkError{Method: http.MethodGet, URL: rawURL, Status: resp.Status, Err: fmt.Errorf("decode response: %w", err)}
		log.Printf("remote request failed: %v", nerr)
		return nerr
	}
	return nil
}

// GetBytes issues a GET and returns the raw body, for non-JSON payloads
// such as RSS feeds.
func (c *Client) GetBytes(ctx context.Context, rawURL string, params url.Values, accept string) ([]byte, error) {
	var header http.Header
	if accept != "" {
		header = http.Header{"Accept": {accept}}
	}
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Params: params, Header: header})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Do sends req and returns the status and body of a 2xx response. Every
// failure is logged and returned as a *NetworkError. There are no retries.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	ctx, span := c.tracer.Start(ctx, "remote.request")
	defer span.End()

	fail := func(u *url.URL, status int, err error) (*Response, error) {
		shown := r.URL
		if u != nil {
			shown = redactURL(u)
		}
		nerr := &NetworkError{Method: method, URL: shown, Status: status, Err: err}
		span.RecordError(nerr)
		span.SetStatus(codes.Error, "request failed")
		log.Printf("remote request failed: %v", nerr)
		return nil, nerr
	}

	target, err := c.resolve(r.URL)
	if err != nil {
		return fail(nil, 0, err)
	}
	if len(r.Params) > 0 {
		q := target.Query()
		for k, vs := range r.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return fail(target, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range r.Header {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	matchOn := target.String()
	for _, d := range c.decorators {
		if strings.Contains(matchOn, d.Match) {
			d.Apply(req)
		}
	}
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", redactURL(req.URL)),
	)

	for _, rule := range c.limits {
		if strings.Contains(matchOn, rule.match) {
			if err := rule.limiter.Wait(ctx); err != nil {
				return fail(req.URL, 0, fmt.Errorf("rate limit wait: %w", err))
			}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(req.URL, 0, unwrapURLError(err))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fail(req.URL, resp.StatusCode, errors.New(msg))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(req.URL, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	return &Response{Status: resp.StatusCode, Data: body}, nil
}

func (c *Client) resolve(raw string) (*url.URL, error) {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return url.Parse(raw)
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("relative url %q without a base url", raw)
	}
	return url.Parse(c.baseURL + "/" + strings.TrimLeft(raw, "/"))
}

// unwrapURLError drops the *url.Error wrapper so the logged message does not
// repeat the unredacted URL.
func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
