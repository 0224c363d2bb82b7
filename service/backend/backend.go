package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pandodao/coin-wallet/core"
	"golang.org/x/time/rate"
)

type Config struct {
	Endpoint  string `valid:"url,required"`
	Timeout   time.Duration
	RateLimit float64
	Burst     int
	Locale    string `valid:"in(vi|en)"`
}

// Client talks to the wallet backend. Every call yields the normalized
// envelope {code, data, errors}; a call succeeds iff code == 200.
type Client struct {
	client      *resty.Client
	credentials core.CredentialStore
	limiter     *rate.Limiter
	locale      string
}

func New(credentials core.CredentialStore, cfg Config) *Client {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	if cfg.Locale == "" {
		cfg.Locale = "vi"
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		credentials: credentials,
		limiter:     rate.NewLimiter(limit, max(cfg.Burst, 1)),
		locale:      cfg.Locale,
	}

	c.client = resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Language", cfg.Locale).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return c.limiter.Wait(r.Context())
		})

	return c
}

func (c *Client) Locale() string {
	return c.locale
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token, err := c.credentials.Get(ctx)
	if err != nil {
		return fmt.Errorf("read credential: %w", err)
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", uuid.NewString())

	if token != "" {
		req.SetAuthToken(token)
	}

	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		observe(method, path, "error", start)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	observe(method, path, strconv.Itoa(resp.StatusCode()), start)
	return c.decode(resp, out)
}

type envelope struct {
	Code   int                   `json:"code"`
	Data   json.RawMessage       `json:"data"`
	Errors *core.LocalizedErrors `json:"errors"`
}

func (c *Client) decode(resp *resty.Response, out any) error {
	var env envelope
	err := json.Unmarshal(resp.Body(), &env)
	if err == nil && env.Code == 0 {
		err = errors.New("envelope without code")
	}

	if err != nil {
		if resp.IsError() {
			return &core.APIError{Code: resp.StatusCode(), Locale: c.locale}
		}

		return fmt.Errorf("decode envelope: %w", err)
	}

	if env.Code != core.CodeOK {
		return &core.APIError{Code: env.Code, Errors: env.Errors, Locale: c.locale}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}

	return nil
}
