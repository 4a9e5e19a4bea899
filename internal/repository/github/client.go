package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/NordCoder/ghbridge/internal/domain/notification"
	"github.com/NordCoder/ghbridge/internal/obs"
)

const (
	mediaType      = "application/vnd.github+json"
	maxBodySize    = 16 << 20
	maxErrBodySize = 512
)

type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Factory hands out per-token clients that share one transport and one
// request limiter.
type Factory struct {
	cfg     Config
	base    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewFactory(cfg Config, log *zap.Logger) *Factory {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Factory{
		cfg:     cfg,
		base:    &http.Client{Transport: obs.HTTPTransport(nil)},
		limiter: rate.NewLimiter(limit, burst),
		log:     obs.Component(log, "github.client"),
	}
}

// ForToken returns a client authenticating every request with token.
func (f *Factory) ForToken(token string) *Client {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, f.base)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	hc.Timeout = f.cfg.Timeout
	return &Client{
		baseURL:   strings.TrimRight(f.cfg.BaseURL, "/"),
		userAgent: f.cfg.UserAgent,
		http:      hc,
		limiter:   f.limiter,
		log:       f.log,
	}
}

// API adapts ForToken to notification.APIFactory.
func (f *Factory) API(token string) notification.API { return f.ForToken(token) }

type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	log       *zap.Logger
}

var _ notification.API = (*Client)(nil)

// NotificationsURL builds the participating-notifications query, adding since
// only for a non-zero lower bound.
func NotificationsURL(baseURL string, since time.Time) string {
	u := strings.TrimRight(baseURL, "/") + "/notifications?participating=true"
	if !since.IsZero() {
		u += "&since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}
	return u
}

func (c *Client) ListNotifications(ctx context.Context, since time.Time) ([]notification.Notification, error) {
	body, err := c.get(ctx, NotificationsURL(c.baseURL, since))
	if err != nil {
		return nil, err
	}
	var out []notification.Notification
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("github: decode notifications: %w", err)
	}
	return out, nil
}

func (c *Client) Resolve(ctx context.Context, resourceURL string) (json.RawMessage, error) {
	u, err := url.Parse(resourceURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("github: resolve %q: not an absolute url", resourceURL)
	}
	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("github: resolve %s: response is not json", resourceURL)
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Accept", mediaType)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		c.log.Debug("unexpected status", zap.String("url", target), zap.Int("status", resp.StatusCode))
		return nil, &StatusError{Code: resp.StatusCode, Method: http.MethodGet, URL: target, Body: strings.TrimSpace(string(snippet))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("github: read %s: %w", target, err)
	}
	return body, nil
}
