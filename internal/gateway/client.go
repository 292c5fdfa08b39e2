package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	apperrors "equipment-console/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds configuration for the remote API client
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// DefaultConfig returns a default configuration for the given base URL
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		Timeout:      15 * time.Second,
		UserAgent:    "equipment-console/1.0",
		MaxBodyBytes: 4 << 20,
	}
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID stores the id forwarded to the remote API as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the id set by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Client performs JSON calls against the remote equipment API. It never
// retries and never caches; every failure is returned as a
// *errors.TransportError.
type Client struct {
	config   Config
	http     *http.Client
	logger   *zap.Logger
	validate *validator.Validate
}

// NewClient creates a Client. A nil logger disables logging.
func NewClient(config Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultConfig(config.BaseURL).UserAgent
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultConfig(config.BaseURL).MaxBodyBytes
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:   config,
		http:     &http.Client{Timeout: config.Timeout},
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// putOptional is put for endpoints that may answer 2xx without a body.
// decoded is false when the body was empty and out was left untouched.
func (c *Client) putOptional(ctx context.Context, path string, body, out interface{}) (decoded bool, err error) {
	return c.exchange(ctx, http.MethodPut, path, nil, body, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	_, err := c.exchange(ctx, method, path, query, body, out, false)
	return err
}

// exchange sends one request and decodes a 2xx body into out. An empty body
// is a schema failure unless optional is set.
func (c *Client) exchange(ctx context.Context, method, path string, query url.Values, body, out interface{}, optional bool) (bool, error) {
	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return false, apperrors.NewTransportError(method, target, 0, "", fmt.Errorf("failed to marshal request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return false, apperrors.NewTransportError(method, target, 0, "", fmt.Errorf("failed to create request: %w", err))
	}

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote call failed",
			zap.String("method", method), zap.String("url", target),
			zap.String("request_id", requestID), zap.Error(err))
		return false, apperrors.NewTransportError(method, target, 0, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes))
	if err != nil {
		return false, apperrors.NewTransportError(method, target, resp.StatusCode, "", fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Debug("remote call",
		zap.String("method", method), zap.String("url", target),
		zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID))

	if resp.StatusCode >= 400 {
		return false, apperrors.NewTransportError(method, target, resp.StatusCode, strings.TrimSpace(string(raw)), nil)
	}

	if out == nil {
		return false, nil
	}
	empty := len(bytes.TrimSpace(raw)) == 0
	if empty && optional {
		return false, nil
	}
	if !empty {
		if err := json.Unmarshal(raw, out); err != nil {
			return false, apperrors.MalformedResponseError(method, target, err)
		}
	}
	if err := c.checkSchema(out); err != nil {
		return false, apperrors.MalformedResponseError(method, target, err)
	}
	return !empty, nil
}

// checkSchema runs struct validation over a decoded value, element by
// element for slices. Nil pointers are accepted; callers decide what an
// absent object means.
func (c *Client) checkSchema(out interface{}) error {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return c.validate.Struct(v.Interface())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if err := c.checkSchema(v.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}

// IsHealthy checks whether the remote API answers below 500.
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 500
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
