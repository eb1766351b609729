// Package generation is the HTTP client for the external lesson generation
// service. Every capability is a single POST with a {success, data, error}
// envelope; nothing is retried here.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/httpx"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

const (
	DefaultGroupPath   = "/api/group-kps-into-sessions"
	DefaultSummaryPath = "/api/generate-session-summary"
	DefaultDetailPath  = "/api/get-session-detailed"

	defaultErrorMessage = "unknown error"
	maxErrorBody        = 2048
)

type Client interface {
	GroupIntoSessions(ctx context.Context, req GroupRequest) (*GroupResponse, error)
	SummarizeSession(ctx context.Context, req SummaryRequest) (*SummaryResponse, error)
	DetailSession(ctx context.Context, req DetailRequest) (*DetailResponse, error)
}

type Config struct {
	BaseURL string

	GroupPath   string
	SummaryPath string
	DetailPath  string

	GroupTimeout   time.Duration
	SummaryTimeout time.Duration
	DetailTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.GroupPath == "" {
		c.GroupPath = DefaultGroupPath
	}
	if c.SummaryPath == "" {
		c.SummaryPath = DefaultSummaryPath
	}
	if c.DetailPath == "" {
		c.DetailPath = DefaultDetailPath
	}
	if c.GroupTimeout <= 0 {
		c.GroupTimeout = 120 * time.Second
	}
	if c.SummaryTimeout <= 0 {
		c.SummaryTimeout = 120 * time.Second
	}
	if c.DetailTimeout <= 0 {
		c.DetailTimeout = 180 * time.Second
	}
	return c
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config, log *logger.Logger) (Client, error) {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing GENERATION_BASE_URL")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &client{
		log:        log.With("client", "GenerationClient"),
		cfg:        cfg,
		httpClient: &http.Client{},
	}, nil
}

// NewClientWithHTTP lets tests point the client at an httptest server.
func NewClientWithHTTP(cfg Config, httpClient *http.Client, log *logger.Logger) (Client, error) {
	c, err := NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.(*client).httpClient = httpClient
	}
	return c, nil
}

func (c *client) GroupIntoSessions(ctx context.Context, req GroupRequest) (*GroupResponse, error) {
	var out GroupResponse
	if err := call(ctx, c, CapabilityGroup, c.cfg.GroupPath, c.cfg.GroupTimeout, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) SummarizeSession(ctx context.Context, req SummaryRequest) (*SummaryResponse, error) {
	var out SummaryResponse
	if err := call(ctx, c, CapabilitySummary, c.cfg.SummaryPath, c.cfg.SummaryTimeout, req, &out); err != nil {
		return nil, err
	}
	if out.Objectives == nil {
		out.Objectives = []string{}
	}
	return &out, nil
}

func (c *client) DetailSession(ctx context.Context, req DetailRequest) (*DetailResponse, error) {
	var out DetailResponse
	if err := call(ctx, c, CapabilityDetail, c.cfg.DetailPath, c.cfg.DetailTimeout, req, &out); err != nil {
		return nil, err
	}
	content := bytes.TrimSpace(out.Content)
	if len(content) == 0 || string(content) == "null" {
		return nil, errs.NewError(errs.CodeGeneration, opName(CapabilityDetail), "response has no content", nil)
	}
	out.Content = content
	return &out, nil
}

type generationHTTPError struct {
	StatusCode int
	Body       string
}

func (e *generationHTTPError) Error() string {
	return fmt.Sprintf("generation http %d: %s", e.StatusCode, e.Body)
}

func (e *generationHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func opName(capability Capability) string {
	return "Generation." + string(capability)
}

func call[T any](ctx context.Context, c *client, capability Capability, path string, timeout time.Duration, body any, out *T) (err error) {
	op := opName(capability)
	start := time.Now()

	ctx, span := observability.StartSpan(ctx, "generation."+string(capability),
		attribute.String("generation.path", path),
	)
	status := "ok"
	defer func() {
		if err != nil && status == "ok" {
			status = "error"
		}
		observability.Current().ObserveGeneration(string(capability), status, time.Since(start))
		observability.EndSpan(span, err)
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, raw, err := c.doOnce(ctx, path, body)
	if err != nil {
		switch {
		case httpx.IsTimeout(err):
			status = "timeout"
		case httpx.StatusOf(err) != 0:
			status = strconv.Itoa(httpx.StatusOf(err))
		case resp != nil:
			status = "read"
		default:
			status = "transport"
		}
		c.log.Warn("generation request failed",
			"capability", capability,
			"path", path,
			"status", status,
			"retryable", httpx.IsRetryableError(err),
			"duration", time.Since(start).String(),
			"error", err,
		)
		return errs.NewError(errs.CodeGeneration, op, "generation service request failed", err)
	}

	var env envelope[T]
	if uErr := json.Unmarshal(raw, &env); uErr != nil {
		status = "decode"
		return errs.NewError(errs.CodeGeneration, op, "decode generation response", uErr)
	}
	if !env.Success {
		status = "unsuccessful"
		msg := strings.TrimSpace(env.Error)
		if msg == "" {
			msg = defaultErrorMessage
		}
		return errs.NewError(errs.CodeGeneration, op, msg, nil)
	}
	if env.Data == nil {
		status = "decode"
		return errs.NewError(errs.CodeGeneration, op, "generation response has no data", nil)
	}
	*out = *env.Data

	c.log.Debug("generation request ok",
		"capability", capability,
		"duration", time.Since(start).String(),
	)
	return nil
}

func (c *client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(raw)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return resp, raw, &generationHTTPError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return resp, raw, nil
}
