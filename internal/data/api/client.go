package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/util"
)

const maxBodySize = 4 << 20

// Client talks to the telemetry REST API. Every response is decoded into its
// schema and validated; failures come back as *Error.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a client for baseURL (scheme and host, optional prefix).
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: missing host", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// AlertChannelURL derives the websocket push URL from the base URL.
func (c *Client) AlertChannelURL() string {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + PathAlertChannel
	return u.String()
}

func (c *Client) Overview(ctx context.Context) (*model.Overview, error) {
	return get[*model.Overview](ctx, c, PathOverview, nil)
}

func (c *Client) KilnHealth(ctx context.Context, tr model.TimeRange) (*model.KilnHealth, error) {
	return get[*model.KilnHealth](ctx, c, PathKilnHealth, timeRangeQuery(tr))
}

func (c *Client) EnergyCockpit(ctx context.Context, tr model.TimeRange) (*model.EnergyCockpit, error) {
	return get[*model.EnergyCockpit](ctx, c, PathEnergyCockpit, timeRangeQuery(tr))
}

func (c *Client) PredictiveQuality(ctx context.Context, tr model.TimeRange) (*model.PredictiveQuality, error) {
	return get[*model.PredictiveQuality](ctx, c, PathPredictiveQuality, timeRangeQuery(tr))
}

func (c *Client) VarianceAnalysis(ctx context.Context) ([]model.VarianceRow, error) {
	return get[[]model.VarianceRow](ctx, c, PathVarianceAnalysis, nil)
}

func (c *Client) ProcessFlow(ctx context.Context) ([]model.ProcessNode, error) {
	return get[[]model.ProcessNode](ctx, c, PathProcessFlow, nil)
}

func (c *Client) AgentActions(ctx context.Context) ([]model.AgentAction, error) {
	return get[[]model.AgentAction](ctx, c, PathAgentActions, nil)
}

func (c *Client) Recommendations(ctx context.Context) ([]model.Recommendation, error) {
	return get[[]model.Recommendation](ctx, c, PathRecommendations, nil)
}

func (c *Client) ApproveRecommendation(ctx context.Context, id int) (model.ActionResult, error) {
	return send[model.ActionResult](ctx, c, http.MethodPost, recommendationPath(id, "approve"), nil)
}

func (c *Client) RejectRecommendation(ctx context.Context, id int) (model.ActionResult, error) {
	return send[model.ActionResult](ctx, c, http.MethodPost, recommendationPath(id, "reject"), nil)
}

func (c *Client) Settings(ctx context.Context) (*model.Settings, error) {
	return get[*model.Settings](ctx, c, PathSettings, nil)
}

func (c *Client) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	return send[*model.Settings](ctx, c, http.MethodPost, PathSettings, patch)
}

func recommendationPath(id int, action string) string {
	return PathRecommendations + "/" + strconv.Itoa(id) + "/" + action
}

func timeRangeQuery(tr model.TimeRange) url.Values {
	return url.Values{"timerange": []string{tr.String()}}
}

func get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	err := c.do(ctx, http.MethodGet, path, query, nil, &out)
	return out, err
}

func send[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	err := c.do(ctx, method, path, nil, body, &out)
	return out, err
}

// do performs one request and decodes a 2xx body into out, then validates it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := strings.TrimPrefix(path, "/api/")
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return &Error{Kind: KindDecode, Endpoint: endpoint, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return &Error{Kind: KindCanceled, Endpoint: endpoint, Err: err}
		}
		util.LogDebug("api request failed", util.F("endpoint", endpoint), util.F("error", err.Error()))
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return &Error{Kind: KindCanceled, Endpoint: endpoint, Err: err}
		}
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	util.LogDebug("api request done",
		util.F("method", method), util.F("endpoint", endpoint),
		util.F("status", resp.StatusCode), util.F("duration_ms", time.Since(start).Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := KindStatus
		if resp.StatusCode == http.StatusNotFound {
			kind = KindNotFound
		}
		return &Error{Kind: kind, Endpoint: endpoint, Status: resp.StatusCode, Detail: problemDetail(data)}
	}

	if err := sonic.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindDecode, Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}
	if err := model.Validate(out); err != nil {
		return &Error{Kind: KindSchemaMismatch, Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// problemDetail pulls a human message out of an error body, accepting
// problem+json, {"error": ...} and {"message": ...} shapes.
func problemDetail(data []byte) string {
	var body struct {
		Title   string `json:"title"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := sonic.Unmarshal(data, &body); err != nil {
		return ""
	}
	for _, s := range []string{body.Detail, body.Title, body.Error, body.Message} {
		if s != "" {
			return s
		}
	}
	return ""
}
