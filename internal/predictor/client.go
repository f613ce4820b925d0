// Package predictor is the HTTP client for the NHL prediction service.
package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL points at a locally running prediction backend.
	DefaultBaseURL = "http://localhost:8000/api/"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 15 * time.Second

	predictionsByDatePath = "game-predictions/date/"
	mostRecentModelPath   = "prediction-model/most-recent/"

	maxBodyBytes = 4 << 20
)

// Client fetches predictions and model metadata from the prediction service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sends requests through a copy of hc, so later options never
// modify the caller's client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			copied := *hc
			c.httpClient = &copied
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for baseURL. The base URL always ends with a slash so
// endpoint paths can be appended to it.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchPredictionsForDate fetches the predictions for games on date (YYYY-MM-DD).
func (c *Client) FetchPredictionsForDate(ctx context.Context, date string) ([]GamePrediction, error) {
	const op = "fetch predictions"

	query := url.Values{}
	query.Set("date", date)

	var predictions []GamePrediction
	if err := c.get(ctx, op, predictionsByDatePath, query, &predictions); err != nil {
		return nil, err
	}

	for _, p := range predictions {
		if err := p.validate(); err != nil {
			return nil, &Error{Kind: KindMalformed, Op: op, Err: err}
		}
	}
	if predictions == nil {
		predictions = []GamePrediction{}
	}
	return predictions, nil
}

// FetchLatestModel fetches the most recently trained prediction model.
func (c *Client) FetchLatestModel(ctx context.Context) (*PredictionModel, error) {
	const op = "fetch latest model"

	var model PredictionModel
	if err := c.get(ctx, op, mostRecentModelPath, nil, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// get issues a GET and decodes a 2xx JSON body into out. Failures are
// classified by the stage they happen in: no response, bad status, bad body.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	log := c.logger.WithField("url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("prediction service unreachable")
		return &Error{Kind: KindTransport, Op: op, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.WithError(err).Warn("reading response body failed")
		return &Error{Kind: KindTransport, Op: op, URL: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := parseDetail(body)
		log.WithField("detail", detail).Warn("prediction service returned an error status")
		return &Error{Kind: KindAPI, Op: op, URL: endpoint, StatusCode: resp.StatusCode, Detail: detail}
	}

	if err := json.Unmarshal(body, out); err != nil {
		log.WithError(err).Warn("decoding response failed")
		return &Error{
			Kind:       KindMalformed,
			Op:         op,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decoding response: %w (body: %s)", err, truncate(body, 200)),
		}
	}

	log.Debug("prediction service request complete")
	return nil
}

// parseDetail extracts a string `detail` field from an error body.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return detail
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
