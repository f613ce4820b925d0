// Package pinger keeps a sleeping backend awake by calling its keep-active
// endpoint.
package pinger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout allows for a cold start of the pinged host.
const DefaultTimeout = 120 * time.Second

// ErrMissingToken is returned by New when no access token is configured.
var ErrMissingToken = errors.New("pinger: missing keep-active access token")

// Pinger sends an authenticated GET to URL.
type Pinger struct {
	URL        string
	HeaderName string
	Token      string
	Params     url.Values

	client *http.Client
	logger logrus.FieldLogger
}

// New validates the settings and returns a Pinger.
func New(rawURL, headerName, token string, params url.Values, logger logrus.FieldLogger) (*Pinger, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("pinger: invalid url %q: %w", rawURL, err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pinger{
		URL:        rawURL,
		HeaderName: headerName,
		Token:      token,
		Params:     params,
		client:     &http.Client{Timeout: DefaultTimeout},
		logger:     logger,
	}, nil
}

// Ping calls the endpoint once and returns the response status. A non-200
// status is logged with the response body but is not an error.
func (p *Pinger) Ping(ctx context.Context) (int, error) {
	target := p.URL
	if len(p.Params) > 0 {
		target += "?" + p.Params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(p.HeaderName, p.Token)

	log := p.logger.WithField("url", target)

	resp, err := p.client.Do(req)
	if err != nil {
		log.WithError(err).Error("error pinging server")
		return 0, fmt.Errorf("pinging %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		log.Info("successfully pinged server")
		return resp.StatusCode, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"details": string(body),
	}).Warn("ping returned non-200 status")
	return resp.StatusCode, nil
}
