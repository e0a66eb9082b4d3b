// Package revocation answers whether an access token id has been blacklisted.
package revocation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/postkeeper-server/internal/logger"
	"github.com/dtroode/postkeeper-server/internal/metrics"
	"github.com/dtroode/postkeeper-server/internal/model"
)

var _ model.RevocationChecker = (*HTTPChecker)(nil)

const backendHTTP = "http"

// HTTPChecker asks the remote cache service whether a revocation key exists.
type HTTPChecker struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewHTTPChecker creates a checker against the cache service at baseURL.
func NewHTTPChecker(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *logger.Logger) *HTTPChecker {
	return &HTTPChecker{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		metrics: m,
		logger:  logger,
	}
}

// IsRevoked returns true on 200, false on 404 and an error for any other answer.
func (c *HTTPChecker) IsRevoked(ctx context.Context, jti string) (revoked bool, err error) {
	defer func() { c.metrics.ObserveRevocation(backendHTTP, revoked, err) }()

	endpoint := c.baseURL + "/api/cache/" + url.PathEscape(model.RevocationKey(jti))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build revocation request: %w", err)
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		req.Header.Set(middleware.RequestIDHeader, reqID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to query revocation cache: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		c.logger.Warn("HTTPChecker: unexpected cache response", "status", resp.StatusCode, "jti", jti)
		return false, fmt.Errorf("revocation cache answered %d", resp.StatusCode)
	}
}
