// Package seedclient queries a candidate node's seed-node endpoint over HTTP.
// It implements probe.Querier; every transport error, non-2xx status, or
// undecodable body comes back as a plain error, which the Prober counts as a
// failed attempt.
package seedclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ryandielhenn/seedprobe/pkg/probe"
)

// SeedNodesPath is the well-known seed-node query path on a candidate's
// management endpoint.
const SeedNodesPath = "/seed-nodes"

// DefaultRequestTimeout bounds one whole probe attempt.
const DefaultRequestTimeout = 3 * time.Second

const (
	// Reading the response body is bounded separately from the request
	// timeout; a stalled body fails the attempt quickly.
	defaultBodyReadTimeout = 1 * time.Second

	maxBodyBytes = 1 << 20
)

var (
	// ErrBadStatus marks a non-2xx response from the seed-node endpoint.
	ErrBadStatus = errors.New("seed-node query returned non-2xx status")

	// ErrMalformedResponse marks a body that did not decode into the expected
	// shape.
	ErrMalformedResponse = errors.New("malformed seed-node response")
)

// Client issues seed-node queries over HTTP.
type Client struct {
	http            *http.Client
	log             *zap.Logger
	bodyReadTimeout time.Duration
}

// New builds a Client with the given per-attempt timeout. A zero timeout
// falls back to DefaultRequestTimeout; a nil logger disables logging.
func New(requestTimeout time.Duration, logger *zap.Logger) *Client {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:            &http.Client{Timeout: requestTimeout},
		log:             logger,
		bodyReadTimeout: defaultBodyReadTimeout,
	}
}

// Wire shape of the seed-node endpoint.
type seedNodesPayload struct {
	SelfNode  string   `json:"selfNode"`
	SeedNodes []string `json:"seedNodes"`
}

// QuerySeedNodes issues one GET against the candidate's seed-node path.
func (c *Client) QuerySeedNodes(ctx context.Context, target string) (probe.Observation, error) {
	url := "http://" + probe.NormalizeHostPort(target, probe.DefaultPort) + SeedNodesPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return probe.Observation{}, fmt.Errorf("build seed-node request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return probe.Observation{}, fmt.Errorf("query %s: %w", url, err)
	}
	defer resp.Body.Close()

	// Closing the body from the timer aborts a stalled read.
	t := time.AfterFunc(c.bodyReadTimeout, func() { resp.Body.Close() })
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	readTimedOut := !t.Stop()
	if err != nil {
		if readTimedOut {
			return probe.Observation{}, fmt.Errorf("read seed-node response from %s: timed out after %v", url, c.bodyReadTimeout)
		}
		return probe.Observation{}, fmt.Errorf("read seed-node response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return probe.Observation{}, fmt.Errorf("%w: %d from %s", ErrBadStatus, resp.StatusCode, url)
	}

	var payload seedNodesPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return probe.Observation{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.SelfNode == "" {
		return probe.Observation{}, fmt.Errorf("%w: missing selfNode", ErrMalformedResponse)
	}

	c.log.Debug("seed-node query succeeded",
		zap.String("target", target),
		zap.Int("seedNodes", len(payload.SeedNodes)))
	return probe.Observation{SelfNode: payload.SelfNode, SeedNodes: payload.SeedNodes}, nil
}
