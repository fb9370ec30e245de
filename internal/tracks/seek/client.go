package seek

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AngelP17/HARPY-sub000/internal/httputil"
	"github.com/AngelP17/HARPY-sub000/internal/metrics"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
)

// Errors returned by HTTPLookup.
var (
	ErrNoEndpoint        = errors.New("seek: lookup endpoint not configured")
	ErrMalformedResponse = errors.New("seek: response has neither Ok nor Err")
)

// RequestIDHeader carries a per-lookup ULID.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 512

// RangeQuery is one historical range lookup.
type RangeQuery struct {
	StartTsMs int64
	EndTsMs   int64
	Layers    []l1wire.Kind
}

// RangeResult is the useful part of a successful lookup.
type RangeResult struct {
	SnapshotID          string
	EstimatedDeltaCount uint32
	Ranges              int
}

// Lookup performs historical range lookups.
type Lookup interface {
	LookupRange(ctx context.Context, q RangeQuery) (RangeResult, error)
}

// StatusError is a non-2xx reply from the lookup endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("seek: lookup returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("seek: lookup returned HTTP %d: %s", e.StatusCode, e.Body)
}

// ServerError is an {"Err": ...} reply. It does not count against the
// circuit breaker since the endpoint itself answered.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return "seek: lookup failed: " + e.Message }

// LookupConfig configures an HTTPLookup.
type LookupConfig struct {
	Endpoint        string
	Timeout         time.Duration // per request; 0 means 10s
	BreakerFailures uint32        // consecutive failures that open the breaker; 0 means 5
	BreakerCooldown time.Duration // open state duration; 0 means 30s
}

// HTTPLookup queries the historical range endpoint over HTTP behind a
// circuit breaker.
type HTTPLookup struct {
	endpoint *url.URL
	client   httputil.HTTPClient
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker[RangeResult]
}

// NewHTTPLookup builds a lookup client. A nil client uses the default
// http.Client.
func NewHTTPLookup(cfg LookupConfig, client httputil.HTTPClient) (*HTTPLookup, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrNoEndpoint
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("seek: parse endpoint: %w", err)
	}
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}

	const name = "seek_lookup"
	failures := cfg.BreakerFailures
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			var se *ServerError
			return err == nil || errors.As(err, &se)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			opsf("circuit breaker %s: %s -> %s", name, from, to)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return &HTTPLookup{
		endpoint: u,
		client:   client,
		timeout:  cfg.Timeout,
		breaker:  gobreaker.NewCircuitBreaker[RangeResult](settings),
	}, nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// BreakerState exposes the breaker state for status reporting.
func (h *HTTPLookup) BreakerState() gobreaker.State { return h.breaker.State() }

// LookupRange runs one lookup. Open-breaker rejections are returned as
// gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
func (h *HTTPLookup) LookupRange(ctx context.Context, q RangeQuery) (RangeResult, error) {
	ctx, span := otel.Tracer("trackview/seek").Start(ctx, "seek.LookupRange")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("seek.start_ts_ms", q.StartTsMs),
		attribute.Int64("seek.end_ts_ms", q.EndTsMs),
		attribute.String("seek.layers", layerTags(q.Layers)),
	)

	start := time.Now()
	res, err := h.breaker.Execute(func() (RangeResult, error) {
		return h.do(ctx, q)
	})
	metrics.SeekLookupDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.SeekLookups.WithLabelValues("ok").Inc()
		span.SetAttributes(attribute.Int("seek.estimated_deltas", int(res.EstimatedDeltaCount)))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.SeekLookups.WithLabelValues("rejected").Inc()
		span.SetStatus(codes.Error, err.Error())
	default:
		metrics.SeekLookups.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (h *HTTPLookup) do(ctx context.Context, q RangeQuery) (RangeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	u := *h.endpoint
	params := u.Query()
	params.Set("start_ts_ms", strconv.FormatInt(q.StartTsMs, 10))
	params.Set("end_ts_ms", strconv.FormatInt(q.EndTsMs, 10))
	params.Set("layers", layerTags(q.Layers))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return RangeResult{}, fmt.Errorf("seek: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, newRequestID())

	resp, err := h.client.Do(req)
	if err != nil {
		return RangeResult{}, fmt.Errorf("seek: lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return RangeResult{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var body rangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return RangeResult{}, fmt.Errorf("seek: decode response: %w", err)
	}
	return body.result()
}

type rangeResponse struct {
	Ok *struct {
		Snapshot *struct {
			ID string `json:"id"`
		} `json:"snapshot"`
		DeltaRanges []struct {
			EstimatedDeltas uint64 `json:"estimated_deltas"`
		} `json:"delta_ranges"`
	} `json:"Ok"`
	Err *struct {
		Error string `json:"error"`
	} `json:"Err"`
}

func (r rangeResponse) result() (RangeResult, error) {
	switch {
	case r.Err != nil:
		return RangeResult{}, &ServerError{Message: r.Err.Error}
	case r.Ok == nil:
		return RangeResult{}, ErrMalformedResponse
	}
	var total uint64
	for _, dr := range r.Ok.DeltaRanges {
		total += dr.EstimatedDeltas
	}
	if total > math.MaxUint32 {
		total = math.MaxUint32
	}
	res := RangeResult{EstimatedDeltaCount: uint32(total), Ranges: len(r.Ok.DeltaRanges)}
	if r.Ok.Snapshot != nil {
		res.SnapshotID = r.Ok.Snapshot.ID
	}
	return res, nil
}

func layerTags(kinds []l1wire.Kind) string {
	tags := make([]string, len(kinds))
	for i, k := range kinds {
		tags[i] = k.Tag()
	}
	return strings.Join(tags, ",")
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
