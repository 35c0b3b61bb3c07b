package wire

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	zmq "github.com/pebbe/zmq4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/tobert/hootenanny/log"
	"github.com/tobert/hootenanny/metrics"
)

// ClientConfig configures a Lazy Pirate reliable request/reply client.
type ClientConfig struct {
	Service           string
	Endpoint          string
	Timeout           time.Duration
	MaxRetries        int
	BackoffBase       time.Duration
	BackoffMax        time.Duration
	MaxFailures       uint32
	KeepaliveInterval time.Duration
}

// DefaultClientConfig returns spec.md-compatible defaults: 5 consecutive
// timeouts mark a peer Dead.
func DefaultClientConfig(service, endpoint string) ClientConfig {
	return ClientConfig{
		Service:           service,
		Endpoint:          endpoint,
		Timeout:           2 * time.Second,
		MaxRetries:        3,
		BackoffBase:       50 * time.Millisecond,
		BackoffMax:        5 * time.Second,
		MaxFailures:       5,
		KeepaliveInterval: 10 * time.Second,
	}
}

// delay computes the exponential, capped backoff for attempt n (1-indexed):
// min(backoff_base * 2^(n-1), backoff_max). Monotonic and capped per
// spec.md §8 invariant 7. newBackOffCurve below is configured to produce
// exactly this sequence (RandomizationFactor=0) so the deterministic
// formula and the cenkalti/backoff/v5 curve used on the wait path agree.
func delay(base, max time.Duration, n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// newBackOffCurve builds the cenkalti/backoff/v5 exponential curve used to
// drive the actual inter-attempt wait. RandomizationFactor is pinned to 0
// so the curve is deterministic and matches delay() exactly.
func newBackOffCurve(cfg ClientConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.BackoffBase
	b.MaxInterval = cfg.BackoffMax
	b.Multiplier = 2.0
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// Client is a reliable DEALER-side client implementing the Lazy Pirate
// pattern over a raw ZMQ socket: correlated request/reply, exponential
// capped backoff, and a Connected→Unknown→Dead health state machine.
//
// Peer health is modeled with a gobreaker.CircuitBreaker: the breaker's
// Open state is spec.md's "Dead" (fail-fast, no retry); HalfOpen is the
// single probe request that, on success, resets the failure counter and
// returns the peer to Connected.
type Client struct {
	cfg     ClientConfig
	logger  log.Logger
	sock    *zmq.Socket
	cb      *gobreaker.CircuitBreaker
	metrics *metrics.WireMetrics

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a DEALER socket connected to endpoint with the socket
// options mandated by spec.md §4.2: LINGER=0, bounded reconnect interval,
// ZMQ-level heartbeating.
func NewClient(cfg ClientConfig, logger log.Logger) (*Client, error) {
	sock, err := zmq.NewSocket(zmq.DEALER)
	if err != nil {
		return nil, fmt.Errorf("wire: create DEALER socket: %w", err)
	}
	if err := configureSocket(sock); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.Connect(cfg.Endpoint); err != nil {
		sock.Close()
		return nil, fmt.Errorf("wire: connect to %s: %w", cfg.Endpoint, err)
	}

	settings := gobreaker.Settings{
		Name:        cfg.Service,
		MaxRequests: 1,
		Timeout:     cfg.BackoffMax,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		sock:   sock,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}, nil
}

// configureSocket applies the socket options mandated by spec.md §4.2.
func configureSocket(sock *zmq.Socket) error {
	if err := sock.SetLinger(0); err != nil {
		return err
	}
	if err := sock.SetReconnectIvl(1 * time.Second); err != nil {
		return err
	}
	if err := sock.SetReconnectIvlMax(60 * time.Second); err != nil {
		return err
	}
	if err := sock.SetHeartbeatIvl(30 * time.Second); err != nil {
		return err
	}
	if err := sock.SetHeartbeatTimeout(90 * time.Second); err != nil {
		return err
	}
	return nil
}

// ErrNotConnected is returned immediately, without retrying, once the peer
// has tripped the breaker (Dead in spec.md terms).
var ErrNotConnected = fmt.Errorf("wire: peer not connected")

// ErrTimeout is returned after the first attempt and MaxRetries retries
// have all failed.
var ErrTimeout = fmt.Errorf("wire: request timed out after retries")

// RequestWithRetry implements request_with_retry from spec.md §4.2: fresh
// correlation id, send, per-attempt timeout, exponential capped backoff,
// and fail-fast via the circuit breaker once the peer is Dead.
func (c *Client) RequestWithRetry(ctx context.Context, payload Payload) (*Envelope, error) {
	start := time.Now()
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.attemptWithRetries(ctx, payload)
	})
	c.recordOutcome(start, err)
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, ErrNotConnected
		}
		return nil, err
	}
	return result.(*Envelope), nil
}

// recordOutcome feeds the optional WireMetrics with this request's result
// and the breaker's current peer-health state. A nil Metrics is a no-op,
// so tests and metrics-less callers pay nothing.
func (c *Client) recordOutcome(start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.metrics.RequestsTotal.WithLabelValues(c.cfg.Service, outcome).Inc()
	c.metrics.RequestDuration.WithLabelValues(c.cfg.Service).Observe(time.Since(start).Seconds())

	var health float64
	switch c.cb.State() {
	case gobreaker.StateClosed:
		health = 0
	case gobreaker.StateHalfOpen:
		health = 1
	case gobreaker.StateOpen:
		health = 2
	}
	c.metrics.PeerHealth.WithLabelValues(c.cfg.Service).Set(health)
}

// SetMetrics attaches a WireMetrics collector; calling it is optional and
// safe at any point before concurrent use begins.
func (c *Client) SetMetrics(m *metrics.WireMetrics) {
	c.metrics = m
}

func (c *Client) attemptWithRetries(ctx context.Context, payload Payload) (*Envelope, error) {
	curve := newBackOffCurve(c.cfg)
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries+1; attempt++ {
		env, err := c.attemptOnce(ctx, payload)
		if err == nil {
			return env, nil
		}
		lastErr = err
		if attempt > c.cfg.MaxRetries {
			break
		}
		wait := curve.NextBackOff()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrTimeout, lastErr)
}

// attemptOnce sends one request and waits up to cfg.Timeout for a reply
// whose request id matches; stale (unmatched) replies are discarded and the
// receive continues until the deadline.
func (c *Client) attemptOnce(ctx context.Context, payload Payload) (*Envelope, error) {
	reqID := NewRequestID()
	env := &Envelope{ID: reqID, Traceparent: TraceparentFromContext(ctx), Payload: payload}
	body, err := EncodeBody(env, ContentTypeJSON)
	if err != nil {
		return nil, err
	}
	frame := &Frame{
		Command:     CommandRequest,
		ContentType: ContentTypeJSON,
		RequestID:   reqID,
		Service:     c.cfg.Service,
		Body:        body,
	}

	c.mu.Lock()
	c.lastRequest = time.Now()
	c.mu.Unlock()

	if _, err := c.sock.SendMessage(frame.Encode()); err != nil {
		return nil, fmt.Errorf("wire: send: %w", err)
	}

	deadline := time.Now().Add(c.cfg.Timeout)
	for time.Now().Before(deadline) {
		remaining := time.Until(deadline)
		if err := c.sock.SetRcvtimeo(remaining); err != nil {
			return nil, err
		}
		parts, err := c.sock.RecvMessageBytes(0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		reply, err := Parse(parts)
		if err != nil {
			c.logger.Warn("wire: dropping unparseable reply", zap.Error(err))
			continue
		}
		replyEnv, err := DecodeBody(reply.ContentType, reply.Body)
		if err != nil {
			continue
		}
		if replyEnv.ID != reqID {
			// Stale reply from an earlier, abandoned attempt. Discard.
			continue
		}
		return replyEnv, nil
	}
	return nil, ErrTimeout
}

// MaybeKeepalive sends a zero-body Heartbeat frame if no request has been
// sent for KeepaliveInterval, cooperating with ZMQ peers that time out idle
// DEALER connections.
func (c *Client) MaybeKeepalive() error {
	c.mu.Lock()
	idle := time.Since(c.lastRequest)
	c.mu.Unlock()
	if idle < c.cfg.KeepaliveInterval {
		return nil
	}
	frame := &Frame{
		Command:     CommandHeartbeat,
		ContentType: ContentTypeEmpty,
		RequestID:   NewRequestID(),
		Service:     c.cfg.Service,
	}
	_, err := c.sock.SendMessage(frame.Encode())
	return err
}

// Close releases the underlying socket.
func (c *Client) Close() error { return c.sock.Close() }
