package gateway

import (
	"context"
	"time"

	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tobert/hootenanny/log"
	"github.com/tobert/hootenanny/wire"
)

// BackendConfig names one backend's PUB endpoint to subscribe to.
type BackendConfig struct {
	Name     string
	Endpoint string
}

// SubscriberGroup runs one SUB-socket loop per configured backend, decoding
// each broadcast and fanning it out to every connected SSE session.
type SubscriberGroup struct {
	backends []BackendConfig
	sessions *SessionStore
	logger   log.Logger
}

// NewSubscriberGroup wires backends to sessions for broadcast fan-out.
func NewSubscriberGroup(backends []BackendConfig, sessions *SessionStore, logger log.Logger) *SubscriberGroup {
	return &SubscriberGroup{backends: backends, sessions: sessions, logger: logger}
}

// Run subscribes to every backend and blocks until ctx is cancelled or any
// subscriber loop returns an unrecoverable error.
func (g *SubscriberGroup) Run(ctx context.Context) error {
	grp, ctx := errgroup.WithContext(ctx)
	for _, b := range g.backends {
		b := b
		grp.Go(func() error { return g.subscribeOne(ctx, b) })
	}
	return grp.Wait()
}

func (g *SubscriberGroup) subscribeOne(ctx context.Context, b BackendConfig) error {
	sock, err := zmq.NewSocket(zmq.SUB)
	if err != nil {
		return err
	}
	defer sock.Close()

	if err := sock.SetSubscribe(""); err != nil {
		return err
	}
	if err := sock.Connect(b.Endpoint); err != nil {
		return err
	}
	_ = sock.SetRcvtimeo(200 * time.Millisecond)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		parts, err := sock.RecvMessageBytes(0)
		if err != nil {
			continue // recv timeout; loop to re-check ctx
		}
		if len(parts) < 2 {
			continue
		}
		topic := string(parts[0])
		env, err := wire.DecodeBody(wire.ContentTypeJSON, parts[1])
		if err != nil {
			g.logger.Warn("gateway: dropping unparseable broadcast", zap.String("backend", b.Name))
			continue
		}
		if env.Payload.Broadcast == nil {
			continue
		}
		g.sessions.Broadcast(BroadcastEvent{Type: topicToEventType(topic), Data: env.Payload.Broadcast.Body})
	}
}
