package wire

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"

	"github.com/tobert/hootenanny/log"
)

// PeerConfig configures a single-ROUTER, single-PUB HOOT01 service: the
// general case of which garden.Kernel's 4-socket control protocol is a
// specialization for realtime audio.
type PeerConfig struct {
	ServiceName    string
	RouterEndpoint string
	PubEndpoint    string
}

// PeerDispatcher handles one decoded request Envelope and returns the
// Payload to reply with.
type PeerDispatcher interface {
	Dispatch(ctx context.Context, env *Envelope) (Payload, error)
}

// Peer binds a ROUTER socket for request/reply and a PUB socket for
// broadcasts, routing each incoming frame through a PeerDispatcher.
type Peer struct {
	cfg        PeerConfig
	logger     log.Logger
	router     *zmq.Socket
	pub        *zmq.Socket
	dispatcher PeerDispatcher
}

// NewPeer binds both sockets and wires them to dispatcher.
func NewPeer(cfg PeerConfig, dispatcher PeerDispatcher, logger log.Logger) (*Peer, error) {
	router, err := zmq.NewSocket(zmq.ROUTER)
	if err != nil {
		return nil, err
	}
	if err := router.SetRouterMandatory(1); err != nil {
		return nil, err
	}
	if err := router.SetLinger(0); err != nil {
		return nil, err
	}
	if err := router.Bind(cfg.RouterEndpoint); err != nil {
		return nil, fmt.Errorf("wire: bind router %s: %w", cfg.RouterEndpoint, err)
	}

	pub, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, err
	}
	if err := pub.SetLinger(0); err != nil {
		return nil, err
	}
	if err := pub.Bind(cfg.PubEndpoint); err != nil {
		return nil, fmt.Errorf("wire: bind pub %s: %w", cfg.PubEndpoint, err)
	}

	return &Peer{cfg: cfg, logger: logger, router: router, pub: pub, dispatcher: dispatcher}, nil
}

// Publish encodes and broadcasts env on topic.
func (p *Peer) Publish(topic string, env *Envelope) error {
	body, err := EncodeBody(env, ContentTypeJSON)
	if err != nil {
		return err
	}
	_, err = p.pub.SendMessage(topic, body)
	return err
}

// Run serves the ROUTER socket until ctx is cancelled.
func (p *Peer) Run(ctx context.Context) {
	_ = p.router.SetRcvtimeo(200 * time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		parts, err := p.router.RecvMessageBytes(0)
		if err != nil {
			continue
		}
		if len(parts) < 2 {
			continue
		}
		identity := parts[0]
		p.handle(ctx, identity, parts[1:])
	}
}

func (p *Peer) handle(ctx context.Context, identity []byte, rest [][]byte) {
	if len(rest) > 0 && string(rest[0]) == "" {
		rest = rest[1:]
	}
	frame, err := Parse(rest)
	if err != nil {
		p.logger.Warn("wire: dropping unparseable frame")
		return
	}
	if frame.Command == CommandHeartbeat {
		p.reply(identity, frame.RequestID, CommandHeartbeat, ContentTypeEmpty, nil)
		return
	}

	env, err := DecodeBody(frame.ContentType, frame.Body)
	if err != nil {
		p.replyError(identity, frame.RequestID, "decode_error", err.Error())
		return
	}

	payload, dispatchErr := p.safeDispatch(ctx, env)
	if dispatchErr != nil {
		p.replyError(identity, frame.RequestID, "dispatch_error", dispatchErr.Error())
		return
	}

	replyEnv := &Envelope{ID: env.ID, Traceparent: env.Traceparent, Payload: payload}
	body, err := EncodeBody(replyEnv, ContentTypeJSON)
	if err != nil {
		p.logger.Warn("wire: encode reply failed", zap.Error(err))
		return
	}
	p.reply(identity, frame.RequestID, CommandReply, ContentTypeJSON, body)
}

func (p *Peer) safeDispatch(ctx context.Context, env *Envelope) (payload Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("wire: dispatcher panic: %v", r)
		}
	}()
	return p.dispatcher.Dispatch(ctx, env)
}

func (p *Peer) reply(identity []byte, reqID uuid.UUID, cmd Command, ct ContentType, body []byte) {
	frame := &Frame{Command: cmd, ContentType: ct, RequestID: reqID, Service: p.cfg.ServiceName, Body: body}
	parts := append([][]byte{identity}, frame.Encode()...)
	if _, err := p.router.SendMessage(parts); err != nil {
		p.logger.Warn("wire: reply send failed")
	}
}

func (p *Peer) replyError(identity []byte, reqID uuid.UUID, code, message string) {
	env := &Envelope{Payload: Payload{Kind: KindError, Error: &ErrorPayload{Code: code, Message: message}}}
	body, err := EncodeBody(env, ContentTypeJSON)
	if err != nil {
		return
	}
	p.reply(identity, reqID, CommandError, ContentTypeJSON, body)
}

// Close releases both sockets.
func (p *Peer) Close() error {
	err1 := p.router.Close()
	err2 := p.pub.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
