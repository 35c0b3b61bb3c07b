package garden

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"

	"github.com/tobert/hootenanny/log"
	"github.com/tobert/hootenanny/wire"
)

// KernelConfig configures the four bound sockets and tick behavior.
type KernelConfig struct {
	ControlEndpoint   string
	ShellEndpoint     string
	IOPubEndpoint     string
	HeartbeatEndpoint string
	ServiceName       string
}

// Dispatcher handles one decoded ToolRequest/LuaEval/JobX payload and
// returns the Payload to reply with.
type Dispatcher interface {
	Dispatch(ctx context.Context, env *wire.Envelope) (wire.Payload, error)
}

// Kernel runs the chaosgarden 4-socket protocol: control and shell are
// ROUTER sockets handling Request/Reply, iopub is a PUB socket for
// broadcast events, heartbeat is a ROUTER socket answering liveness pings.
// Each incoming frame is routed, decoded, dispatched, and replied to;
// dispatch errors are caught and returned as an Error frame — dispatch
// never unwinds into the receive loop.
type Kernel struct {
	cfg    KernelConfig
	logger log.Logger

	control   *zmq.Socket
	shell     *zmq.Socket
	iopub     *zmq.Socket
	heartbeat *zmq.Socket

	store      *Store
	dispatcher Dispatcher
}

// NewKernel binds the four sockets and wires them to store/dispatcher.
func NewKernel(cfg KernelConfig, store *Store, dispatcher Dispatcher, logger log.Logger) (*Kernel, error) {
	k := &Kernel{cfg: cfg, logger: logger, store: store, dispatcher: dispatcher}

	var err error
	if k.control, err = bindRouter(cfg.ControlEndpoint); err != nil {
		return nil, fmt.Errorf("garden: bind control: %w", err)
	}
	if k.shell, err = bindRouter(cfg.ShellEndpoint); err != nil {
		return nil, fmt.Errorf("garden: bind shell: %w", err)
	}
	if k.iopub, err = bindPub(cfg.IOPubEndpoint); err != nil {
		return nil, fmt.Errorf("garden: bind iopub: %w", err)
	}
	if k.heartbeat, err = bindRouter(cfg.HeartbeatEndpoint); err != nil {
		return nil, fmt.Errorf("garden: bind heartbeat: %w", err)
	}
	return k, nil
}

func bindRouter(endpoint string) (*zmq.Socket, error) {
	sock, err := zmq.NewSocket(zmq.ROUTER)
	if err != nil {
		return nil, err
	}
	if err := sock.SetRouterMandatory(1); err != nil {
		return nil, err
	}
	if err := sock.SetLinger(0); err != nil {
		return nil, err
	}
	if err := sock.Bind(endpoint); err != nil {
		return nil, err
	}
	return sock, nil
}

func bindPub(endpoint string) (*zmq.Socket, error) {
	sock, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, err
	}
	if err := sock.SetLinger(0); err != nil {
		return nil, err
	}
	if err := sock.Bind(endpoint); err != nil {
		return nil, err
	}
	return sock, nil
}

// RunControl serves the control (priority) socket until ctx is cancelled.
// Control requests preempt shell requests by running on their own
// goroutine rather than sharing the shell loop.
func (k *Kernel) RunControl(ctx context.Context) {
	k.serveRouter(ctx, k.control, "control")
}

// RunShell serves the shell (normal command) socket until ctx is
// cancelled.
func (k *Kernel) RunShell(ctx context.Context) {
	k.serveRouter(ctx, k.shell, "shell")
}

// RunHeartbeat answers liveness pings with a zero-body Heartbeat frame
// until ctx is cancelled.
func (k *Kernel) RunHeartbeat(ctx context.Context) {
	_ = k.heartbeat.SetRcvtimeo(200 * time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		frames, err := k.heartbeat.RecvMessageBytes(0)
		if err != nil {
			continue
		}
		if len(frames) < 2 {
			continue
		}
		identity := frames[0]
		reply := wire.Frame{
			Command:     wire.CommandHeartbeat,
			ContentType: wire.ContentTypeEmpty,
			RequestID:   wire.NewRequestID(),
			Service:     k.cfg.ServiceName,
		}
		parts := append([][]byte{identity}, reply.Encode()...)
		if _, err := k.heartbeat.SendMessage(parts); err != nil {
			k.logger.Warn("garden: heartbeat send failed")
		}
	}
}

// Publish encodes an envelope and broadcasts it on iopub under topic.
func (k *Kernel) Publish(topic string, env *wire.Envelope) error {
	body, err := wire.EncodeBody(env, wire.ContentTypeJSON)
	if err != nil {
		return fmt.Errorf("garden: encode broadcast: %w", err)
	}
	_, err = k.iopub.SendMessage(topic, body)
	return err
}

func (k *Kernel) serveRouter(ctx context.Context, sock *zmq.Socket, name string) {
	_ = sock.SetRcvtimeo(200 * time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		frames, err := sock.RecvMessageBytes(0)
		if err != nil {
			continue
		}
		if len(frames) < 1 {
			continue
		}
		identity := frames[0]
		k.handleFrame(ctx, sock, name, identity, frames[1:])
	}
}

func (k *Kernel) handleFrame(ctx context.Context, sock *zmq.Socket, socketName string, identity []byte, rest [][]byte) {
	frame, err := wire.Parse(rest)
	if err != nil {
		k.logger.Warn("garden: dropping unparseable frame", zap.String("socket", socketName))
		return
	}

	env, err := wire.DecodeBody(frame.ContentType, frame.Body)
	if err != nil {
		k.replyError(sock, identity, frame.RequestID, "decode_error", err.Error())
		return
	}

	payload, dispatchErr := k.safeDispatch(ctx, env)
	if dispatchErr != nil {
		k.replyError(sock, identity, frame.RequestID, "dispatch_error", dispatchErr.Error())
		return
	}

	reply := wire.Envelope{ID: env.ID, Traceparent: env.Traceparent, Payload: payload}
	k.replyOK(sock, identity, frame.RequestID, &reply)
}

// safeDispatch recovers from a panicking Dispatcher: dispatch must never
// unwind into the receive loop.
func (k *Kernel) safeDispatch(ctx context.Context, env *wire.Envelope) (payload wire.Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("garden: dispatcher panic: %v", r)
		}
	}()
	return k.dispatcher.Dispatch(ctx, env)
}

func (k *Kernel) replyOK(sock *zmq.Socket, identity []byte, reqID uuid.UUID, env *wire.Envelope) {
	body, err := wire.EncodeBody(env, wire.ContentTypeJSON)
	if err != nil {
		k.logger.Warn("garden: encode reply failed")
		return
	}
	frame := wire.Frame{
		Command:     wire.CommandReply,
		ContentType: wire.ContentTypeJSON,
		RequestID:   reqID,
		Service:     k.cfg.ServiceName,
		Body:        body,
	}
	parts := append([][]byte{identity}, frame.Encode()...)
	if _, err := sock.SendMessage(parts); err != nil {
		k.logger.Warn("garden: reply send failed")
	}
}

func (k *Kernel) replyError(sock *zmq.Socket, identity []byte, reqID uuid.UUID, code, message string) {
	env := wire.Envelope{ID: reqID, Payload: wire.Payload{
		Kind:  wire.KindError,
		Error: &wire.ErrorPayload{Code: code, Message: message},
	}}
	body, err := wire.EncodeBody(&env, wire.ContentTypeJSON)
	if err != nil {
		return
	}
	frame := wire.Frame{
		Command:     wire.CommandError,
		ContentType: wire.ContentTypeJSON,
		RequestID:   reqID,
		Service:     k.cfg.ServiceName,
		Body:        body,
	}
	parts := append([][]byte{identity}, frame.Encode()...)
	_, _ = sock.SendMessage(parts)
}

// Close releases all four sockets.
func (k *Kernel) Close() error {
	var firstErr error
	for _, s := range []*zmq.Socket{k.control, k.shell, k.iopub, k.heartbeat} {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
