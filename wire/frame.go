// Package wire implements the HOOT01 framed protocol carried over ZMQ
// ROUTER/DEALER sockets: magic + version, command byte, content-type byte,
// request id, service name, traceparent, and an opaque body.
package wire

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Magic is the fixed 6-byte protocol identifier carried in frame 1.
var Magic = []byte("HOOT01")

// Command identifies the purpose of a HOOT01 message (frame 2).
type Command byte

const (
	CommandRequest   Command = 0x01
	CommandReply     Command = 0x02
	CommandHeartbeat Command = 0x03
	CommandReady     Command = 0x04
	CommandError     Command = 0x05
)

func (c Command) valid() bool {
	switch c {
	case CommandRequest, CommandReply, CommandHeartbeat, CommandReady, CommandError:
		return true
	default:
		return false
	}
}

func (c Command) String() string {
	switch c {
	case CommandRequest:
		return "Request"
	case CommandReply:
		return "Reply"
	case CommandHeartbeat:
		return "Heartbeat"
	case CommandReady:
		return "Ready"
	case CommandError:
		return "Error"
	default:
		return fmt.Sprintf("Command(0x%02x)", byte(c))
	}
}

// ContentType identifies how the body (frame 7) is encoded.
type ContentType byte

const (
	ContentTypeEmpty     ContentType = 0x00
	ContentTypeCapnProto ContentType = 0x01
	ContentTypeMsgPack   ContentType = 0x02
	ContentTypeJSON      ContentType = 0x03
)

func (t ContentType) valid() bool {
	switch t {
	case ContentTypeEmpty, ContentTypeCapnProto, ContentTypeMsgPack, ContentTypeJSON:
		return true
	default:
		return false
	}
}

// FrameErrorKind enumerates the ways a HOOT01 message can fail to parse.
type FrameErrorKind int

const (
	ErrKindBadMagic FrameErrorKind = iota
	ErrKindUnknownCommand
	ErrKindUnknownContentType
	ErrKindBadRequestID
	ErrKindTooFewFrames
	ErrKindBodyWhereNoneExpected
)

// FrameError reports why Parse rejected a multipart message.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
}

func (e *FrameError) Error() string { return e.Msg }

func frameErr(kind FrameErrorKind, msg string) error {
	return &FrameError{Kind: kind, Msg: msg}
}

// Is allows errors.Is(err, wire.ErrBadMagic) style comparisons against a
// FrameError of the matching kind, ignoring message text.
func (e *FrameError) Is(target error) bool {
	var other *FrameError
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// Sentinel FrameErrors usable with errors.Is; only Kind is compared.
var (
	ErrBadMagic              = &FrameError{Kind: ErrKindBadMagic}
	ErrUnknownCommand        = &FrameError{Kind: ErrKindUnknownCommand}
	ErrUnknownContentType    = &FrameError{Kind: ErrKindUnknownContentType}
	ErrBadRequestID          = &FrameError{Kind: ErrKindBadRequestID}
	ErrTooFewFrames          = &FrameError{Kind: ErrKindTooFewFrames}
	ErrBodyWhereNoneExpected = &FrameError{Kind: ErrKindBodyWhereNoneExpected}
)

// minFrames is magic+cmd+contenttype+reqid+service+traceparent; body is
// optional (frame 7 may be absent entirely, not just empty).
const minFrames = 6

// Frame is the parsed, in-memory form of a HOOT01 multipart message.
// Routing layers (ROUTER sockets forwarding by service name) may read
// Command, ContentType, RequestID, and Service without touching Body.
type Frame struct {
	Command     Command
	ContentType ContentType
	RequestID   uuid.UUID
	Service     string
	Traceparent string
	Body        []byte
}

// Parse decodes a ZMQ multipart message (one []byte per frame) into a
// Frame, validating every fixed field before looking at Body.
func Parse(parts [][]byte) (*Frame, error) {
	if len(parts) < minFrames {
		return nil, frameErr(ErrKindTooFewFrames, fmt.Sprintf("HOOT01: expected at least %d frames, got %d", minFrames, len(parts)))
	}
	if !bytes.Equal(parts[0], Magic) {
		return nil, frameErr(ErrKindBadMagic, "HOOT01: bad magic/version frame")
	}
	if len(parts[1]) != 1 || !Command(parts[1][0]).valid() {
		return nil, frameErr(ErrKindUnknownCommand, "HOOT01: unknown command byte")
	}
	cmd := Command(parts[1][0])

	if len(parts[2]) != 1 || !ContentType(parts[2][0]).valid() {
		return nil, frameErr(ErrKindUnknownContentType, "HOOT01: unknown content-type byte")
	}
	ct := ContentType(parts[2][0])

	if len(parts[3]) != 16 {
		return nil, frameErr(ErrKindBadRequestID, "HOOT01: request id must be 16 bytes")
	}
	id, err := uuid.FromBytes(parts[3])
	if err != nil {
		return nil, frameErr(ErrKindBadRequestID, "HOOT01: request id is not a valid UUID")
	}

	service := string(parts[4])
	traceparent := string(parts[5])

	var body []byte
	if len(parts) > minFrames {
		body = parts[6]
	}
	if ct == ContentTypeEmpty && len(body) != 0 {
		return nil, frameErr(ErrKindBodyWhereNoneExpected, "HOOT01: Empty content-type must not carry a body")
	}

	return &Frame{
		Command:     cmd,
		ContentType: ct,
		RequestID:   id,
		Service:     service,
		Traceparent: traceparent,
		Body:        body,
	}, nil
}

// Encode renders a Frame back into ZMQ multipart form. A body frame is
// written whenever the content-type is not Empty or the body is non-empty,
// so Parse(Encode(f)) reproduces f's fields, but Encode(Parse(p)) can differ
// from p: a bodiless non-Empty message gains an empty body frame, an empty
// body frame under Empty is dropped, and frames past the seventh are lost.
func (f *Frame) Encode() [][]byte {
	idBytes, _ := f.RequestID.MarshalBinary()
	parts := [][]byte{
		Magic,
		{byte(f.Command)},
		{byte(f.ContentType)},
		idBytes,
		[]byte(f.Service),
		[]byte(f.Traceparent),
	}
	if f.ContentType != ContentTypeEmpty || len(f.Body) > 0 {
		parts = append(parts, f.Body)
	}
	return parts
}

// NewRequestID generates a fresh correlation id for a new request.
func NewRequestID() uuid.UUID { return uuid.New() }
