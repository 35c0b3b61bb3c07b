package wire

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// PayloadKind discriminates the closed set of Envelope payload variants.
// Unknown kinds are rejected at decode time; servers never guess.
type PayloadKind string

const (
	KindPing          PayloadKind = "ping"
	KindPong          PayloadKind = "pong"
	KindHeartbeat     PayloadKind = "heartbeat"
	KindReady         PayloadKind = "ready"
	KindToolRequest   PayloadKind = "tool_request"
	KindTypedResponse PayloadKind = "typed_response"
	KindError         PayloadKind = "error"
	KindLuaEval       PayloadKind = "lua_eval"
	KindJobStatus     PayloadKind = "job_status"
	KindJobList       PayloadKind = "job_list"
	KindJobCancel     PayloadKind = "job_cancel"
	KindJobPoll       PayloadKind = "job_poll"
	KindBroadcast     PayloadKind = "broadcast"
	KindSuccess       PayloadKind = "success"
)

// JobPollMode selects whether JobPoll waits for any or all of its ids.
type JobPollMode string

const (
	JobPollAny JobPollMode = "any"
	JobPollAll JobPollMode = "all"
)

// Payload is the closed tagged union carried by a Request/Reply Envelope.
// Exactly one of the variant fields is populated, selected by Kind. This
// mirrors the source's Rust enum as "a discriminant field + struct per
// variant" per spec.md's guidance for languages without sum types.
type Payload struct {
	Kind PayloadKind `json:"kind"`

	Pong          *PongPayload          `json:"pong,omitempty"`
	ToolRequest   *ToolRequestPayload   `json:"tool_request,omitempty"`
	TypedResponse *TypedResponsePayload `json:"typed_response,omitempty"`
	Error         *ErrorPayload         `json:"error,omitempty"`
	LuaEval       *LuaEvalPayload       `json:"lua_eval,omitempty"`
	JobStatus     *JobStatusPayload     `json:"job_status,omitempty"`
	JobList       *JobListPayload       `json:"job_list,omitempty"`
	JobCancel     *JobCancelPayload     `json:"job_cancel,omitempty"`
	JobPoll       *JobPollPayload       `json:"job_poll,omitempty"`
	Broadcast     *BroadcastPayload     `json:"broadcast,omitempty"`
	Success       *SuccessPayload       `json:"success,omitempty"`
}

type PongPayload struct {
	WorkerID   string  `json:"worker_id"`
	UptimeSecs float64 `json:"uptime_secs"`
}

// ToolRequestPayload names a tool and carries its JSON-encoded arguments;
// the concrete argument shape is tool-specific and decoded by the handler.
type ToolRequestPayload struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args,omitempty"`
}

type TypedResponsePayload struct {
	Result json.RawMessage `json:"result"`
}

// ErrorPayload is the machine-readable error carried on CommandError frames
// and inside Payload{Kind: KindError} bodies.
type ErrorPayload struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

func (e *ErrorPayload) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

type LuaEvalPayload struct {
	Code   string          `json:"code"`
	Params json.RawMessage `json:"params,omitempty"`
}

type JobStatusPayload struct {
	JobID string `json:"job_id"`
}

type JobListPayload struct {
	Status string `json:"status,omitempty"`
}

type JobCancelPayload struct {
	JobID string `json:"job_id"`
}

type JobPollPayload struct {
	IDs       []string    `json:"ids"`
	TimeoutMs int64       `json:"timeout_ms"`
	Mode      JobPollMode `json:"mode"`
}

// BroadcastPayload carries a dotted topic (job.*, artifact.*, transport.*,
// beat.*, marker.*, log.*, config.*, shutdown) and its JSON body.
type BroadcastPayload struct {
	Topic string          `json:"topic"`
	Body  json.RawMessage `json:"body"`
}

type SuccessPayload struct {
	Result json.RawMessage `json:"result,omitempty"`
}

// Envelope is the body of every Request/Reply HOOT01 frame.
type Envelope struct {
	ID          uuid.UUID `json:"id"`
	Traceparent string    `json:"traceparent,omitempty"`
	Payload     Payload   `json:"payload"`
}

// EncodeBody serializes an Envelope per the given content-type. Only JSON
// and MsgPack are supported; CapnProto is accepted on the wire (the
// content-type byte round-trips) but this port never produces it.
func EncodeBody(env *Envelope, ct ContentType) ([]byte, error) {
	switch ct {
	case ContentTypeJSON:
		return json.Marshal(env)
	case ContentTypeMsgPack:
		return msgpack.Marshal(env)
	default:
		return nil, fmt.Errorf("wire: cannot encode envelope with content-type %v", ct)
	}
}

// DecodeBody parses a Frame's body into an Envelope per its content-type,
// then validates that Payload.Kind names a known variant with a non-nil
// matching field. Unknown or malformed payloads are rejected, never guessed.
func DecodeBody(ct ContentType, body []byte) (*Envelope, error) {
	var env Envelope
	switch ct {
	case ContentTypeJSON:
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("wire: decode json envelope: %w", err)
		}
	case ContentTypeMsgPack:
		if err := msgpack.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("wire: decode msgpack envelope: %w", err)
		}
	default:
		return nil, fmt.Errorf("wire: cannot decode envelope with content-type %v", ct)
	}
	if err := validatePayload(&env.Payload); err != nil {
		return nil, err
	}
	return &env, nil
}

func validatePayload(p *Payload) error {
	switch p.Kind {
	case KindPing, KindHeartbeat, KindReady:
		return nil // carry no variant data
	case KindPong:
		if p.Pong == nil {
			return fmt.Errorf("wire: payload kind %q missing pong data", p.Kind)
		}
	case KindToolRequest:
		if p.ToolRequest == nil {
			return fmt.Errorf("wire: payload kind %q missing tool_request data", p.Kind)
		}
	case KindTypedResponse:
		if p.TypedResponse == nil {
			return fmt.Errorf("wire: payload kind %q missing typed_response data", p.Kind)
		}
	case KindError:
		if p.Error == nil {
			return fmt.Errorf("wire: payload kind %q missing error data", p.Kind)
		}
	case KindLuaEval:
		if p.LuaEval == nil {
			return fmt.Errorf("wire: payload kind %q missing lua_eval data", p.Kind)
		}
	case KindJobStatus:
		if p.JobStatus == nil {
			return fmt.Errorf("wire: payload kind %q missing job_status data", p.Kind)
		}
	case KindJobList:
		if p.JobList == nil {
			return fmt.Errorf("wire: payload kind %q missing job_list data", p.Kind)
		}
	case KindJobCancel:
		if p.JobCancel == nil {
			return fmt.Errorf("wire: payload kind %q missing job_cancel data", p.Kind)
		}
	case KindJobPoll:
		if p.JobPoll == nil {
			return fmt.Errorf("wire: payload kind %q missing job_poll data", p.Kind)
		}
	case KindBroadcast:
		if p.Broadcast == nil {
			return fmt.Errorf("wire: payload kind %q missing broadcast data", p.Kind)
		}
	case KindSuccess:
		if p.Success == nil {
			return fmt.Errorf("wire: payload kind %q missing success data", p.Kind)
		}
	default:
		return fmt.Errorf("wire: unknown payload kind %q", p.Kind)
	}
	return nil
}
