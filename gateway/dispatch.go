package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tobert/hootenanny/jobstore"
	"github.com/tobert/hootenanny/wire"
)

// CallToolResult is the MCP tools/call response shape: a list of content
// blocks plus an isError flag, per the MCP 2025-06-18 surface spec.md §6
// names.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is one block of a CallToolResult; only "text" is produced by
// this gateway.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textResult(v interface{}) CallToolResult {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return CallToolResult{Content: []ContentBlock{{Type: "text", Text: string(body)}}}
}

func errorResult(message string) CallToolResult {
	return CallToolResult{IsError: true, Content: []ContentBlock{{Type: "text", Text: message}}}
}

// Dispatcher converts an MCP tools/call into a HOOT01 request against a
// backend peer, choosing Sync/Async*/FireAndForget handling per the tool's
// TimingClass.
type Dispatcher struct {
	client     *wire.Client
	jobs       *jobstore.Store
	classifier *Classifier
}

// NewDispatcher wires a Lazy Pirate client, the process-local job store, and
// a timing classifier together.
func NewDispatcher(client *wire.Client, jobs *jobstore.Store, classifier *Classifier) *Dispatcher {
	return &Dispatcher{client: client, jobs: jobs, classifier: classifier}
}

// Call executes tool with args, extracted from the MCP request, stamping
// traceparent onto the outgoing envelope if present.
func (d *Dispatcher) Call(ctx context.Context, tool string, args json.RawMessage, traceparent string) (CallToolResult, error) {
	class := d.classifier.ClassOf(tool)
	switch class {
	case FireAndForget:
		return d.fireAndForget(ctx, tool, args, traceparent)
	case AsyncLong:
		return d.asyncLong(ctx, tool, args, traceparent)
	case AsyncShort, AsyncMedium:
		return d.asyncInline(ctx, tool, args, traceparent, class.PollTimeout())
	default:
		return d.sync(ctx, tool, args, traceparent)
	}
}

func (d *Dispatcher) sync(ctx context.Context, tool string, args json.RawMessage, traceparent string) (CallToolResult, error) {
	reply, err := d.request(ctx, tool, args, traceparent)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return toolReplyToResult(reply), nil
}

func (d *Dispatcher) fireAndForget(ctx context.Context, tool string, args json.RawMessage, traceparent string) (CallToolResult, error) {
	_, err := d.request(ctx, tool, args, traceparent)
	if err != nil {
		// FireAndForget errors are discarded: they are neither returned to
		// the caller nor logged or broadcast; the ack is unconditional.
		return textResult(map[string]string{"status": "accepted"}), nil
	}
	return textResult(map[string]string{"status": "accepted"}), nil
}

func (d *Dispatcher) asyncLong(ctx context.Context, tool string, args json.RawMessage, traceparent string) (CallToolResult, error) {
	id, jobCtx := d.jobs.CreateJob(ctx, tool)
	go d.runJob(jobCtx, id, tool, args, traceparent)
	return textResult(map[string]string{"job_id": string(id)}), nil
}

func (d *Dispatcher) asyncInline(ctx context.Context, tool string, args json.RawMessage, traceparent string, budget time.Duration) (CallToolResult, error) {
	id, jobCtx := d.jobs.CreateJob(ctx, tool)
	done := make(chan struct{})
	go func() {
		d.runJob(jobCtx, id, tool, args, traceparent)
		close(done)
	}()

	select {
	case <-done:
		info, err := d.jobs.Get(id)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		if info.Status == jobstore.StatusFailed {
			return errorResult(info.Error), nil
		}
		var result interface{}
		_ = json.Unmarshal(info.Result, &result)
		return textResult(result), nil
	case <-time.After(budget):
		return textResult(map[string]string{"job_id": string(id)}), nil
	case <-ctx.Done():
		return errorResult(ctx.Err().Error()), nil
	}
}

func (d *Dispatcher) runJob(ctx context.Context, id jobstore.ID, tool string, args json.RawMessage, traceparent string) {
	if err := d.jobs.MarkRunning(id); err != nil {
		return
	}
	reply, err := d.request(ctx, tool, args, traceparent)
	if err != nil {
		_ = d.jobs.MarkFailed(id, err.Error())
		return
	}
	if reply.Payload.Kind == wire.KindError {
		_ = d.jobs.MarkFailed(id, reply.Payload.Error.Message)
		return
	}
	var result json.RawMessage
	if reply.Payload.TypedResponse != nil {
		result = reply.Payload.TypedResponse.Result
	}
	_ = d.jobs.MarkComplete(id, result)
}

func (d *Dispatcher) request(ctx context.Context, tool string, args json.RawMessage, traceparent string) (*wire.Envelope, error) {
	payload := wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: tool, Args: args},
	}
	reply, err := d.client.RequestWithRetry(wire.WithTraceparent(ctx, traceparent), payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: dispatch %s: %w", tool, err)
	}
	return reply, nil
}

func toolReplyToResult(env *wire.Envelope) CallToolResult {
	if env.Payload.Kind == wire.KindError {
		return errorResult(env.Payload.Error.Message)
	}
	if env.Payload.TypedResponse != nil {
		var v interface{}
		_ = json.Unmarshal(env.Payload.TypedResponse.Result, &v)
		return textResult(v)
	}
	return textResult(map[string]string{"status": "ok"})
}
