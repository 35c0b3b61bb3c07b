// Package hoot implements the hootenanny orchestrator peer: the service
// that answers CAS tool calls and job-lifecycle requests locally and
// forwards the transport/scheduling tools listed in gardenTools to the
// chaosgarden peer. It has no artifact tools.
package hoot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tobert/hootenanny/cas"
	"github.com/tobert/hootenanny/jobstore"
	"github.com/tobert/hootenanny/wire"
)

// gardenTools names every tool this dispatcher forwards verbatim to the
// chaosgarden peer rather than answering locally.
var gardenTools = map[string]bool{
	"region.create":        true,
	"region.move":          true,
	"region.tombstone":     true,
	"latent.approve":       true,
	"latent.reject":        true,
	"region.query":         true,
	"transport.snapshot":   true,
	"participant.register": true,
}

// toolDescriptor is the minimal MCP tool shape served by "_list_tools";
// encoded with the lowercase field names mcp.Tool expects on decode.
type toolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// localToolCatalog lists the tools this dispatcher answers without
// forwarding to chaosgarden.
var localToolCatalog = []toolDescriptor{
	{Name: "cas.store", Description: "store content in the content-addressable store"},
	{Name: "cas.retrieve", Description: "retrieve content by hash"},
	{Name: "cas.inspect", Description: "inspect stored content's metadata"},
}

// Dispatcher implements wire.PeerDispatcher against a CAS store, a job
// store, and a forwarding Client pointed at chaosgarden. Tool requests
// naming a garden tool are relayed as-is, the cas.* tools are answered
// locally, and any other tool name is an error; no tool call creates a job.
type Dispatcher struct {
	cas    cas.Store
	jobs   *jobstore.Store
	garden *wire.Client
}

// NewDispatcher wires a Dispatcher to its three collaborators. garden may
// be nil in configurations that run hootenanny without a chaosgarden peer;
// forwarded tool requests then fail with ErrNoGardenPeer.
func NewDispatcher(store cas.Store, jobs *jobstore.Store, garden *wire.Client) *Dispatcher {
	return &Dispatcher{cas: store, jobs: jobs, garden: garden}
}

// ErrNoGardenPeer is returned when a transport/scheduling tool is called
// but no chaosgarden Client was configured.
var ErrNoGardenPeer = fmt.Errorf("hoot: no chaosgarden peer configured")

// Dispatch implements wire.PeerDispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, env *wire.Envelope) (wire.Payload, error) {
	switch env.Payload.Kind {
	case wire.KindPing:
		return wire.Payload{Kind: wire.KindPong, Pong: &wire.PongPayload{WorkerID: "hootenanny"}}, nil
	case wire.KindToolRequest:
		return d.dispatchTool(ctx, env)
	case wire.KindJobStatus:
		return d.jobStatus(env.Payload.JobStatus)
	case wire.KindJobList:
		return d.jobList(env.Payload.JobList)
	case wire.KindJobCancel:
		return d.jobCancel(env.Payload.JobCancel)
	default:
		return wire.Payload{}, fmt.Errorf("hoot: dispatcher does not handle payload kind %q", env.Payload.Kind)
	}
}

func (d *Dispatcher) dispatchTool(ctx context.Context, env *wire.Envelope) (wire.Payload, error) {
	req := env.Payload.ToolRequest
	if req.Tool == "_list_tools" {
		return d.listTools(ctx, env)
	}
	if gardenTools[req.Tool] {
		return d.forwardToGarden(ctx, env)
	}
	switch req.Tool {
	case "cas.store":
		return d.casStore(req.Args)
	case "cas.retrieve":
		return d.casRetrieve(req.Args)
	case "cas.inspect":
		return d.casInspect(req.Args)
	default:
		return wire.Payload{}, fmt.Errorf("hoot: unknown tool %q", req.Tool)
	}
}

// listTools answers "_list_tools" with the tools handled locally, plus
// whatever chaosgarden itself reports when a garden peer is configured.
func (d *Dispatcher) listTools(ctx context.Context, env *wire.Envelope) (wire.Payload, error) {
	tools := append([]toolDescriptor(nil), localToolCatalog...)
	if d.garden != nil {
		reply, err := d.forwardToGarden(ctx, env)
		if err == nil && reply.TypedResponse != nil {
			var gardenCatalog []toolDescriptor
			if err := json.Unmarshal(reply.TypedResponse.Result, &gardenCatalog); err == nil {
				tools = append(tools, gardenCatalog...)
			}
		}
	}
	return typedResponse(tools)
}

// forwardToGarden relays a ToolRequest to chaosgarden unchanged, carrying
// the caller's traceparent through the forwarded request's context.
func (d *Dispatcher) forwardToGarden(ctx context.Context, env *wire.Envelope) (wire.Payload, error) {
	if d.garden == nil {
		return wire.Payload{}, ErrNoGardenPeer
	}
	fwdCtx := wire.WithTraceparent(ctx, env.Traceparent)
	reply, err := d.garden.RequestWithRetry(fwdCtx, env.Payload)
	if err != nil {
		return wire.Payload{}, fmt.Errorf("hoot: forward to chaosgarden: %w", err)
	}
	return reply.Payload, nil
}

type casStoreArgs struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

func (d *Dispatcher) casStore(raw json.RawMessage) (wire.Payload, error) {
	var args casStoreArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return wire.Payload{}, err
	}
	hash, err := d.cas.Store(args.Data, args.MimeType)
	if err != nil {
		return wire.Payload{}, err
	}
	return typedResponse(map[string]string{"hash": string(hash)})
}

type casHashArgs struct {
	Hash string `json:"hash"`
}

func (d *Dispatcher) casRetrieve(raw json.RawMessage) (wire.Payload, error) {
	var args casHashArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return wire.Payload{}, err
	}
	data, err := d.cas.Retrieve(cas.ContentHash(args.Hash))
	if err != nil {
		return wire.Payload{}, err
	}
	return typedResponse(map[string]interface{}{"data": data})
}

func (d *Dispatcher) casInspect(raw json.RawMessage) (wire.Payload, error) {
	var args casHashArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return wire.Payload{}, err
	}
	ref, err := d.cas.Inspect(cas.ContentHash(args.Hash))
	if err != nil {
		return wire.Payload{}, err
	}
	return typedResponse(ref)
}

func (d *Dispatcher) jobStatus(p *wire.JobStatusPayload) (wire.Payload, error) {
	info, err := d.jobs.Get(jobstore.ID(p.JobID))
	if err != nil {
		return wire.Payload{}, err
	}
	return typedResponse(info)
}

func (d *Dispatcher) jobList(p *wire.JobListPayload) (wire.Payload, error) {
	var filter *jobstore.Status
	if p.Status != "" {
		st, err := parseStatus(p.Status)
		if err != nil {
			return wire.Payload{}, err
		}
		filter = &st
	}
	return typedResponse(d.jobs.List(filter))
}

func (d *Dispatcher) jobCancel(p *wire.JobCancelPayload) (wire.Payload, error) {
	if err := d.jobs.Cancel(jobstore.ID(p.JobID)); err != nil {
		return wire.Payload{}, err
	}
	return wire.Payload{Kind: wire.KindSuccess, Success: &wire.SuccessPayload{}}, nil
}

func parseStatus(s string) (jobstore.Status, error) {
	switch s {
	case "pending":
		return jobstore.StatusPending, nil
	case "running":
		return jobstore.StatusRunning, nil
	case "complete":
		return jobstore.StatusComplete, nil
	case "failed":
		return jobstore.StatusFailed, nil
	case "cancelled":
		return jobstore.StatusCancelled, nil
	default:
		return 0, fmt.Errorf("hoot: unknown job status %q", s)
	}
}

func typedResponse(v interface{}) (wire.Payload, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return wire.Payload{}, err
	}
	return wire.Payload{Kind: wire.KindTypedResponse, TypedResponse: &wire.TypedResponsePayload{Result: body}}, nil
}
