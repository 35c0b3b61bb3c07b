package garden

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tobert/hootenanny/wire"
)

// ToolDispatcher implements garden.Dispatcher against a Store: it decodes a
// ToolRequestPayload's JSON args, applies the named operation through
// Store.SubmitSync, and encodes the resulting snapshot (or sub-slice of
// it) as a TypedResponse.
type ToolDispatcher struct {
	store *Store
}

// NewToolDispatcher wires a ToolDispatcher to store.
func NewToolDispatcher(store *Store) *ToolDispatcher {
	return &ToolDispatcher{store: store}
}

// Dispatch implements Dispatcher.
func (d *ToolDispatcher) Dispatch(ctx context.Context, env *wire.Envelope) (wire.Payload, error) {
	switch env.Payload.Kind {
	case wire.KindPing:
		return wire.Payload{Kind: wire.KindPong, Pong: &wire.PongPayload{WorkerID: "chaosgarden"}}, nil
	case wire.KindToolRequest:
		return d.dispatchTool(env.Payload.ToolRequest)
	default:
		return wire.Payload{}, fmt.Errorf("garden: dispatcher does not handle payload kind %q", env.Payload.Kind)
	}
}

// gardenToolCatalog lists every tool name this dispatcher answers, used to
// serve the "_list_tools" reflection call.
var gardenToolCatalog = []toolDescriptor{
	{Name: "region.create", Description: "create a region on the timeline, optionally Latent"},
	{Name: "region.move", Description: "move a region to a new beat position"},
	{Name: "region.tombstone", Description: "tombstone a region"},
	{Name: "latent.approve", Description: "approve a Resolved Latent region"},
	{Name: "latent.reject", Description: "reject a non-terminal Latent region"},
	{Name: "region.query", Description: "query regions by tag, playability, or beat range"},
	{Name: "transport.snapshot", Description: "snapshot the current garden state"},
	{Name: "participant.register", Description: "register a participant's capabilities"},
}

func (d *ToolDispatcher) dispatchTool(req *wire.ToolRequestPayload) (wire.Payload, error) {
	switch req.Tool {
	case "_list_tools":
		return typedResponse(gardenToolCatalog)
	case "region.create":
		return d.regionCreate(req.Args)
	case "region.move":
		return d.regionMove(req.Args)
	case "region.tombstone":
		return d.regionTombstone(req.Args)
	case "latent.approve":
		return d.latentApprove(req.Args)
	case "latent.reject":
		return d.latentReject(req.Args)
	case "region.query":
		return d.regionQuery(req.Args)
	case "transport.snapshot":
		return typedResponse(d.store.Snapshot())
	case "participant.register":
		return d.participantRegister(req.Args)
	default:
		return wire.Payload{}, fmt.Errorf("garden: unknown tool %q", req.Tool)
	}
}

// toolDescriptor is the minimal MCP tool shape served by "_list_tools";
// encoded with the lowercase field names mcp.Tool expects on decode.
type toolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type participantRegisterArgs struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Capabilities []struct {
		URI        CapabilityURI              `json:"uri"`
		Parameters map[string]ConstraintValue `json:"parameters,omitempty"`
	} `json:"capabilities,omitempty"`
}

func (d *ToolDispatcher) participantRegister(raw json.RawMessage) (wire.Payload, error) {
	var args participantRegisterArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return wire.Payload{}, err
	}
	kind := ParticipantHuman
	if args.Kind == "model" {
		kind = ParticipantModel
	}
	caps := make([]Capability, 0, len(args.Capabilities))
	for _, c := range args.Capabilities {
		caps = append(caps, Capability{URI: c.URI, Parameters: c.Parameters})
	}
	d.store.SubmitSync(func(state *GardenState) {
		RegisterParticipant(state, Participant{ID: args.ID, Kind: kind, Capabilities: caps})
	})
	return typedResponse(map[string]string{"status": "registered"})
}

type regionCreateArgs struct {
	Position Beat     `json:"position"`
	Duration Beat     `json:"duration"`
	Name     string   `json:"name"`
	Tags     []string `json:"tags,omitempty"`
	Latent   *struct {
		Tool string `json:"tool"`
	} `json:"latent,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}

func (d *ToolDispatcher) regionCreate(raw json.RawMessage) (wire.Payload, error) {
	var args regionCreateArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return wire.Payload{}, err
	}

	var behavior Behavior
	if args.Latent != nil {
		behavior = Behavior{Kind: BehaviorLatent, Latent: &LatentBehavior{Tool: args.Latent.Tool, Status: LatentPending}}
	} else {
		behavior = Behavior{Kind: BehaviorPlayContent, PlayContent: &PlayContentBehavior{ContentHash: args.ContentHash}}
	}

	var created *Region
	var createErr error
	d.store.SubmitSync(func(state *GardenState) {
		created, createErr = CreateRegion(state, args.Position, args.Duration, behavior, args.Name, args.Tags)
	})
	if createErr != nil {
		return wire.Payload{}, createErr
	}
	return typedResponse(created)
}

type regionIDArgs struct {
	RegionID RegionID `json:"region_id"`
}

type regionMoveArgs struct {
	RegionID    RegionID `json:"region_id"`
	NewPosition Beat     `json:"new_position"`
}

func (d *ToolDispatcher) regionMove(raw json.RawMessage) (wire.Payload, error) {
	var args regionMoveArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return wire.Payload{}, err
	}
	var opErr error
	snap := d.store.SubmitSync(func(state *GardenState) {
		opErr = MoveRegion(state, args.RegionID, args.NewPosition)
	})
	if opErr != nil {
		return wire.Payload{}, opErr
	}
	return typedResponse(snap)
}

func (d *ToolDispatcher) regionTombstone(raw json.RawMessage) (wire.Payload, error) {
	var args regionIDArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return wire.Payload{}, err
	}
	var opErr error
	snap := d.store.SubmitSync(func(state *GardenState) {
		opErr = TombstoneRegion(state, args.RegionID, time.Now())
	})
	if opErr != nil {
		return wire.Payload{}, opErr
	}
	return typedResponse(snap)
}

func (d *ToolDispatcher) latentApprove(raw json.RawMessage) (wire.Payload, error) {
	var args regionIDArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return wire.Payload{}, err
	}
	var opErr error
	snap := d.store.SubmitSync(func(state *GardenState) {
		opErr = ApproveLatent(state, args.RegionID)
	})
	if opErr != nil {
		return wire.Payload{}, opErr
	}
	return typedResponse(snap)
}

func (d *ToolDispatcher) latentReject(raw json.RawMessage) (wire.Payload, error) {
	var args regionIDArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return wire.Payload{}, err
	}
	var opErr error
	snap := d.store.SubmitSync(func(state *GardenState) {
		opErr = RejectLatent(state, args.RegionID)
	})
	if opErr != nil {
		return wire.Payload{}, opErr
	}
	return typedResponse(snap)
}

type regionQueryArgs struct {
	Tag          string `json:"tag,omitempty"`
	PlayableOnly bool   `json:"playable_only,omitempty"`
	RangeStart   *Beat  `json:"range_start,omitempty"`
	RangeEnd     *Beat  `json:"range_end,omitempty"`
}

func (d *ToolDispatcher) regionQuery(raw json.RawMessage) (wire.Payload, error) {
	var args regionQueryArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return wire.Payload{}, err
		}
	}

	var predicates []RegionPredicate
	if args.Tag != "" {
		predicates = append(predicates, ByTag(args.Tag))
	}
	if args.PlayableOnly {
		predicates = append(predicates, Playable)
	}
	if args.RangeStart != nil && args.RangeEnd != nil {
		predicates = append(predicates, InRange(*args.RangeStart, *args.RangeEnd))
	}

	snap := d.store.Snapshot()
	return typedResponse(QueryRegions(snap, predicates...))
}

func typedResponse(v interface{}) (wire.Payload, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return wire.Payload{}, err
	}
	return wire.Payload{Kind: wire.KindTypedResponse, TypedResponse: &wire.TypedResponsePayload{Result: body}}, nil
}
