package garden

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobert/hootenanny/wire"
)

func TestToolDispatcherPingRepliesWithPong(t *testing.T) {
	store := NewStore()
	defer store.Close()
	d := NewToolDispatcher(store)

	payload, err := d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{Kind: wire.KindPing}})
	require.NoError(t, err)
	assert.Equal(t, wire.KindPong, payload.Kind)
	require.NotNil(t, payload.Pong)
}

func TestToolDispatcherRegionCreateThenQuery(t *testing.T) {
	store := NewStore()
	defer store.Close()
	d := NewToolDispatcher(store)

	createArgs, _ := json.Marshal(map[string]interface{}{
		"position": 4, "duration": 2, "name": "verse", "tags": []string{"vocal"},
	})
	payload, err := d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "region.create", Args: createArgs},
	}})
	require.NoError(t, err)
	require.Equal(t, wire.KindTypedResponse, payload.Kind)

	var created Region
	require.NoError(t, json.Unmarshal(payload.TypedResponse.Result, &created))
	assert.Equal(t, "verse", created.Name)

	queryArgs, _ := json.Marshal(map[string]interface{}{"tag": "vocal"})
	payload, err = d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "region.query", Args: queryArgs},
	}})
	require.NoError(t, err)
	var found []Region
	require.NoError(t, json.Unmarshal(payload.TypedResponse.Result, &found))
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)
}

func TestToolDispatcherListTools(t *testing.T) {
	store := NewStore()
	defer store.Close()
	d := NewToolDispatcher(store)

	payload, err := d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "_list_tools"},
	}})
	require.NoError(t, err)
	var tools []toolDescriptor
	require.NoError(t, json.Unmarshal(payload.TypedResponse.Result, &tools))
	names := make([]string, len(tools))
	for i, tl := range tools {
		names[i] = tl.Name
	}
	assert.Contains(t, names, "region.create")
	assert.Contains(t, names, "participant.register")
}

func TestToolDispatcherParticipantRegister(t *testing.T) {
	store := NewStore()
	defer store.Close()
	d := NewToolDispatcher(store)

	args, _ := json.Marshal(map[string]interface{}{
		"id": "model-1", "kind": "model",
		"capabilities": []map[string]interface{}{{"uri": "synth.generate"}},
	})
	payload, err := d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "participant.register", Args: args},
	}})
	require.NoError(t, err)
	require.Equal(t, wire.KindTypedResponse, payload.Kind)

	var match bool
	store.SubmitSync(func(state *GardenState) {
		res, err := state.Participants.Resolve(CapabilityRequirement{URI: "synth.generate"})
		match = err == nil && res.Best != nil && res.Best.ParticipantID == "model-1"
	})
	assert.True(t, match)
}

func TestToolDispatcherUnknownToolReturnsError(t *testing.T) {
	store := NewStore()
	defer store.Close()
	d := NewToolDispatcher(store)

	_, err := d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "nonexistent"},
	}})
	assert.Error(t, err)
}

func TestToolDispatcherLatentApproveRequiresResolvedFirst(t *testing.T) {
	store := NewStore()
	defer store.Close()
	d := NewToolDispatcher(store)

	createArgs, _ := json.Marshal(map[string]interface{}{
		"position": 0, "duration": 4, "name": "gen",
		"latent": map[string]string{"tool": "synth.generate"},
	})
	payload, err := d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "region.create", Args: createArgs},
	}})
	require.NoError(t, err)
	var created Region
	require.NoError(t, json.Unmarshal(payload.TypedResponse.Result, &created))

	approveArgs, _ := json.Marshal(map[string]string{"region_id": string(created.ID)})
	_, err = d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "latent.approve", Args: approveArgs},
	}})
	assert.Error(t, err) // still Pending, not Resolved
}
