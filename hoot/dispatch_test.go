package hoot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobert/hootenanny/cas"
	"github.com/tobert/hootenanny/jobstore"
	"github.com/tobert/hootenanny/wire"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	store, err := cas.NewFileStore(cas.Config{BasePath: t.TempDir(), StoreMetadata: true})
	require.NoError(t, err)
	return NewDispatcher(store, jobstore.New(), nil)
}

func TestDispatcherPingRepliesWithPong(t *testing.T) {
	d := newTestDispatcher(t)
	payload, err := d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{Kind: wire.KindPing}})
	require.NoError(t, err)
	assert.Equal(t, wire.KindPong, payload.Kind)
}

func TestDispatcherCASStoreThenRetrieve(t *testing.T) {
	d := newTestDispatcher(t)

	storeArgs, _ := json.Marshal(map[string]interface{}{"data": []byte("hello"), "mime_type": "text/plain"})
	payload, err := d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "cas.store", Args: storeArgs},
	}})
	require.NoError(t, err)
	var stored struct {
		Hash string `json:"hash"`
	}
	require.NoError(t, json.Unmarshal(payload.TypedResponse.Result, &stored))
	assert.NotEmpty(t, stored.Hash)

	retrieveArgs, _ := json.Marshal(map[string]string{"hash": stored.Hash})
	payload, err = d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "cas.retrieve", Args: retrieveArgs},
	}})
	require.NoError(t, err)
	var retrieved struct {
		Data []byte `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload.TypedResponse.Result, &retrieved))
	assert.Equal(t, "hello", string(retrieved.Data))
}

func TestDispatcherGardenToolWithoutPeerReturnsErrNoGardenPeer(t *testing.T) {
	d := newTestDispatcher(t)

	args, _ := json.Marshal(map[string]interface{}{"position": 0, "duration": 4, "name": "x"})
	_, err := d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "region.create", Args: args},
	}})
	assert.ErrorIs(t, err, ErrNoGardenPeer)
}

func TestDispatcherJobLifecycle(t *testing.T) {
	d := newTestDispatcher(t)
	id, _ := d.jobs.CreateJob(context.Background(), "render_stem")
	require.NoError(t, d.jobs.MarkRunning(id))

	payload, err := d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:      wire.KindJobStatus,
		JobStatus: &wire.JobStatusPayload{JobID: string(id)},
	}})
	require.NoError(t, err)
	var info jobstore.Info
	require.NoError(t, json.Unmarshal(payload.TypedResponse.Result, &info))
	assert.Equal(t, jobstore.StatusRunning, info.Status)

	payload, err = d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:      wire.KindJobCancel,
		JobCancel: &wire.JobCancelPayload{JobID: string(id)},
	}})
	require.NoError(t, err)
	assert.Equal(t, wire.KindSuccess, payload.Kind)

	final, err := d.jobs.Get(id)
	require.NoError(t, err)
	assert.Equal(t, jobstore.StatusCancelled, final.Status)
}

func TestDispatcherListToolsReturnsLocalCatalogWithoutGardenPeer(t *testing.T) {
	d := newTestDispatcher(t)
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
	assert.Contains(t, names, "cas.store")
	assert.Contains(t, names, "cas.retrieve")
	assert.Contains(t, names, "cas.inspect")
}

func TestDispatcherUnknownToolReturnsError(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Dispatch(context.Background(), &wire.Envelope{Payload: wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "nonexistent"},
	}})
	assert.Error(t, err)
}
