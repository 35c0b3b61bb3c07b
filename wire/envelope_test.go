package wire

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeEncodeDecodeRoundTrip(t *testing.T) {
	env := &Envelope{
		ID:          uuid.New(),
		Traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		Payload: Payload{
			Kind: KindPong,
			Pong: &PongPayload{WorkerID: "worker-1", UptimeSecs: 42.5},
		},
	}

	for _, ct := range []ContentType{ContentTypeJSON, ContentTypeMsgPack} {
		body, err := EncodeBody(env, ct)
		require.NoError(t, err)

		decoded, err := DecodeBody(ct, body)
		require.NoError(t, err)
		require.Equal(t, env.ID, decoded.ID)
		require.Equal(t, env.Traceparent, decoded.Traceparent)
		require.Equal(t, env.Payload.Kind, decoded.Payload.Kind)
		require.Equal(t, *env.Payload.Pong, *decoded.Payload.Pong)
	}
}

func TestDecodeBodyRejectsUnknownKind(t *testing.T) {
	raw := []byte(`{"id":"` + uuid.New().String() + `","payload":{"kind":"not_a_real_kind"}}`)
	_, err := DecodeBody(ContentTypeJSON, raw)
	require.Error(t, err)
}

func TestDecodeBodyRejectsMissingVariantData(t *testing.T) {
	raw := []byte(`{"id":"` + uuid.New().String() + `","payload":{"kind":"pong"}}`)
	_, err := DecodeBody(ContentTypeJSON, raw)
	require.Error(t, err)
}

func TestToolRequestPayloadCarriesRawArgs(t *testing.T) {
	env := &Envelope{
		ID: uuid.New(),
		Payload: Payload{
			Kind: KindToolRequest,
			ToolRequest: &ToolRequestPayload{
				Tool: "cas.store",
				Args: json.RawMessage(`{"mime_type":"text/plain"}`),
			},
		},
	}
	body, err := EncodeBody(env, ContentTypeJSON)
	require.NoError(t, err)

	decoded, err := DecodeBody(ContentTypeJSON, body)
	require.NoError(t, err)
	require.Equal(t, "cas.store", decoded.Payload.ToolRequest.Tool)
	require.JSONEq(t, `{"mime_type":"text/plain"}`, string(decoded.Payload.ToolRequest.Args))
}
