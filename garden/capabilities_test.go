package garden

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintMatchesNumericComparisons(t *testing.T) {
	atLeast := Constraint{Param: "sample_rate", Kind: ConstraintAtLeast, Value: ConstraintValue{Number: 48000}}
	assert.True(t, atLeast.matches(ConstraintValue{Number: 48000}))
	assert.True(t, atLeast.matches(ConstraintValue{Number: 96000}))
	assert.False(t, atLeast.matches(ConstraintValue{Number: 44100}))

	atMost := Constraint{Param: "latency_ms", Kind: ConstraintAtMost, Value: ConstraintValue{Number: 10}}
	assert.True(t, atMost.matches(ConstraintValue{Number: 5}))
	assert.False(t, atMost.matches(ConstraintValue{Number: 20}))
}

func TestConstraintMatchesStringEquals(t *testing.T) {
	eq := Constraint{Param: "genre", Kind: ConstraintEquals, Value: ConstraintValue{String: "jazz"}}
	assert.True(t, eq.matches(ConstraintValue{String: "jazz"}))
	assert.False(t, eq.matches(ConstraintValue{String: "rock"}))
}

func TestCapabilityRequirementSatisfiesChecksURIAndConstraints(t *testing.T) {
	req := CapabilityRequirement{
		URI:         "audio.synthesis.lead",
		Constraints: []Constraint{{Param: "sample_rate", Kind: ConstraintAtLeast, Value: ConstraintValue{Number: 48000}}},
	}
	cap := Capability{URI: "audio.synthesis.lead", Parameters: map[string]ConstraintValue{"sample_rate": {Number: 48000}}}
	result := req.Satisfies(cap)
	assert.True(t, result.Satisfied)

	bad := Capability{URI: "audio.synthesis.lead", Parameters: map[string]ConstraintValue{"sample_rate": {Number: 8000}}}
	result = req.Satisfies(bad)
	assert.False(t, result.Satisfied)
	require.NotNil(t, result.FailedConstraint)
}

func TestCapabilityRegistryResolvePrefersModelOverHuman(t *testing.T) {
	reg := NewCapabilityRegistry()
	cap := Capability{URI: "audio.synthesis.lead"}
	reg.Register(Participant{ID: "human-1", Kind: ParticipantHuman, Capabilities: []Capability{cap}})
	reg.Register(Participant{ID: "model-1", Kind: ParticipantModel, Capabilities: []Capability{cap}})

	match, err := reg.Resolve(CapabilityRequirement{URI: "audio.synthesis.lead"})
	require.NoError(t, err)
	require.NotNil(t, match.Best)
	assert.Equal(t, "model-1", match.Best.ParticipantID)
	assert.Len(t, match.Candidates, 2)
}

func TestCapabilityRegistryResolveNoMatchReturnsError(t *testing.T) {
	reg := NewCapabilityRegistry()
	_, err := reg.Resolve(CapabilityRequirement{URI: "nonexistent"})
	assert.Error(t, err)
}
