package garden

import "fmt"

// CapabilityURI names a capability a participant can offer, e.g.
// "audio.synthesis.lead" or "io.pipewire.output".
type CapabilityURI string

// ParticipantKind distinguishes a human session from a model worker
// offering capabilities.
type ParticipantKind int

const (
	ParticipantHuman ParticipantKind = iota
	ParticipantModel
)

// Participant is a registered offerer of one or more capabilities.
type Participant struct {
	ID           string
	Kind         ParticipantKind
	Capabilities []Capability
}

// ConstraintKind names the comparison a Constraint applies.
type ConstraintKind int

const (
	ConstraintEquals ConstraintKind = iota
	ConstraintAtLeast
	ConstraintAtMost
)

// ConstraintValue is the scalar a Constraint compares against; exactly one
// field is set.
type ConstraintValue struct {
	String string
	Number float64
}

// Constraint restricts a capability parameter, e.g. "sample_rate >= 48000".
type Constraint struct {
	Param string
	Kind  ConstraintKind
	Value ConstraintValue
}

// Capability is one thing a Participant can do, with parameter values a
// requirement's constraints are matched against.
type Capability struct {
	URI        CapabilityURI
	Parameters map[string]ConstraintValue
}

// CapabilityRequirement describes what a Latent region's tool dispatch
// needs from a worker.
type CapabilityRequirement struct {
	URI         CapabilityURI
	Constraints []Constraint
}

// SatisfactionResult reports whether a Capability meets a Requirement.
type SatisfactionResult struct {
	Satisfied       bool
	FailedConstraint *Constraint
}

// Satisfies evaluates req against cap's declared parameters.
func (req CapabilityRequirement) Satisfies(cap Capability) SatisfactionResult {
	if cap.URI != req.URI {
		return SatisfactionResult{Satisfied: false}
	}
	for i, c := range req.Constraints {
		val, ok := cap.Parameters[c.Param]
		if !ok || !c.matches(val) {
			return SatisfactionResult{Satisfied: false, FailedConstraint: &req.Constraints[i]}
		}
	}
	return SatisfactionResult{Satisfied: true}
}

func (c Constraint) matches(val ConstraintValue) bool {
	switch c.Kind {
	case ConstraintEquals:
		if c.Value.String != "" || val.String != "" {
			return c.Value.String == val.String
		}
		return c.Value.Number == val.Number
	case ConstraintAtLeast:
		return val.Number >= c.Value.Number
	case ConstraintAtMost:
		return val.Number <= c.Value.Number
	default:
		return false
	}
}

// CapabilityRegistry tracks registered Participants and resolves
// requirements against them.
type CapabilityRegistry struct {
	participants map[string]Participant
}

// NewCapabilityRegistry creates an empty registry.
func NewCapabilityRegistry() *CapabilityRegistry {
	return &CapabilityRegistry{participants: make(map[string]Participant)}
}

// Register adds or replaces a Participant.
func (r *CapabilityRegistry) Register(p Participant) {
	r.participants[p.ID] = p
}

// RegisterParticipant adds or replaces a Participant in state's registry,
// making it eligible to be resolved against a Latent region's tool when a
// job starts.
func RegisterParticipant(state *GardenState, p Participant) {
	state.Participants.Register(p)
}

// IdentityCandidate is one Participant considered for a requirement, paired
// with which of its capabilities satisfied it.
type IdentityCandidate struct {
	ParticipantID string
	Capability    Capability
}

// IdentityMatch is the outcome of resolving a requirement: the best
// candidate, if any, plus every candidate considered.
type IdentityMatch struct {
	Best       *IdentityCandidate
	Candidates []IdentityCandidate
}

// Resolve finds every registered Participant with a Capability satisfying
// req, preferring model participants over human ones when both qualify
// (humans are assumed to want to be asked, not auto-dispatched).
func (r *CapabilityRegistry) Resolve(req CapabilityRequirement) (IdentityMatch, error) {
	var match IdentityMatch
	for _, p := range r.participants {
		for _, cap := range p.Capabilities {
			if req.Satisfies(cap).Satisfied {
				match.Candidates = append(match.Candidates, IdentityCandidate{ParticipantID: p.ID, Capability: cap})
			}
		}
	}
	if len(match.Candidates) == 0 {
		return match, fmt.Errorf("garden: no participant satisfies capability %q", req.URI)
	}
	best := match.Candidates[0]
	for _, c := range match.Candidates {
		if r.participants[c.ParticipantID].Kind == ParticipantModel {
			best = c
			break
		}
	}
	match.Best = &best
	return match, nil
}
