package garden

import "errors"

// ErrNotLatent is returned when a latent-only transition targets a region
// whose Behavior isn't Latent.
var ErrNotLatent = errors.New("garden: region is not a Latent behavior")

// ErrInvalidLatentTransition is returned when a transition does not follow
// Pending -> Running -> Resolved -> {Approved | Rejected}, or
// Pending -> Running -> Failed, or any non-terminal -> Rejected via
// cancellation.
var ErrInvalidLatentTransition = errors.New("garden: invalid latent state transition")

func latentOf(r *Region) (*LatentBehavior, error) {
	if r.Behavior.Kind != BehaviorLatent || r.Behavior.Latent == nil {
		return nil, ErrNotLatent
	}
	return r.Behavior.Latent, nil
}

// StartLatentJob transitions Pending -> Running and records the job id
// driving generation. It also resolves a worker for l.Tool against the
// state's capability registry; a region whose tool has no registered
// participant still starts, just without a WorkerID attached.
func StartLatentJob(state *GardenState, id RegionID, jobID string) error {
	r, ok := state.Regions[id]
	if !ok {
		return ErrRegionNotFound
	}
	l, err := latentOf(r)
	if err != nil {
		return err
	}
	if l.Status != LatentPending {
		return ErrInvalidLatentTransition
	}
	l.Status = LatentRunning
	l.JobID = jobID
	if match, err := state.Participants.Resolve(CapabilityRequirement{URI: CapabilityURI(l.Tool)}); err == nil {
		l.WorkerID = match.Best.ParticipantID
	}
	return nil
}

// ResolveLatentJob transitions Running -> Resolved, attaching the sealed
// content hash the generation job produced. If autoApprove is set (the
// session was created with auto_approve=true) it immediately advances to
// Approved; otherwise it waits for an explicit ApproveLatent call.
func ResolveLatentJob(state *GardenState, id RegionID, resolvedHash string, autoApprove bool) error {
	r, ok := state.Regions[id]
	if !ok {
		return ErrRegionNotFound
	}
	l, err := latentOf(r)
	if err != nil {
		return err
	}
	if l.Status != LatentRunning {
		return ErrInvalidLatentTransition
	}
	l.Status = LatentResolved
	l.ResolvedHash = resolvedHash
	l.Progress = 1.0
	if autoApprove {
		l.Status = LatentApproved
	}
	return nil
}

// FailLatentJob transitions Pending|Running -> Failed.
func FailLatentJob(state *GardenState, id RegionID) error {
	r, ok := state.Regions[id]
	if !ok {
		return ErrRegionNotFound
	}
	l, err := latentOf(r)
	if err != nil {
		return err
	}
	if l.Status != LatentPending && l.Status != LatentRunning {
		return ErrInvalidLatentTransition
	}
	l.Status = LatentFailed
	return nil
}

// ApproveLatent transitions Resolved -> Approved. Approval is never
// automatic for a human-authored session; callers gate this on session
// policy, not this function.
func ApproveLatent(state *GardenState, id RegionID) error {
	r, ok := state.Regions[id]
	if !ok {
		return ErrRegionNotFound
	}
	l, err := latentOf(r)
	if err != nil {
		return err
	}
	if l.Status != LatentResolved {
		return ErrInvalidLatentTransition
	}
	l.Status = LatentApproved
	return nil
}

// RejectLatent moves any non-terminal Latent status to Rejected, used both
// for an explicit reject decision and for cancellation.
func RejectLatent(state *GardenState, id RegionID) error {
	r, ok := state.Regions[id]
	if !ok {
		return ErrRegionNotFound
	}
	l, err := latentOf(r)
	if err != nil {
		return err
	}
	if l.Status.Terminal() {
		return ErrInvalidLatentTransition
	}
	l.Status = LatentRejected
	return nil
}

// SetLatentProgress records fractional progress on a non-terminal Latent
// region.
func SetLatentProgress(state *GardenState, id RegionID, progress float64) error {
	r, ok := state.Regions[id]
	if !ok {
		return ErrRegionNotFound
	}
	l, err := latentOf(r)
	if err != nil {
		return err
	}
	if l.Status.Terminal() {
		return ErrInvalidLatentTransition
	}
	l.Progress = progress
	return nil
}
