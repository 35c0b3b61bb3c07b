package garden

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func snapWithRegions(regions ...Region) GardenSnapshot {
	return GardenSnapshot{Regions: regions}
}

func TestQueryRegionsByTag(t *testing.T) {
	snap := snapWithRegions(
		Region{ID: "a", Tags: []string{"vocal"}},
		Region{ID: "b", Tags: []string{"drums"}},
	)
	got := QueryRegions(snap, ByTag("vocal"))
	assert.Len(t, got, 1)
	assert.Equal(t, RegionID("a"), got[0].ID)
}

func TestQueryRegionsByBehaviorKindAndPlayable(t *testing.T) {
	snap := snapWithRegions(
		Region{ID: "a", Behavior: Behavior{Kind: BehaviorPlayContent}},
		Region{ID: "b", Behavior: Behavior{Kind: BehaviorLatent, Latent: &LatentBehavior{Status: LatentPending}}},
	)
	got := QueryRegions(snap, ByBehaviorKind(BehaviorPlayContent), Playable)
	assert.Len(t, got, 1)
	assert.Equal(t, RegionID("a"), got[0].ID)
}

func TestQueryRegionsInRangeOverlap(t *testing.T) {
	snap := snapWithRegions(
		Region{ID: "a", Position: 0, Duration: 4},
		Region{ID: "b", Position: 10, Duration: 4},
	)
	got := QueryRegions(snap, InRange(2, 6))
	assert.Len(t, got, 1)
	assert.Equal(t, RegionID("a"), got[0].ID)
}

func TestNodesByCapabilityFlag(t *testing.T) {
	snap := GardenSnapshot{Graph: Graph{Nodes: []Node{
		{ID: "n1", CapabilityFlags: []string{"gpu"}},
		{ID: "n2", CapabilityFlags: []string{"cpu"}},
	}}}
	got := NodesByCapabilityFlag(snap, "gpu")
	assert.Len(t, got, 1)
	assert.Equal(t, NodeID("n1"), got[0].ID)
}
