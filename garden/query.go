package garden

// RegionPredicate selects regions from a snapshot; no query language, just
// a composable Go function, rescoped from the graph-query-language idiom
// the kernel does not run inside the audio callback.
type RegionPredicate func(Region) bool

// QueryRegions returns every region in snap matching every predicate.
func QueryRegions(snap GardenSnapshot, predicates ...RegionPredicate) []Region {
	var out []Region
	for _, r := range snap.Regions {
		if matchesAll(r, predicates) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(r Region, predicates []RegionPredicate) bool {
	for _, p := range predicates {
		if !p(r) {
			return false
		}
	}
	return true
}

// ByTag matches regions carrying tag.
func ByTag(tag string) RegionPredicate {
	return func(r Region) bool {
		for _, t := range r.Tags {
			if t == tag {
				return true
			}
		}
		return false
	}
}

// ByBehaviorKind matches regions of a given Behavior kind.
func ByBehaviorKind(kind BehaviorKind) RegionPredicate {
	return func(r Region) bool { return r.Behavior.Kind == kind }
}

// Playable matches only regions for which IsPlayable is true.
func Playable(r Region) bool { return r.IsPlayable() }

// InRange matches regions whose [Position, Position+Duration) span
// overlaps [start, end).
func InRange(start, end Beat) RegionPredicate {
	return func(r Region) bool {
		return r.Position < end && r.Position+r.Duration > start
	}
}

// NodesByCapabilityFlag returns every graph node declaring flag among its
// CapabilityFlags.
func NodesByCapabilityFlag(snap GardenSnapshot, flag string) []Node {
	var out []Node
	for _, n := range snap.Graph.Nodes {
		for _, f := range n.CapabilityFlags {
			if f == flag {
				out = append(out, n)
				break
			}
		}
	}
	return out
}
