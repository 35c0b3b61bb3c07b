package garden

import "fmt"

// SignalType discriminates the kind of data a Port carries.
type SignalType int

const (
	SignalAudio SignalType = iota
	SignalMIDI
	SignalControl
	SignalTrigger
)

func (s SignalType) String() string {
	switch s {
	case SignalAudio:
		return "audio"
	case SignalMIDI:
		return "midi"
	case SignalControl:
		return "control"
	case SignalTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// Port is a named input or output on a Node.
type Port struct {
	Name   string
	Signal SignalType
}

// NodeID identifies a node in the audio graph.
type NodeID string

// Node is a processing unit in the audio graph.
type Node struct {
	ID             NodeID
	Name           string
	Type           string
	Inputs         []Port
	Outputs        []Port
	LatencyFrames  int
	CapabilityFlags []string
}

// Edge connects an output port on one node to an input port on another.
type Edge struct {
	SourceID   NodeID
	SourcePort string
	DestID     NodeID
	DestPort   string
}

// ErrNegativeLatency is returned when a Node declares negative latency.
var ErrNegativeLatency = fmt.Errorf("garden: node latency must be non-negative")

// ErrPortAddressedTwice is returned when the same endpoint appears as both
// source and destination of one edge.
var ErrPortAddressedTwice = fmt.Errorf("garden: edge cannot address the same port at both ends")

// ErrAudioCycle is returned when graph validation finds a cycle containing
// a non-Control edge.
var ErrAudioCycle = fmt.Errorf("garden: cycle contains a non-control signal edge")

// Graph is the audio processing graph: nodes with typed ports, connected by
// edges. Cycles are permitted only when every edge on the cycle carries a
// Control signal.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Validate checks node latency, the same-port invariant, and that any
// cycle in the graph is Control-only.
func (g Graph) Validate() error {
	for _, n := range g.Nodes {
		if n.LatencyFrames < 0 {
			return fmt.Errorf("%w: node %s", ErrNegativeLatency, n.ID)
		}
	}
	for _, e := range g.Edges {
		if e.SourceID == e.DestID && e.SourcePort == e.DestPort {
			return fmt.Errorf("%w: node %s port %s", ErrPortAddressedTwice, e.SourceID, e.SourcePort)
		}
	}
	return g.validateCycles()
}

// edgeSignal resolves the SignalType carried by an edge, looked up from the
// source node's declared output port.
func (g Graph) edgeSignal(e Edge) (SignalType, bool) {
	for _, n := range g.Nodes {
		if n.ID != e.SourceID {
			continue
		}
		for _, p := range n.Outputs {
			if p.Name == e.SourcePort {
				return p.Signal, true
			}
		}
	}
	return 0, false
}

// validateCycles performs a DFS cycle search; any cycle found must consist
// entirely of Control-signal edges, not merely the edge that closes it.
// pathControl[i] records whether the edge entering the i-th node pushed
// onto the current DFS stack carries a Control signal; entryIndex maps a
// node on the stack to its position in pathControl (-1 for a DFS root, with
// no edge entering it on this path).
func (g Graph) validateCycles() error {
	adj := make(map[NodeID][]Edge)
	for _, e := range g.Edges {
		adj[e.SourceID] = append(adj[e.SourceID], e)
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[NodeID]int)
	entryIndex := make(map[NodeID]int)
	var pathControl []bool

	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		state[id] = visiting
		for _, e := range adj[id] {
			signal, ok := g.edgeSignal(e)
			isControl := ok && signal == SignalControl
			if state[e.DestID] == visiting {
				allControl := isControl
				for i := entryIndex[e.DestID] + 1; i < len(pathControl); i++ {
					if !pathControl[i] {
						allControl = false
						break
					}
				}
				if !allControl {
					return fmt.Errorf("%w: via node %s", ErrAudioCycle, e.DestID)
				}
				continue
			}
			if state[e.DestID] == unvisited {
				entryIndex[e.DestID] = len(pathControl)
				pathControl = append(pathControl, isControl)
				err := visit(e.DestID)
				pathControl = pathControl[:len(pathControl)-1]
				if err != nil {
					return err
				}
			}
		}
		state[id] = done
		return nil
	}

	for _, n := range g.Nodes {
		if state[n.ID] == unvisited {
			entryIndex[n.ID] = -1
			if err := visit(n.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
