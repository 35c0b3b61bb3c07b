package main

import (
	"encoding/json"

	"github.com/tobert/hootenanny/garden"
	"github.com/tobert/hootenanny/wire"
)

// tickEventToBroadcast maps a garden.TickEvent to its dotted broadcast
// topic and JSON body, per spec.md §6's topic taxonomy
// (beat.*/marker.*/transport.*). It returns a nil envelope for event kinds
// this kernel does not publish (none currently; kept for forward
// compatibility with new TickEvent kinds).
func tickEventToBroadcast(ev garden.TickEvent) (string, *wire.Envelope) {
	var topic string
	var body interface{}

	switch ev.Kind {
	case garden.EventBeatTick:
		topic = "beat.tick"
		body = map[string]interface{}{"beat": ev.Beat, "position": ev.Position, "tempo_bpm": ev.BPM}
	case garden.EventMarkerReached:
		topic = "marker.reached"
		body = ev.Marker
	case garden.EventRegionStarted:
		topic = "transport.region_started"
		body = ev.Region
	case garden.EventRegionEnded:
		topic = "transport.region_ended"
		body = ev.Region
	default:
		return "", nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", nil
	}
	return topic, &wire.Envelope{Payload: wire.Payload{
		Kind:      wire.KindBroadcast,
		Broadcast: &wire.BroadcastPayload{Topic: topic, Body: raw},
	}}
}
