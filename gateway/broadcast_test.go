package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicToEventTypeMapsDottedPrefixes(t *testing.T) {
	cases := map[string]BroadcastEventType{
		"job.completed":          EventJobStateChanged,
		"artifact.sealed":        EventArtifactCreated,
		"transport.play":         EventTransportStateChanged,
		"marker.reached":         EventMarkerReached,
		"beat.tick":              EventBeatTick,
		"log.warn":               EventLog,
		"config.reload":          EventConfigUpdate,
		"shutdown":               EventShutdown,
		"script.unknown_prefix":  EventScriptInvalidate,
	}
	for topic, want := range cases {
		assert.Equal(t, want, topicToEventType(topic), topic)
	}
}
