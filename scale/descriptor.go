package scale

import (
	"fmt"
	"strings"
)

// triggerKind is the fixed token embedded in every descriptor so that
// descriptors from different trigger families never collide.
const triggerKind = "streamtrigger"

// Target identifies the monitored consumer group.
type Target struct {
	Namespace     string // stream authority host, e.g. "ns-1.streams.example.net"
	EntityName    string // stream entity name; compared case-insensitively
	ConsumerGroup string // consumer group reading the entity
	FunctionID    string // host-assigned identifier of the consuming function
}

// Descriptor derives the stable, case-insensitive identity string for the
// target. The caller keys persisted metric history by this value, so the
// derivation must not change across process restarts.
func (t Target) Descriptor() string {
	return strings.ToLower(fmt.Sprintf("%s-%s-%s-%s",
		t.FunctionID, triggerKind, t.EntityName, t.ConsumerGroup))
}
