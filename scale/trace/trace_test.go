package trace

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestIsValidLevel(t *testing.T) {
	assert.True(t, IsValidLevel("none"))
	assert.True(t, IsValidLevel("decisions"))
	assert.True(t, IsValidLevel(""))
	assert.False(t, IsValidLevel("verbose"))
}

func TestRecorder_LevelNone_DropsRecords(t *testing.T) {
	r := NewRecorder(LevelNone)

	r.Record(DecisionRecord{Vote: "ScaleOut"})

	assert.False(t, r.Enabled())
	assert.Empty(t, r.Records)
}

func TestRecorder_LevelDecisions_CollectsRecords(t *testing.T) {
	r := NewRecorder(LevelDecisions)

	r.Record(DecisionRecord{Vote: "ScaleOut", Rule: "high-backlog"})
	r.Record(DecisionRecord{Vote: "None", Rule: "steady"})

	assert.True(t, r.Enabled())
	require.Len(t, r.Records, 2)
	assert.Equal(t, "high-backlog", r.Records[0].Rule)
}

func TestRecorder_WriteYAML_RoundTrips(t *testing.T) {
	r := NewRecorder(LevelDecisions)
	r.Record(DecisionRecord{
		Timestamp:      time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		WorkerCount:    2,
		EventCount:     2500,
		PartitionCount: 4,
		Vote:           "ScaleOut",
		Rule:           "high-backlog",
		Messages:       []string{"EventCount (2500) > WorkerCount (2) * 1,000."},
	})

	var buf bytes.Buffer
	require.NoError(t, r.WriteYAML(&buf))

	var decoded []DecisionRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, r.Records[0].Vote, decoded[0].Vote)
	assert.Equal(t, r.Records[0].Messages, decoded[0].Messages)
}
