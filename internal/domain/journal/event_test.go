package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventID_StableAndDistinct(t *testing.T) {
	a := EventID("run", 1, 1, KindStepStart)
	assert.Len(t, a, 12)
	assert.Equal(t, a, EventID("run", 1, 1, KindStepStart))
	assert.NotEqual(t, a, EventID("run", 2, 1, KindStepStart))
	assert.NotEqual(t, a, EventID("run", 1, 2, KindStepStart))
	assert.NotEqual(t, a, EventID("run", 1, 1, KindObservation))
	assert.NotEqual(t, a, EventID("other", 1, 1, KindStepStart))
}

func TestMakeRunID(t *testing.T) {
	id := MakeRunID(7, "guarded")
	assert.Len(t, id, 16)
	assert.Equal(t, id, MakeRunID(7, "guarded"))
	assert.NotEqual(t, id, MakeRunID(8, "guarded"))
	assert.NotEqual(t, id, MakeRunID(7, "rules"))
}

func TestShortHash_KnownVector(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01", ShortHash("abc", 12))
}

func TestLine_CanonicalEncoding(t *testing.T) {
	line, err := Line(Event{
		EventID: "abc",
		RunID:   "r",
		StepID:  3,
		Kind:    KindPolicy,
		Payload: map[string]any{"z": 1, "a": map[string]any{"y": "<x>", "b": []string{"q"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"event_id":"abc","kind":"policy","payload":{"a":{"b":["q"],"y":"<x>"},"z":1},"run_id":"r","step_id":3}`, string(line))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("verify")
	assert.True(t, ok)
	assert.Equal(t, KindVerify, k)
	_, ok = ParseKind("model_output")
	assert.False(t, ok)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "run_seed000007_guarded.jsonl", FileName(7, "guarded"))
}
