package journal

import (
	"bytes"
	"encoding/json"
)

// Canonical encodes v compactly with sorted map keys and without HTML
// escaping. The result has no trailing newline.
func Canonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Line is the canonical JSONL form of an event. Envelope keys are emitted in
// sorted order like every nested object.
func Line(e Event) ([]byte, error) {
	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return Canonical(map[string]any{
		"event_id": e.EventID,
		"kind":     string(e.Kind),
		"payload":  payload,
		"run_id":   e.RunID,
		"step_id":  e.StepID,
	})
}
