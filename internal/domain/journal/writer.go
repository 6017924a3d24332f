package journal

import (
	"context"
	"fmt"
)

// Sink persists events in append order.
type Sink interface {
	Append(ctx context.Context, e Event) error
}

// Writer assigns sequence numbers and ids for one run and fans each event out
// to every sink before returning.
type Writer struct {
	runID  string
	seq    int
	sinks  []Sink
	events []Event
}

func NewWriter(runID string, sinks ...Sink) *Writer {
	return &Writer{runID: runID, sinks: sinks}
}

func (w *Writer) RunID() string {
	return w.runID
}

// Log appends an event and returns its id.
func (w *Writer) Log(ctx context.Context, stepID int, kind Kind, payload map[string]any) (string, error) {
	w.seq++
	e := Event{
		EventID: EventID(w.runID, w.seq, stepID, kind),
		RunID:   w.runID,
		StepID:  stepID,
		Kind:    kind,
		Payload: payload,
	}
	for _, s := range w.sinks {
		if err := s.Append(ctx, e); err != nil {
			return "", fmt.Errorf("append %s event: %w", kind, err)
		}
	}
	w.events = append(w.events, e)
	return e.EventID, nil
}

// Events returns the events logged so far.
func (w *Writer) Events() []Event {
	out := make([]Event, len(w.events))
	copy(out, w.events)
	return out
}

// EvidenceCompliant reports whether refs is non-empty and every id exists in events.
func EvidenceCompliant(events []Event, refs []string) bool {
	if len(refs) == 0 {
		return false
	}
	ids := make(map[string]struct{}, len(events))
	for _, e := range events {
		ids[e.EventID] = struct{}{}
	}
	for _, r := range refs {
		if _, ok := ids[r]; !ok {
			return false
		}
	}
	return true
}
