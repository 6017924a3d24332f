package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"simopsbot/internal/domain/journal"
)

const maxLineBytes = 4 << 20

// ParseError locates a malformed journal line.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

func ReadFile(path string) ([]journal.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, path)
}

// Read parses a journal strictly. Blank lines are skipped; anything else
// must be an event object with all five fields and a known kind.
func Read(r io.Reader, name string) ([]journal.Event, error) {
	var events []journal.Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		e, msg := parseLine(line)
		if msg != "" {
			return nil, &ParseError{Path: name, Line: lineNo, Msg: msg}
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return events, nil
}

func parseLine(line []byte) (journal.Event, string) {
	if !json.Valid(line) {
		return journal.Event{}, "invalid JSON"
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil || fields == nil {
		return journal.Event{}, "expected JSON object"
	}

	var e journal.Event
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"event_id", &e.EventID},
		{"run_id", &e.RunID},
	} {
		if msg := decodeString(fields, f.key, f.dst); msg != "" {
			return journal.Event{}, msg
		}
	}
	var kind string
	if msg := decodeString(fields, "kind", &kind); msg != "" {
		return journal.Event{}, msg
	}
	k, ok := journal.ParseKind(kind)
	if !ok {
		return journal.Event{}, fmt.Sprintf("kind: unknown kind %q", kind)
	}
	e.Kind = k

	raw, ok := fields["step_id"]
	if !ok || isNull(raw) || json.Unmarshal(raw, &e.StepID) != nil {
		return journal.Event{}, "step_id: expected int"
	}
	raw, ok = fields["payload"]
	if !ok || json.Unmarshal(raw, &e.Payload) != nil || e.Payload == nil {
		return journal.Event{}, "payload must be a JSON object"
	}
	return e, ""
}

func decodeString(fields map[string]json.RawMessage, key string, dst *string) string {
	raw, ok := fields[key]
	if !ok || isNull(raw) || json.Unmarshal(raw, dst) != nil {
		return key + ": expected string"
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
