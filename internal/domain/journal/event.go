// Package journal defines the append-only run journal record and the
// content-derived identifiers that make journals reproducible.
package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type Kind string

const (
	KindStepStart   Kind = "step_start"
	KindProposal    Kind = "proposal"
	KindValidation  Kind = "validation"
	KindPolicy      Kind = "policy"
	KindObservation Kind = "observation"
	KindAction      Kind = "action"
	KindVerify      Kind = "verify"
	KindFinal       Kind = "final"
	KindError       Kind = "error"
)

var Kinds = []Kind{
	KindStepStart,
	KindProposal,
	KindValidation,
	KindPolicy,
	KindObservation,
	KindAction,
	KindVerify,
	KindFinal,
	KindError,
}

func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Event is one journal line. Events are never mutated after they are appended.
type Event struct {
	EventID string         `json:"event_id"`
	RunID   string         `json:"run_id"`
	StepID  int            `json:"step_id"`
	Kind    Kind           `json:"kind"`
	Payload map[string]any `json:"payload"`
}

func ShortHash(text string, length int) string {
	sum := sha256.Sum256([]byte(text))
	h := hex.EncodeToString(sum[:])
	if length <= 0 || length > len(h) {
		return h
	}
	return h[:length]
}

func EventID(runID string, seq, stepID int, kind Kind) string {
	return ShortHash(fmt.Sprintf("%s:%d:%d:%s", runID, seq, stepID, kind), 12)
}

func MakeRunID(seed int64, profile string) string {
	return ShortHash(fmt.Sprintf("seed=%d|profile=%s", seed, profile), 16)
}

// FileName is the conventional journal file name for a run.
func FileName(seed int64, profile string) string {
	return fmt.Sprintf("run_seed%06d_%s.jsonl", seed, profile)
}
