// Package validation turns untrusted proposal text into a typed action.
// It rejects out-of-range values and never clamps them.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"simopsbot/internal/domain/ops"
)

var ErrInvalidProposal = errors.New("invalid action proposal")

// ValidationError names the first structural problem found.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrInvalidProposal }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

var proposalValidate *validator.Validate

func init() {
	proposalValidate = validator.New()
	proposalValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

const (
	defaultMetricsWindow = 5
	defaultLogLines      = 10
)

type metricsWire struct {
	Service *string `json:"service" validate:"required,oneof=api db"`
	Window  *int    `json:"window_minutes" validate:"omitempty,gte=1,lte=60"`
}

type logsWire struct {
	Service *string `json:"service" validate:"required,oneof=api db"`
	N       *int    `json:"n" validate:"omitempty,gte=1,lte=200"`
}

type healthWire struct {
	Service *string `json:"service" validate:"required,oneof=api db"`
}

type runbookWire struct {
	Query *string `json:"query" validate:"required,max=200"`
}

type restartWire struct {
	Service *string `json:"service" validate:"required,oneof=api db"`
}

type rollbackWire struct {
	Service *string `json:"service" validate:"required,oneof=api db"`
	Version *string `json:"version" validate:"required,oneof=v1 v2"`
}

type askWire struct {
	Question *string `json:"question" validate:"required,max=400"`
}

type finalWire struct {
	Summary      *string   `json:"summary" validate:"required,max=2000"`
	EvidenceRefs *[]string `json:"evidence_refs" validate:"required,max=500"`
}

// ParseProposal parses raw into exactly one action variant. Every failure is
// a *ValidationError.
func ParseProposal(raw string) (ops.Action, error) {
	if !json.Valid([]byte(raw)) {
		return nil, invalid("proposal is not valid JSON")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return nil, invalid("proposal must be a JSON object")
	}
	var kindField *string
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &kindField); err != nil {
			kindField = nil
		}
	}
	if kindField == nil {
		return nil, invalid("type must be a string")
	}
	kind := *kindField

	switch ops.ActionKind(kind) {
	case ops.KindObserveMetrics:
		var w metricsWire
		if err := decode(raw, &w); err != nil {
			return nil, err
		}
		return ops.ObserveMetrics{Service: ops.ServiceName(*w.Service), WindowMinutes: intOr(w.Window, defaultMetricsWindow)}, nil
	case ops.KindObserveLogs:
		var w logsWire
		if err := decode(raw, &w); err != nil {
			return nil, err
		}
		return ops.ObserveLogs{Service: ops.ServiceName(*w.Service), N: intOr(w.N, defaultLogLines)}, nil
	case ops.KindObserveHealth:
		var w healthWire
		if err := decode(raw, &w); err != nil {
			return nil, err
		}
		return ops.ObserveHealth{Service: ops.ServiceName(*w.Service)}, nil
	case ops.KindRunbookSearch:
		var w runbookWire
		if err := decode(raw, &w); err != nil {
			return nil, err
		}
		return ops.RunbookSearch{Query: *w.Query}, nil
	case ops.KindRestart:
		var w restartWire
		if err := decode(raw, &w); err != nil {
			return nil, err
		}
		return ops.Restart{Service: ops.ServiceName(*w.Service)}, nil
	case ops.KindRollback:
		var w rollbackWire
		if err := decode(raw, &w); err != nil {
			return nil, err
		}
		return ops.Rollback{Service: ops.ServiceName(*w.Service), Version: *w.Version}, nil
	case ops.KindAskUser:
		var w askWire
		if err := decode(raw, &w); err != nil {
			return nil, err
		}
		return ops.AskUser{Question: *w.Question}, nil
	case ops.KindFinal:
		var w finalWire
		if err := decode(raw, &w); err != nil {
			return nil, err
		}
		return ops.Final{Summary: *w.Summary, EvidenceRefs: *w.EvidenceRefs}, nil
	default:
		return nil, invalid("unknown action type: %q", kind)
	}
}

func decode(raw string, dst any) error {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return invalid("%s has wrong type: expected %s", typeErr.Field, wireType(typeErr.Type))
		}
		return invalid("proposal must be a JSON object")
	}
	if err := proposalValidate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return describe(fieldErrs[0])
		}
		return invalid("invalid proposal: %v", err)
	}
	return nil
}

func describe(fe validator.FieldError) error {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return invalid("missing field: %s", name)
	case "oneof":
		if name == "version" {
			return invalid("invalid version: %q", fmt.Sprint(fe.Value()))
		}
		return invalid("unknown %s: %q", name, fmt.Sprint(fe.Value()))
	case "max":
		if fe.Kind() == reflect.String {
			return invalid("%s too long", name)
		}
		return invalid("%s has too many entries", name)
	default:
		return invalid("%s out of range", name)
	}
}

func wireType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int64:
		return "integer"
	case reflect.String:
		return "string"
	case reflect.Slice:
		return "list of strings"
	default:
		return t.String()
	}
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
