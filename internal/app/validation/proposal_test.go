package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simopsbot/internal/domain/ops"
)

func TestParseProposalAcceptsEveryVariant(t *testing.T) {
	samples := map[ops.ActionKind]ops.Action{
		ops.KindObserveMetrics: ops.ObserveMetrics{Service: ops.ServiceDB, WindowMinutes: 15},
		ops.KindObserveLogs:    ops.ObserveLogs{Service: ops.ServiceAPI, N: 8},
		ops.KindObserveHealth:  ops.ObserveHealth{Service: ops.ServiceAPI},
		ops.KindRunbookSearch:  ops.RunbookSearch{Query: "db saturation"},
		ops.KindRestart:        ops.Restart{Service: ops.ServiceDB},
		ops.KindRollback:       ops.Rollback{Service: ops.ServiceAPI, Version: ops.VersionV1},
		ops.KindAskUser:        ops.AskUser{Question: "which service?"},
		ops.KindFinal:          ops.Final{Summary: "done", EvidenceRefs: []string{"abc"}},
	}
	require.Len(t, samples, len(ops.ActionKinds))

	for _, kind := range ops.ActionKinds {
		want, ok := samples[kind]
		require.True(t, ok, "no sample for %s", kind)
		raw, err := json.Marshal(want.ToJSON())
		require.NoError(t, err)

		got, err := ParseProposal(string(raw))
		require.NoError(t, err, string(raw))
		assert.Equal(t, want, got)
	}
}

func TestParseProposalAppliesDefaults(t *testing.T) {
	got, err := ParseProposal(`{"type":"OBSERVE_METRICS","service":"api"}`)
	require.NoError(t, err)
	assert.Equal(t, ops.ObserveMetrics{Service: ops.ServiceAPI, WindowMinutes: 5}, got)

	got, err = ParseProposal(`{"type":"OBSERVE_LOGS","service":"db"}`)
	require.NoError(t, err)
	assert.Equal(t, ops.ObserveLogs{Service: ops.ServiceDB, N: 10}, got)
}

func TestParseProposalRejects(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		reason string
	}{
		{"not json", "restart everything please", "proposal is not valid JSON"},
		{"array", `["ACT_RESTART"]`, "proposal must be a JSON object"},
		{"null", `null`, "proposal must be a JSON object"},
		{"missing type", `{"service":"api"}`, "type must be a string"},
		{"numeric type", `{"type":3}`, "type must be a string"},
		{"unknown type", `{"type":"DELETE_CLUSTER"}`, `unknown action type: "DELETE_CLUSTER"`},
		{"unknown service", `{"type":"ACT_RESTART","service":"cache"}`, `unknown service: "cache"`},
		{"missing service", `{"type":"OBSERVE_HEALTH"}`, "missing field: service"},
		{"window too large", `{"type":"OBSERVE_METRICS","service":"api","window_minutes":61}`, "window_minutes out of range"},
		{"window zero", `{"type":"OBSERVE_METRICS","service":"api","window_minutes":0}`, "window_minutes out of range"},
		{"fractional window", `{"type":"OBSERVE_METRICS","service":"api","window_minutes":5.5}`, "window_minutes has wrong type: expected integer"},
		{"string window", `{"type":"OBSERVE_METRICS","service":"api","window_minutes":"5"}`, "window_minutes has wrong type: expected integer"},
		{"too many lines", `{"type":"OBSERVE_LOGS","service":"api","n":201}`, "n out of range"},
		{"bad version", `{"type":"ACT_ROLLBACK","service":"api","version":"v3"}`, `invalid version: "v3"`},
		{"query too long", `{"type":"RUNBOOK_SEARCH","query":"` + strings.Repeat("q", 201) + `"}`, "query too long"},
		{"question too long", `{"type":"ASK_USER","question":"` + strings.Repeat("x", 401) + `"}`, "question too long"},
		{"refs not list", `{"type":"FINAL","summary":"s","evidence_refs":"abc"}`, "evidence_refs has wrong type: expected list of strings"},
		{"refs missing", `{"type":"FINAL","summary":"s"}`, "missing field: evidence_refs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseProposal(tc.raw)
			assert.Nil(t, got)
			require.ErrorIs(t, err, ErrInvalidProposal)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.reason, verr.Reason)
		})
	}
}

func TestParseProposalNeverClampsRollbackService(t *testing.T) {
	got, err := ParseProposal(`{"type":"ACT_ROLLBACK","service":"db","version":"v2"}`)
	require.NoError(t, err)
	assert.Equal(t, ops.Rollback{Service: ops.ServiceDB, Version: ops.VersionV2}, got)
}
