package httpadapter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"simopsbot/internal/app/agent"
	"simopsbot/internal/app/eval"
	"simopsbot/internal/app/ports"
	"simopsbot/internal/app/replay"
	"simopsbot/internal/domain/journal"
)

func TestResponseJSONUsesSnakeCase(t *testing.T) {
	result := agent.Result{RunID: "run_seed1_rules", Profile: agent.ProfileRules, Status: agent.StatusResolved}
	cases := []struct {
		name    string
		payload any
		want    []string
		notWant []string
	}{
		{
			name:    "run",
			payload: runResponse{Result: result, EventCount: 3},
			want:    []string{"result", "event_count"},
			notWant: []string{"Result", "EventCount"},
		},
		{
			name:    "run record",
			payload: ports.RunRecord{RunID: "r", SideEffects: 1},
			want:    []string{"run_id", "side_effect_actions", "unsafe_action_attempts", "finished_at"},
			notWant: []string{"RunID", "SideEffects"},
		},
		{
			name:    "journal",
			payload: journalResponse{RunID: "r", Events: []journal.Event{{EventID: "e", RunID: "r", Kind: journal.KindFinal, Payload: map[string]any{}}}},
			want:    []string{"run_id", "events"},
			notWant: []string{"RunID", "Events"},
		},
		{
			name:    "replay",
			payload: replay.Summary{RunID: "r"},
			want:    []string{"run_id", "final_summary", "evidence_compliant", "policy_blocks", "unsafe_executed"},
			notWant: []string{"RunID", "PolicyBlocks"},
		},
		{
			name:    "eval",
			payload: evalResponse{EvalID: "x", Report: eval.Report{Profile: agent.ProfileGuarded, Results: []agent.Result{result}}},
			want:    []string{"eval_id", "report"},
			notWant: []string{"EvalID", "Report"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.payload)
			require.NoError(t, err)
			var got map[string]any
			require.NoError(t, json.Unmarshal(b, &got))
			for _, key := range tc.want {
				require.Contains(t, got, key, string(b))
			}
			for _, key := range tc.notWant {
				require.NotContains(t, got, key, string(b))
			}
			if tc.name == "run" {
				nested := asMap(got["result"])
				require.Contains(t, nested, "final_summary")
				require.NotContains(t, nested, "FinalSummary")
			}
		})
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
