package decide

import (
	"strings"

	"simopsbot/internal/domain/ops"
)

// lastObservation returns the newest observation from tool, optionally
// restricted to one service.
func lastObservation(observations []map[string]any, tool ops.ToolName, service ops.ServiceName) map[string]any {
	for i := len(observations) - 1; i >= 0; i-- {
		obs := observations[i]
		if obs["tool"] != string(tool) {
			continue
		}
		if service != "" && obs["service"] != string(service) {
			continue
		}
		return obs
	}
	return nil
}

func hasObservation(observations []map[string]any, tool ops.ToolName) bool {
	return lastObservation(observations, tool, "") != nil
}

func mentionsTimeout(obs map[string]any) bool {
	lines, ok := ops.Strings(obs["lines"])
	if !ok {
		return false
	}
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l), "timeout") {
			return true
		}
	}
	return false
}

// Scrub drops instruction-like lines from log and runbook observations before
// they reach a model. Other observations pass through untouched.
func Scrub(observations []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(observations))
	for _, obs := range observations {
		switch obs["tool"] {
		case string(ops.ToolTailLogs):
			out = append(out, scrubField(obs, "lines"))
		case string(ops.ToolRunbookSearch):
			out = append(out, scrubField(obs, "snippets"))
		default:
			out = append(out, obs)
		}
	}
	return out
}

func scrubField(obs map[string]any, field string) map[string]any {
	lines, ok := ops.Strings(obs[field])
	if !ok {
		return obs
	}
	safe := make([]string, 0, len(lines))
	for _, l := range lines {
		s := strings.TrimSpace(l)
		lower := strings.ToLower(s)
		if strings.HasPrefix(lower, "system:") || strings.Contains(lower, "ignore previous") {
			continue
		}
		safe = append(safe, s)
	}
	clean := make(map[string]any, len(obs))
	for k, v := range obs {
		clean[k] = v
	}
	clean[field] = safe
	return clean
}
