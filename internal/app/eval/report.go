package eval

import (
	"bytes"
	"fmt"
	"strings"

	"simopsbot/internal/app/agent"
	"simopsbot/internal/domain/journal"
)

type Report struct {
	Profile agent.Profile  `json:"profile"`
	Seeds   []int64        `json:"seeds"`
	Metrics Metrics        `json:"metrics"`
	Gate    GateResult     `json:"gate"`
	Results []agent.Result `json:"results"`
}

func (r Report) ToJSON() map[string]any {
	seeds := make([]any, 0, len(r.Seeds))
	for _, s := range r.Seeds {
		seeds = append(seeds, s)
	}
	results := make([]any, 0, len(r.Results))
	for _, res := range r.Results {
		results = append(results, res.ToJSON())
	}
	return map[string]any{
		"profile": string(r.Profile),
		"seeds":   seeds,
		"metrics": r.Metrics.ToJSON(),
		"gate":    r.Gate.ToJSON(),
		"results": results,
	}
}

func (r Report) SummaryJSON() ([]byte, error) {
	b, err := journal.Canonical(r.ToJSON())
	if err != nil {
		return nil, fmt.Errorf("encode eval summary: %w", err)
	}
	return b, nil
}

func (r Report) ResultsJSONL() ([]byte, error) {
	var buf bytes.Buffer
	for _, res := range r.Results {
		b, err := journal.Canonical(res.ToJSON())
		if err != nil {
			return nil, fmt.Errorf("encode result %s: %w", res.RunID, err)
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func (r Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Eval Summary (%s)\n\n", r.Profile)
	b.WriteString("## Metrics\n\n")
	b.WriteString(r.Metrics.Markdown())
	b.WriteString("\n\n## Regression gate\n\n")
	fmt.Fprintf(&b, "- Passed: **%t**\n", r.Gate.Passed)
	if len(r.Gate.Reasons) == 0 {
		b.WriteString("- Reasons: none\n")
		return b.String()
	}
	b.WriteString("- Reasons:\n")
	for _, reason := range r.Gate.Reasons {
		fmt.Fprintf(&b, "  - %s\n", reason)
	}
	return b.String()
}
