package ops

import (
	"slices"
	"sort"
	"strings"
)

type Hypothesis struct {
	Cause       IncidentType    `json:"cause"`
	Score       float64         `json:"-"`
	Confidence  ConfidenceLevel `json:"confidence"`
	EvidenceIDs []string        `json:"evidence_ids"`
}

func (h Hypothesis) ToJSON() map[string]any {
	ids := h.EvidenceIDs
	if ids == nil {
		ids = []string{}
	}
	return map[string]any{
		"cause":        string(h.Cause),
		"confidence":   string(h.Confidence),
		"evidence_ids": ids,
	}
}

// Hypotheses keeps one running score and evidence list per cause. Scores only grow.
type Hypotheses struct {
	score    map[IncidentType]float64
	evidence map[IncidentType][]string
}

func NewHypotheses() *Hypotheses {
	h := &Hypotheses{
		score:    make(map[IncidentType]float64, len(Incidents)),
		evidence: make(map[IncidentType][]string, len(Incidents)),
	}
	for _, it := range Incidents {
		h.score[it] = 0
		h.evidence[it] = nil
	}
	return h
}

func ConfidenceFor(score float64) ConfidenceLevel {
	switch {
	case score >= 2.5:
		return ConfidenceHigh
	case score >= 1.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func (h *Hypotheses) UpdateFromObservation(obs map[string]any, evidenceID string) {
	switch obs["tool"] {
	case string(ToolGetMetrics):
		h.fromMetrics(obs, evidenceID)
	case string(ToolTailLogs):
		if lines, ok := Strings(obs["lines"]); ok {
			h.fromLogs(strings.ToLower(strings.Join(lines, " ")), evidenceID)
		}
	case string(ToolRunbookSearch):
		if snippets, ok := Strings(obs["snippets"]); ok {
			h.fromRunbook(strings.ToLower(strings.Join(snippets, " ")), evidenceID)
		}
	}
}

// Top returns the k strongest causes ordered by score, then cause name.
func (h *Hypotheses) Top(k int) []Hypothesis {
	causes := slices.Clone(Incidents)
	sort.SliceStable(causes, func(i, j int) bool {
		si, sj := h.score[causes[i]], h.score[causes[j]]
		if si != sj {
			return si > sj
		}
		return causes[i] < causes[j]
	})
	if k < 0 {
		k = 0
	}
	if k > len(causes) {
		k = len(causes)
	}
	out := make([]Hypothesis, 0, k)
	for _, c := range causes[:k] {
		out = append(out, Hypothesis{
			Cause:       c,
			Score:       h.score[c],
			Confidence:  ConfidenceFor(h.score[c]),
			EvidenceIDs: slices.Clone(h.evidence[c]),
		})
	}
	return out
}

func (h *Hypotheses) Best() Hypothesis {
	return h.Top(1)[0]
}

func (h *Hypotheses) fromMetrics(obs map[string]any, evidenceID string) {
	service, _ := obs["service"].(string)
	errRate, hasErr := Number(obs["error_rate"])
	lat, hasLat := Number(obs["latency_ms"])

	if service == string(ServiceAPI) && hasErr {
		if errRate > 0.25 {
			h.bump(IncidentBadDeploy, 2.0, evidenceID)
		} else if errRate > 0.08 {
			h.bump(IncidentNetworkFlaky, 0.8, evidenceID)
		}
	}
	if service == string(ServiceDB) && hasLat && lat > 300 {
		h.bump(IncidentDBSaturation, 2.0, evidenceID)
	}
	// cascading latency from a saturated db
	if service == string(ServiceAPI) && hasLat && lat > 300 {
		h.bump(IncidentDBSaturation, 0.6, evidenceID)
	}
}

func (h *Hypotheses) fromLogs(joined, evidenceID string) {
	if strings.Contains(joined, "deploy") && strings.Contains(joined, "v2") {
		h.bump(IncidentBadDeploy, 1.2, evidenceID)
	}
	if strings.Contains(joined, "timeout") || strings.Contains(joined, "socket") {
		h.bump(IncidentNetworkFlaky, 1.2, evidenceID)
	}
	if strings.Contains(joined, "saturation") || strings.Contains(joined, "pool exhausted") {
		h.bump(IncidentDBSaturation, 1.2, evidenceID)
	}
}

func (h *Hypotheses) fromRunbook(joined, evidenceID string) {
	if strings.Contains(joined, "rollback") {
		h.bump(IncidentBadDeploy, 0.6, evidenceID)
	}
	if strings.Contains(joined, "saturation") {
		h.bump(IncidentDBSaturation, 0.6, evidenceID)
	}
	if strings.Contains(joined, "timeout") || strings.Contains(joined, "network") {
		h.bump(IncidentNetworkFlaky, 0.6, evidenceID)
	}
}

// bump adds to a cause's score. Each evidence id is listed once per cause, in
// first-seen order.
func (h *Hypotheses) bump(cause IncidentType, amount float64, evidenceID string) {
	h.score[cause] += amount
	if slices.Contains(h.evidence[cause], evidenceID) {
		return
	}
	h.evidence[cause] = append(h.evidence[cause], evidenceID)
}
