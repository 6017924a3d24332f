package ops

// ActionKind is the wire tag of an Action.
type ActionKind string

const (
	KindObserveMetrics ActionKind = "OBSERVE_METRICS"
	KindObserveLogs    ActionKind = "OBSERVE_LOGS"
	KindObserveHealth  ActionKind = "OBSERVE_HEALTH"
	KindRunbookSearch  ActionKind = "RUNBOOK_SEARCH"
	KindRestart        ActionKind = "ACT_RESTART"
	KindRollback       ActionKind = "ACT_ROLLBACK"
	KindAskUser        ActionKind = "ASK_USER"
	KindFinal          ActionKind = "FINAL"
)

// ActionKinds is the closed set of variants, in declaration order.
var ActionKinds = []ActionKind{
	KindObserveMetrics,
	KindObserveLogs,
	KindObserveHealth,
	KindRunbookSearch,
	KindRestart,
	KindRollback,
	KindAskUser,
	KindFinal,
}

// Action is a closed union. Only the variants in this file implement it.
type Action interface {
	Kind() ActionKind
	ToJSON() map[string]any
	action()
}

type ObserveMetrics struct {
	Service       ServiceName
	WindowMinutes int
}

type ObserveLogs struct {
	Service ServiceName
	N       int
}

type ObserveHealth struct {
	Service ServiceName
}

type RunbookSearch struct {
	Query string
}

type Restart struct {
	Service ServiceName
}

type Rollback struct {
	Service ServiceName
	Version string
}

type AskUser struct {
	Question string
}

type Final struct {
	Summary      string
	EvidenceRefs []string
}

func (ObserveMetrics) Kind() ActionKind { return KindObserveMetrics }
func (ObserveLogs) Kind() ActionKind    { return KindObserveLogs }
func (ObserveHealth) Kind() ActionKind  { return KindObserveHealth }
func (RunbookSearch) Kind() ActionKind  { return KindRunbookSearch }
func (Restart) Kind() ActionKind        { return KindRestart }
func (Rollback) Kind() ActionKind       { return KindRollback }
func (AskUser) Kind() ActionKind        { return KindAskUser }
func (Final) Kind() ActionKind          { return KindFinal }

func (ObserveMetrics) action() {}
func (ObserveLogs) action()    {}
func (ObserveHealth) action()  {}
func (RunbookSearch) action()  {}
func (Restart) action()        {}
func (Rollback) action()       {}
func (AskUser) action()        {}
func (Final) action()          {}

func (a ObserveMetrics) ToJSON() map[string]any {
	return map[string]any{"type": string(a.Kind()), "service": string(a.Service), "window_minutes": a.WindowMinutes}
}

func (a ObserveLogs) ToJSON() map[string]any {
	return map[string]any{"type": string(a.Kind()), "service": string(a.Service), "n": a.N}
}

func (a ObserveHealth) ToJSON() map[string]any {
	return map[string]any{"type": string(a.Kind()), "service": string(a.Service)}
}

func (a RunbookSearch) ToJSON() map[string]any {
	return map[string]any{"type": string(a.Kind()), "query": a.Query}
}

func (a Restart) ToJSON() map[string]any {
	return map[string]any{"type": string(a.Kind()), "service": string(a.Service)}
}

func (a Rollback) ToJSON() map[string]any {
	return map[string]any{"type": string(a.Kind()), "service": string(a.Service), "version": a.Version}
}

func (a AskUser) ToJSON() map[string]any {
	return map[string]any{"type": string(a.Kind()), "question": a.Question}
}

func (a Final) ToJSON() map[string]any {
	refs := a.EvidenceRefs
	if refs == nil {
		refs = []string{}
	}
	return map[string]any{"type": string(a.Kind()), "summary": a.Summary, "evidence_refs": refs}
}

// IsSideEffect reports whether executing a mutates the environment.
func IsSideEffect(a Action) bool {
	switch a.(type) {
	case Restart, Rollback:
		return true
	default:
		return false
	}
}

// TargetService returns the service an action is aimed at, if any.
func TargetService(a Action) (ServiceName, bool) {
	switch v := a.(type) {
	case ObserveMetrics:
		return v.Service, true
	case ObserveLogs:
		return v.Service, true
	case ObserveHealth:
		return v.Service, true
	case Restart:
		return v.Service, true
	case Rollback:
		return v.Service, true
	default:
		return "", false
	}
}
