package ops

type PolicyDecision string

const (
	PolicyAllow PolicyDecision = "allow"
	PolicyBlock PolicyDecision = "block"
)

// PolicyOutcome carries a Fallback only when Decision is PolicyBlock.
type PolicyOutcome struct {
	Decision PolicyDecision
	Reason   string
	Fallback Action
}

func (o PolicyOutcome) Blocked() bool {
	return o.Decision == PolicyBlock
}

type PolicyInput struct {
	Action           Action
	SideEffectsSoFar int
	MaxSideEffects   int
	Best             *Hypothesis
	HaveAnyMetrics   bool
}

// Policy mediates proposed actions. Evaluate is a pure function of its input.
type Policy struct {
	AllowedServices []ServiceName
	PrimaryService  ServiceName
}

func DefaultPolicy() Policy {
	return Policy{AllowedServices: []ServiceName{ServiceAPI, ServiceDB}, PrimaryService: ServiceAPI}
}

func (p Policy) Evaluate(in PolicyInput) PolicyOutcome {
	switch in.Action.(type) {
	case ObserveMetrics, ObserveLogs, ObserveHealth, RunbookSearch, AskUser:
		return allow("allowed")
	}

	if IsSideEffect(in.Action) && in.SideEffectsSoFar >= in.MaxSideEffects {
		return block("side-effect budget exceeded",
			AskUser{Question: "Side-effect budget exceeded. Provide guidance or increase budget."})
	}

	switch a := in.Action.(type) {
	case Restart:
		if !p.allowed(a.Service) {
			return block("service not allowed: "+string(a.Service), ObserveHealth{Service: ServiceAPI})
		}
		return allow("restart allowed")
	case Rollback:
		if a.Service != p.primary() {
			return block("rollback is only allowed for api (db rollback forbidden)",
				ObserveMetrics{Service: ServiceDB, WindowMinutes: 5})
		}
		if !in.HaveAnyMetrics {
			return block("rollback requires at least one metrics observation",
				ObserveMetrics{Service: ServiceAPI, WindowMinutes: 5})
		}
		if in.Best != nil && in.Best.Confidence == ConfidenceLow {
			return block("low confidence: rollback requires medium/high confidence",
				ObserveLogs{Service: ServiceAPI, N: 10})
		}
		return allow("rollback allowed")
	}

	return block("unknown or forbidden action", ObserveMetrics{Service: ServiceAPI, WindowMinutes: 5})
}

func (p Policy) allowed(s ServiceName) bool {
	allowed := p.AllowedServices
	if allowed == nil {
		allowed = DefaultPolicy().AllowedServices
	}
	for _, a := range allowed {
		if a == s {
			return true
		}
	}
	return false
}

func (p Policy) primary() ServiceName {
	if p.PrimaryService == "" {
		return ServiceAPI
	}
	return p.PrimaryService
}

func allow(reason string) PolicyOutcome {
	return PolicyOutcome{Decision: PolicyAllow, Reason: reason}
}

func block(reason string, fallback Action) PolicyOutcome {
	return PolicyOutcome{Decision: PolicyBlock, Reason: reason, Fallback: fallback}
}
