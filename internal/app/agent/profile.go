package agent

import (
	"fmt"
	"strings"
)

// Profile selects which safety layers a run carries. Each profile includes
// everything the previous one has.
type Profile string

const (
	ProfileRules      Profile = "rules"
	ProfileProposals  Profile = "proposals"
	ProfileHypotheses Profile = "hypotheses"
	ProfileVerified   Profile = "verified"
	ProfileGuarded    Profile = "guarded"

	DefaultProfile = ProfileGuarded
)

var Profiles = []Profile{ProfileRules, ProfileProposals, ProfileHypotheses, ProfileVerified, ProfileGuarded}

func ParseProfile(s string) (Profile, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultProfile, nil
	}
	for _, p := range Profiles {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown profile %q", ErrInvalidRequest, s)
}

func (p Profile) rank() int {
	for i, q := range Profiles {
		if p == q {
			return i + 1
		}
	}
	return 0
}

func (p Profile) atLeast(q Profile) bool { return p.rank() >= q.rank() }

func (p Profile) UsesModel() bool        { return p.atLeast(ProfileProposals) }
func (p Profile) TracksHypotheses() bool { return p.atLeast(ProfileHypotheses) }
func (p Profile) Verifies() bool         { return p.atLeast(ProfileVerified) }
func (p Profile) Guarded() bool          { return p.atLeast(ProfileGuarded) }

// MaxAttempts is the retry bound for side effects. Profiles without a
// verifier make a single attempt.
func (p Profile) MaxAttempts(configured int) int {
	if !p.Verifies() {
		return 1
	}
	if configured > 0 {
		return configured
	}
	return 3
}
