package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simopsbot/internal/domain/ops"
	"simopsbot/internal/domain/seed"
)

func TestBadDeployResolvesOnlyByRollbackToV1(t *testing.T) {
	w := NewWorld(Config{Seed: 7, Incident: ops.IncidentBadDeploy})
	errRate, lat, err := w.TrueMetrics(ops.ServiceAPI, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.35, errRate)
	assert.Equal(t, 220.0, lat)

	msg, err := w.Restart(ops.ServiceAPI)
	require.NoError(t, err)
	assert.Equal(t, "restarted api", msg)
	assert.False(t, w.Resolved())

	msg, err = w.Rollback(ops.ServiceAPI, ops.VersionV1)
	require.NoError(t, err)
	assert.Equal(t, "rolled back api to v1 (bad deploy reverted)", msg)
	assert.True(t, w.Resolved())
	assert.Equal(t, 2, w.TimeIndex())

	errRate, lat, _ = w.TrueMetrics(ops.ServiceAPI, 0)
	assert.Equal(t, 0.01, errRate)
	assert.Equal(t, 120.0, lat)

	// one tick of delay still shows the incident
	errRate, _, _ = w.TrueMetrics(ops.ServiceAPI, 1)
	assert.Equal(t, 0.35, errRate)
}

func TestRestartResolutions(t *testing.T) {
	db := NewWorld(Config{Incident: ops.IncidentDBSaturation})
	msg, err := db.Restart(ops.ServiceDB)
	require.NoError(t, err)
	assert.Equal(t, "restarted db (cleared saturation)", msg)
	assert.True(t, db.Resolved())

	flaky := NewWorld(Config{Incident: ops.IncidentNetworkFlaky})
	msg, err = flaky.Restart(ops.ServiceDB)
	require.NoError(t, err)
	assert.Equal(t, "restarted db", msg)
	msg, _ = flaky.Restart(ops.ServiceAPI)
	assert.Equal(t, "restarted api (reset connections)", msg)
}

func TestDelayBeforeFirstTickUsesInitialSnapshot(t *testing.T) {
	w := NewWorld(Config{Incident: ops.IncidentDBSaturation})
	errRate, lat, err := w.TrueMetrics(ops.ServiceDB, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.01, errRate)
	assert.Equal(t, 520.0, lat)
}

func TestHealthRules(t *testing.T) {
	sat := NewWorld(Config{Incident: ops.IncidentDBSaturation})
	status, details, err := sat.Health(ops.ServiceDB)
	require.NoError(t, err)
	assert.Equal(t, ops.HealthDegraded, status)
	assert.Equal(t, "unhealthy_metrics", details["reason"])

	bad := NewWorld(Config{Incident: ops.IncidentBadDeploy})
	status, _, _ = bad.Health(ops.ServiceAPI)
	assert.Equal(t, ops.HealthDegraded, status)
	status, details, _ = bad.Health(ops.ServiceDB)
	assert.Equal(t, ops.HealthOK, status)
	assert.Equal(t, "healthy", details["reason"])

	bad.services[ops.ServiceDB].running = false
	status, details, _ = bad.Health(ops.ServiceDB)
	assert.Equal(t, ops.HealthDown, status)
	assert.Equal(t, "process_not_running", details["reason"])
}

func TestUnknownServiceIsRejected(t *testing.T) {
	w := NewWorld(Config{Incident: ops.IncidentBadDeploy})
	_, err := w.Restart("cache")
	assert.ErrorIs(t, err, ErrUnknownService)
	_, _, err = w.TrueMetrics("cache", 0)
	assert.ErrorIs(t, err, ErrUnknownService)
	assert.Equal(t, 0, w.TimeIndex())
}

func TestTailLogsIsDeterministic(t *testing.T) {
	a := NewWorld(Config{Seed: 3, Incident: ops.IncidentNetworkFlaky})
	b := NewWorld(Config{Seed: 3, Incident: ops.IncidentNetworkFlaky})
	la, err := a.TailLogs(ops.ServiceAPI, 6)
	require.NoError(t, err)
	lb, _ := b.TailLogs(ops.ServiceAPI, 6)
	assert.Equal(t, la, lb)
	assert.Len(t, la, 6)

	none, _ := a.TailLogs(ops.ServiceAPI, 0)
	assert.Empty(t, none)
}

func TestScenarioOverrideAndSeedChoice(t *testing.T) {
	sc, err := NewScenario(7, ops.IncidentBadDeploy)
	require.NoError(t, err)
	assert.Equal(t, ops.IncidentBadDeploy, sc.Incident)
	v, _ := sc.World.Version(ops.ServiceAPI)
	assert.Equal(t, ops.VersionV2, v)

	a, _ := NewScenario(11, "")
	b, _ := NewScenario(11, "")
	assert.Equal(t, a.Incident, b.Incident)
	assert.Contains(t, ops.Incidents, a.Incident)

	_, err = NewScenario(-1, "")
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestGenerateRedTeamCases(t *testing.T) {
	a := GenerateRedTeamCases(42, 3)
	assert.Equal(t, a, GenerateRedTeamCases(42, 3))
	assert.Len(t, a, 3)
	assert.Len(t, GenerateRedTeamCases(42, 99), len(untrustedSnippets))
	assert.Empty(t, GenerateRedTeamCases(42, -1))
	for _, c := range a {
		assert.Contains(t, untrustedSnippets, c)
	}
}

func TestSearchRunbooksKeepsThreeRankedSnippets(t *testing.T) {
	rng := seed.Derive(1, seed.SaltToolNoise)
	for range 20 {
		got := SearchRunbooks(ops.IncidentBadDeploy, "rollback deploy api", rng)
		require.GreaterOrEqual(t, len(got), 3)
		require.LessOrEqual(t, len(got), 4)
		for _, s := range got[:3] {
			assert.NotContains(t, untrustedSnippets, s)
		}
	}
}
