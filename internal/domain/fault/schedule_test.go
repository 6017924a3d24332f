package fault

import (
	"errors"
	"testing"

	"simopsbot/internal/domain/ops"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileValidate(t *testing.T) {
	require.NoError(t, DefaultProfile().Validate())
	require.NoError(t, NoFaults().Validate())

	cases := []Profile{
		{TimeoutRate: -0.1},
		{TransientRate: 1.5},
		{TimeoutRate: 0.5, TransientRate: 0.4, PermanentRate: 0.2},
	}
	for _, p := range cases {
		err := p.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidProfile))
	}
}

func TestNewSchedule_RejectsInvalidProfileAtConstruction(t *testing.T) {
	_, err := NewSchedule(1, Profile{TimeoutRate: 0.9, TransientRate: 0.9})
	require.ErrorIs(t, err, ErrInvalidProfile)
}

func TestSchedule_SameSeedSameSequenceRegardlessOfTool(t *testing.T) {
	a, err := NewSchedule(42, Profile{TimeoutRate: 0.2, TransientRate: 0.2, PermanentRate: 0.1})
	require.NoError(t, err)
	b, err := NewSchedule(42, Profile{TimeoutRate: 0.2, TransientRate: 0.2, PermanentRate: 0.1})
	require.NoError(t, err)

	tools := []ops.ToolName{ops.ToolGetMetrics, ops.ToolRestart, ops.ToolTailLogs}
	for i := range 200 {
		da := a.Next(tools[i%len(tools)])
		db := b.Next(ops.ToolHealthCheck)
		assert.Equal(t, da.Kind, db.Kind, "call %d", i+1)
		assert.Equal(t, i+1, da.Call)
	}
}

func TestSchedule_ZeroRatesNeverFault(t *testing.T) {
	s, err := NewSchedule(9, NoFaults())
	require.NoError(t, err)
	for range 500 {
		require.NoError(t, s.Err(ops.ToolRollback))
	}
	assert.Equal(t, 500, s.Calls())
}

func TestSchedule_FullTimeoutRateAlwaysTimesOut(t *testing.T) {
	s, err := NewSchedule(3, Profile{TimeoutRate: 1})
	require.NoError(t, err)
	err = s.Err(ops.ToolRestart)
	require.ErrorIs(t, err, ops.ErrToolTimeout)
	assert.Equal(t, "restart timed out", err.Error())
	assert.True(t, ops.IsRetryable(err))
}

func TestSchedule_ClassifyBands(t *testing.T) {
	s := &Schedule{profile: Profile{TimeoutRate: 0.1, TransientRate: 0.2, PermanentRate: 0.3}}
	assert.Equal(t, ops.FaultTimeout, s.classify(0.05))
	assert.Equal(t, ops.FaultTransient, s.classify(0.15))
	assert.Equal(t, ops.FaultPermanent, s.classify(0.45))
	assert.Equal(t, ops.FaultNone, s.classify(0.65))
}

func TestScript_ReplaysThenNoFaults(t *testing.T) {
	s := NewScript(ops.FaultTimeout, ops.FaultNone, ops.FaultPermanent)
	assert.ErrorIs(t, s.Err(ops.ToolRestart), ops.ErrToolTimeout)
	assert.NoError(t, s.Err(ops.ToolRestart))
	assert.ErrorIs(t, s.Err(ops.ToolRestart), ops.ErrToolPermanent)
	assert.NoError(t, s.Err(ops.ToolRestart))
}
