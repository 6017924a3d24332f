package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive_SameSaltSameStream(t *testing.T) {
	a := Derive(7, SaltFaultSchedule)
	b := Derive(7, SaltFaultSchedule)
	for range 32 {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestDerive_DifferentSaltsDiverge(t *testing.T) {
	a := Derive(7, SaltFaultSchedule)
	b := Derive(7, SaltToolNoise)
	same := 0
	for range 16 {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	assert.Less(t, same, 16)
}
