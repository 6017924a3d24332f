// Package seed derives independent, reproducible random streams from a base
// seed. Each consumer names its own salt so streams never share state.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"strconv"
)

const (
	SaltFaultSchedule = "fault-schedule"
	SaltToolNoise     = "tool-noise"
	SaltWorld         = "world"
	SaltScenario      = "scenario"
	SaltModelStandIn  = "model-standin"
	SaltRedTeam       = "redteam"
)

// Derive returns a PCG-backed generator seeded from sha256("<base>|<salt>").
func Derive(base int64, salt string) *rand.Rand {
	sum := sha256.Sum256([]byte(strconv.FormatInt(base, 10) + "|" + salt))
	hi := binary.BigEndian.Uint64(sum[0:8])
	lo := binary.BigEndian.Uint64(sum[8:16])
	return rand.New(rand.NewPCG(hi, lo))
}
