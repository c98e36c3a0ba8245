package common

import (
	"sync"
	"time"
)

var (
	saoPauloOnce sync.Once
	saoPauloLoc  *time.Location
)

// SaoPaulo returns the America/Sao_Paulo location, falling back to a
// fixed UTC-3 zone when the tzdata is unavailable. All user-facing
// timestamps and greetings render in this zone.
func SaoPaulo() *time.Location {
	saoPauloOnce.Do(func() {
		loc, err := time.LoadLocation("America/Sao_Paulo")
		if err != nil {
			loc = time.FixedZone("BRT", -3*60*60)
		}
		saoPauloLoc = loc
	})
	return saoPauloLoc
}
