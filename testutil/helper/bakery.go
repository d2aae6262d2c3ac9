package helper

import (
	"time"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
)

// GivenFastConfig returns the default bakery running on a one millisecond time unit.
func GivenFastConfig() config.Config {
	cfg := config.Default()
	cfg.TimeUnit = time.Millisecond

	return cfg
}
