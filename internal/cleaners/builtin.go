package cleaners

import "github.com/custodia-labs/skema-cli/internal/core/ports/driven"

// Builtin returns the routines compiled into the binary, in the order
// they are registered at startup.
func Builtin() []driven.Cleaner {
	return []driven.Cleaner{
		NewPassthrough(),
		NewDailyPrices(),
		NewTradeTicks(),
	}
}
