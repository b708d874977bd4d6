package model

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// UnitID derives the stable identifier for a unit from its root-relative,
// slash-separated path. Stable across runs and platforms as long as the
// relative path is stable.
func UnitID(relPath string) string {
	return fmt.Sprintf("u%016x", xxhash.Sum64String(relPath))
}
