//go:build !integration

package chromepdf

// Notes:
// - goleak guards the unit suite: every wait, renderer, and pool path must
//   tear its goroutines down
// - The integration build supplies its own TestMain with a shared pool

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
