package cli

import (
	"testing"

	"github.com/GeorgieTragnar/cprime-sub000/internal/testutil"
)

const (
	cleanUnit  = testutil.CleanUnit
	brokenUnit = testutil.BrokenUnit
)

func writeUnit(t *testing.T, source string) string {
	t.Helper()
	return testutil.WriteUnit(t, source)
}
