package kernel

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	// Round summaries are logged at Debug and solver timeouts at Warn.
	// Set DEBUG_TESTS=1 to see them: DEBUG_TESTS=1 go test ./sim/kernel/... -v
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.ErrorLevel)
	}
	os.Exit(m.Run())
}
