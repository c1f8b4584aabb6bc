package testutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Importing testutil silences the standard logrus logger unless the test
// binary runs verbosely or LIGHT_TEST_LOG is set. Trace logging stays enabled
// so log statements are still evaluated.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	if !logsRequested() {
		logrus.SetOutput(io.Discard)
	}
}

func logsRequested() bool {
	if len(os.Getenv("LIGHT_TEST_LOG")) > 0 {
		return true
	}

	for _, arg := range os.Args[1:] {
		switch arg {
		case "-test.v", "-test.v=true", "--test.v", "--test.v=true":
			return true
		}
	}
	return false
}
