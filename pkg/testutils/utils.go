package testutils

import (
	"bytes"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/common/logger"
)

// CreateTestAppWithNoopLoggerAndAccess builds a one-action app whose context carries a
// recording logger, and returns that logger for assertions.
func CreateTestAppWithNoopLoggerAndAccess(name string, flags []cli.Flag, action cli.ActionFunc) (*cli.App, *logger.NoopLogger) {
	noopLogger := logger.NewNoopLogger()
	app := &cli.App{
		Name:  name,
		Flags: flags,
		Before: func(cCtx *cli.Context) error {
			cCtx.Context = common.WithLogger(cCtx.Context, noopLogger)
			return nil
		},
		Action: action,
	}
	return app, noopLogger
}

// CaptureOutput runs fn with stdout and stderr redirected to pipes.
func CaptureOutput(fn func()) (stdout string, stderr string) {
	log := common.GetLogger(true)
	origStdout := os.Stdout
	origStderr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	outC := make(chan string)
	errC := make(chan string)

	go func() {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rOut); err != nil {
			log.Warn("failed to read stdout: %v", err)
		}
		outC <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rErr); err != nil {
			log.Warn("failed to read stderr: %v", err)
		}
		errC <- buf.String()
	}()

	fn()

	wOut.Close()
	wErr.Close()
	os.Stdout = origStdout
	os.Stderr = origStderr

	stdout = <-outC
	stderr = <-errC

	return stdout, stderr
}
