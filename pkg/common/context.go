package common

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/internal/version"
)

// WithShutdown returns a context cancelled on SIGTERM/SIGINT. Pending receipt waits
// and relay calls observe the cancellation.
func WithShutdown(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		signal.Stop(sigChan)
		cancel()
		_, _ = fmt.Fprintln(os.Stderr, "caught interrupt, shutting down gracefully.")
	}()

	return ctx
}

type cliEnvironmentContextKey struct{}

// CLIEnvironment describes the running binary for telemetry.
type CLIEnvironment struct {
	CLIVersion string
	OS         string
	Arch       string
	UserUUID   string
}

func NewCLIEnvironment(os, arch, userUUID string) *CLIEnvironment {
	return &CLIEnvironment{
		CLIVersion: version.GetVersion(),
		OS:         os,
		Arch:       arch,
		UserUUID:   userUUID,
	}
}

// WithCLIEnvironment attaches the environment to cCtx, reusing the saved user id when present.
func WithCLIEnvironment(cCtx *cli.Context) {
	user := getUserUUIDFromGlobalConfig()
	if user == "" {
		user = uuid.New().String()
	}
	cCtx.Context = ContextWithCLIEnvironment(cCtx.Context, NewCLIEnvironment(runtime.GOOS, runtime.GOARCH, user))
}

func ContextWithCLIEnvironment(ctx context.Context, env *CLIEnvironment) context.Context {
	return context.WithValue(ctx, cliEnvironmentContextKey{}, env)
}

func CLIEnvironmentFromContext(ctx context.Context) (*CLIEnvironment, bool) {
	env, ok := ctx.Value(cliEnvironmentContextKey{}).(*CLIEnvironment)
	return env, ok
}
