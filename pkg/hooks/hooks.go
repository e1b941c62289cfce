package hooks

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/relaykit/relayctl/pkg/commands/utils"
	"github.com/relaykit/relayctl/pkg/common"
	"github.com/relaykit/relayctl/pkg/common/iface"
	"github.com/relaykit/relayctl/pkg/common/logger"
	"github.com/relaykit/relayctl/pkg/telemetry"
)

// EnvFile is the name of the environment file
const EnvFile = ".env"
const namespace = "RelayCtl"

type ActionChain struct {
	Processors []func(action cli.ActionFunc) cli.ActionFunc
}

func NewActionChain() *ActionChain {
	return &ActionChain{
		Processors: make([]func(action cli.ActionFunc) cli.ActionFunc, 0),
	}
}

// Use appends a new processor to the chain
func (ac *ActionChain) Use(processor func(action cli.ActionFunc) cli.ActionFunc) {
	ac.Processors = append(ac.Processors, processor)
}

func (ac *ActionChain) Wrap(action cli.ActionFunc) cli.ActionFunc {
	for i := len(ac.Processors) - 1; i >= 0; i-- {
		action = ac.Processors[i](action)
	}
	return action
}

func ApplyMiddleware(commands []*cli.Command, chain *ActionChain) {
	for _, cmd := range commands {
		if cmd.Action != nil {
			cmd.Action = chain.Wrap(cmd.Action)
		}
		if len(cmd.Subcommands) > 0 {
			ApplyMiddleware(cmd.Subcommands, chain)
		}
	}
}

func getFlagValue(ctx *cli.Context, name string) interface{} {
	if !ctx.IsSet(name) {
		return nil
	}

	if ctx.Bool(name) {
		return ctx.Bool(name)
	}
	if ctx.String(name) != "" {
		return ctx.String(name)
	}
	if values := ctx.StringSlice(name); len(values) > 0 {
		return values
	}
	if ctx.Uint64(name) != 0 {
		return ctx.Uint64(name)
	}
	return nil
}

// collectFlagValues skips the private key; it never leaves the process.
func collectFlagValues(ctx *cli.Context) map[string]interface{} {
	flags := make(map[string]interface{})

	collect := func(list []cli.Flag) {
		for _, flag := range list {
			flagName := flag.Names()[0]
			if flagName == common.PrivateKeyFlag.Name {
				continue
			}
			if ctx.IsSet(flagName) {
				flags[flagName] = getFlagValue(ctx, flagName)
			}
		}
	}
	collect(ctx.App.Flags)
	if ctx.Command != nil {
		collect(ctx.Command.Flags)
	}

	return flags
}

func setupTelemetry(cCtx *cli.Context) telemetry.Client {
	logger := common.LoggerFromContext(cCtx)

	globalPref, err := common.GetGlobalTelemetryPreference()
	if err != nil {
		logger.Debug("Failed to get telemetry preference: %v", err)
		return telemetry.NewNoopClient()
	}

	// unset counts as disabled
	if globalPref == nil || !*globalPref {
		return telemetry.NewNoopClient()
	}

	env, ok := common.CLIEnvironmentFromContext(cCtx.Context)
	if !ok {
		return telemetry.NewNoopClient()
	}

	globalConfig, err := common.LoadGlobalConfig()
	if err != nil || globalConfig == nil || globalConfig.UserUUID == "" {
		if env.UserUUID != "" {
			if err := common.SaveUserId(env.UserUUID); err != nil {
				logger.Debug("Failed to save user UUID: %v", err)
			}
		}
	}

	phClient, err := telemetry.NewPostHogClient(env, namespace)
	if err != nil || phClient == nil {
		return telemetry.NewNoopClient()
	}

	return phClient
}

// WithFirstRunSetup picks the default network and asks about telemetry on the first run.
func WithFirstRunSetup(cCtx *cli.Context) error {
	logger := common.LoggerFromContext(cCtx)

	isFirstRun, err := common.IsFirstRun()
	if err != nil {
		logger.Debug("Failed to check first run status: %v", err)
		return nil
	}
	if !isFirstRun {
		return nil
	}

	fmt.Println()
	fmt.Println("Welcome to relayctl!")
	fmt.Println()

	if err := setDefaultNetwork(logger); err != nil {
		logger.Debug("Setting default network failed: %v", err)
	}

	handleTelemetrySetup(cCtx, logger)

	if err := common.MarkFirstRunComplete(); err != nil {
		logger.Debug("Failed to mark first run complete: %v", err)
	}

	return nil
}

func setDefaultNetwork(logger iface.Logger) error {
	if network, err := common.GetDefaultNetwork(); err == nil && network != "" {
		return nil
	}

	if err := common.SetDefaultNetwork(common.FallbackNetwork); err != nil {
		return err
	}

	fmt.Printf("✅ Network: \033[1m%s\033[0m\n", common.FallbackNetwork)
	fmt.Println("You can change this later with: relayctl network set <network>")
	logger.Debug("Default network set to %s", common.FallbackNetwork)
	return nil
}

func handleTelemetrySetup(cCtx *cli.Context, logger iface.Logger) {
	opts := common.TelemetryPromptOptions{
		EnableTelemetry:  cCtx.Bool("enable-telemetry"),
		DisableTelemetry: cCtx.Bool("disable-telemetry"),
		SkipPromptInCI:   true,
	}

	choice := common.ShowTelemetryNotice(logger, opts)
	if err := common.SetGlobalTelemetryPreference(choice); err != nil {
		logger.Debug("Failed to save telemetry preference: %v", err)
	}
	logger.Debug("First run telemetry setup completed with preference: %v", choice)
}

func WithMetricEmission(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		err := action(ctx)

		client := setupTelemetry(ctx)
		ctx.Context = telemetry.ContextWithClient(ctx.Context, client)
		emitTelemetryMetrics(ctx, err)

		return err
	}
}

func emitTelemetryMetrics(ctx *cli.Context, actionError error) {
	metrics, err := telemetry.MetricsFromContext(ctx.Context)
	if err != nil {
		return
	}
	if ctx.Command != nil {
		metrics.Properties["command"] = ctx.Command.HelpName
	}
	result := "Success"
	dimensions := map[string]string{}
	if actionError != nil {
		result = "Failure"
		dimensions["error"] = actionError.Error()
	}
	metrics.AddMetricWithDimensions(result, 1, dimensions)

	duration := time.Since(metrics.StartTime).Milliseconds()
	metrics.AddMetric("DurationMilliseconds", float64(duration))

	client, ok := telemetry.ClientFromContext(ctx.Context)
	if !ok {
		return
	}
	defer client.Close()

	l := logger.NewZapLogger(false)
	for _, metric := range metrics.Metrics {
		if metric.Dimensions == nil {
			metric.Dimensions = map[string]string{}
		}
		for k, v := range metrics.Properties {
			metric.Dimensions[k] = v
		}
		if err := client.AddMetric(ctx.Context, metric); err != nil {
			l.Error("failed to add metric: %v", err)
		}
	}
}

// LoadEnvFile loads ./.env when present; variables already set win.
func LoadEnvFile(_ *cli.Context) error {
	if _, err := os.Stat(EnvFile); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(EnvFile)
}

// networkForMetrics avoids the RPC round trip that full network detection needs.
func networkForMetrics(ctx *cli.Context) string {
	if network := ctx.String(common.NetworkFlag.Name); network != "" {
		return network
	}
	if network, _ := common.GetDefaultNetwork(); network != "" {
		return network
	}
	return common.FallbackNetwork
}

func WithCommandMetricsContext(ctx *cli.Context) error {
	metrics := telemetry.NewMetricsContext()
	ctx.Context = telemetry.WithMetricsContext(ctx.Context, metrics)

	metrics.Properties["network"] = networkForMetrics(ctx)

	if env, ok := common.CLIEnvironmentFromContext(ctx.Context); ok {
		metrics.Properties["cli_version"] = env.CLIVersion
		metrics.Properties["os"] = env.OS
		metrics.Properties["arch"] = env.Arch
		metrics.Properties["user_uuid"] = env.UserUUID
	}

	if owner, err := utils.GetOwnerAddress(ctx); err == nil {
		metrics.Properties["owner_address"] = owner.Hex()
	}

	for k, v := range collectFlagValues(ctx) {
		metrics.Properties[k] = fmt.Sprintf("%v", v)
	}

	metrics.AddMetric("Count", 1)
	return nil
}
