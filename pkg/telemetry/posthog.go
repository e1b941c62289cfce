package telemetry

import (
	"context"
	"os"

	"github.com/posthog/posthog-go"

	"github.com/relaykit/relayctl/pkg/common"
)

const (
	PostHogKeyEnvVar      = "RELAYCTL_POSTHOG_KEY"
	PostHogEndpointEnvVar = "RELAYCTL_POSTHOG_ENDPOINT"
	defaultPostHogHost    = "https://us.i.posthog.com"
)

// embeddedTelemetryApiKey is set at build time with -ldflags "-X".
var embeddedTelemetryApiKey = ""

// PostHogClient sends command metrics to PostHog as one event per metric.
type PostHogClient struct {
	namespace string
	client    posthog.Client
	env       *common.CLIEnvironment
}

// NewPostHogClient returns nil, nil when no API key is configured.
func NewPostHogClient(env *common.CLIEnvironment, namespace string) (*PostHogClient, error) {
	apiKey := getPostHogAPIKey()
	if apiKey == "" {
		return nil, nil
	}
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: getPostHogEndpoint()})
	if err != nil {
		return nil, err
	}
	return &PostHogClient{
		namespace: namespace,
		client:    client,
		env:       env,
	}, nil
}

func (c *PostHogClient) AddMetric(_ context.Context, metric Metric) error {
	if c == nil || c.client == nil {
		return nil
	}

	props := posthog.NewProperties().
		Set("name", metric.Name).
		Set("value", metric.Value)
	for k, v := range metric.Dimensions {
		props.Set(k, v)
	}

	return c.client.Enqueue(posthog.Capture{
		DistinctId: c.env.UserUUID,
		Event:      c.namespace,
		Properties: props,
	})
}

func (c *PostHogClient) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	_ = c.client.Close()
	return nil
}

func getPostHogAPIKey() string {
	if key := os.Getenv(PostHogKeyEnvVar); key != "" {
		return key
	}
	return embeddedTelemetryApiKey
}

func getPostHogEndpoint() string {
	if endpoint := os.Getenv(PostHogEndpointEnvVar); endpoint != "" {
		return endpoint
	}
	return defaultPostHogHost
}

// Destination describes where metrics go, or "" when no API key is configured.
func Destination() string {
	if getPostHogAPIKey() == "" {
		return ""
	}
	return getPostHogEndpoint()
}
