package telemetry

import "context"

// Client sends metrics somewhere. Implementations never fail a command.
type Client interface {
	AddMetric(ctx context.Context, metric Metric) error
	Close() error
}

// NoopClient drops every metric.
type NoopClient struct{}

func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

func (*NoopClient) AddMetric(context.Context, Metric) error { return nil }

func (*NoopClient) Close() error { return nil }

type clientContextKey struct{}

func ContextWithClient(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, clientContextKey{}, client)
}

func ClientFromContext(ctx context.Context) (Client, bool) {
	client, ok := ctx.Value(clientContextKey{}).(Client)
	return client, ok
}
