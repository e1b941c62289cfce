package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNoMetricsContext = errors.New("no metrics context")

type Metric struct {
	Name       string
	Value      float64
	Dimensions map[string]string
}

// MetricsContext accumulates the metrics of one command invocation.
type MetricsContext struct {
	mu         sync.Mutex
	StartTime  time.Time
	Metrics    []Metric
	Properties map[string]string
}

func NewMetricsContext() *MetricsContext {
	return &MetricsContext{
		StartTime:  time.Now(),
		Metrics:    make([]Metric, 0),
		Properties: make(map[string]string),
	}
}

func (m *MetricsContext) AddMetric(name string, value float64) {
	m.AddMetricWithDimensions(name, value, nil)
}

func (m *MetricsContext) AddMetricWithDimensions(name string, value float64, dimensions map[string]string) {
	dims := make(map[string]string, len(dimensions))
	for k, v := range dimensions {
		dims[k] = v
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Metrics = append(m.Metrics, Metric{Name: name, Value: value, Dimensions: dims})
}

type metricsContextKey struct{}

func WithMetricsContext(ctx context.Context, metrics *MetricsContext) context.Context {
	return context.WithValue(ctx, metricsContextKey{}, metrics)
}

func MetricsFromContext(ctx context.Context) (*MetricsContext, error) {
	metrics, ok := ctx.Value(metricsContextKey{}).(*MetricsContext)
	if !ok || metrics == nil {
		return nil, ErrNoMetricsContext
	}
	return metrics, nil
}
