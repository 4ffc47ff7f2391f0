package xrotate

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称
const (
	metricRotationsTotal        = "xrotate.rotations.total"
	metricRotationFailuresTotal = "xrotate.rotation.failures.total"
	metricPrunedTotal           = "xrotate.archives.pruned.total"
	metricBytesWritten          = "xrotate.bytes.written"

	instrumentationName = "github.com/omeyang/xroll/xrotate"
)

// rotatorMetrics 轮转指标；nil 时所有方法为空操作
type rotatorMetrics struct {
	rotations metric.Int64Counter
	failures  metric.Int64Counter
	pruned    metric.Int64Counter
	written   metric.Int64Counter
	attrs     metric.MeasurementOption
}

// newRotatorMetrics 创建指标收集器，provider 为 nil 时返回 nil（不收集指标）
func newRotatorMetrics(provider metric.MeterProvider, path string) (*rotatorMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(instrumentationName)

	rotations, err := meter.Int64Counter(metricRotationsTotal,
		metric.WithDescription("成功的轮转次数"),
		metric.WithUnit("{rotation}"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter(metricRotationFailuresTotal,
		metric.WithDescription("失败的轮转次数"),
		metric.WithUnit("{rotation}"))
	if err != nil {
		return nil, err
	}
	pruned, err := meter.Int64Counter(metricPrunedTotal,
		metric.WithDescription("被清理的归档数"),
		metric.WithUnit("{file}"))
	if err != nil {
		return nil, err
	}
	written, err := meter.Int64Counter(metricBytesWritten,
		metric.WithDescription("写入的字节数"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	return &rotatorMetrics{
		rotations: rotations,
		failures:  failures,
		pruned:    pruned,
		written:   written,
		attrs:     metric.WithAttributes(attribute.String("file", path)),
	}, nil
}

func (m *rotatorMetrics) recordRotation(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.failures.Add(context.Background(), 1, m.attrs)
		return
	}
	m.rotations.Add(context.Background(), 1, m.attrs)
}

func (m *rotatorMetrics) recordPruned(n int) {
	if m == nil || n == 0 {
		return
	}
	m.pruned.Add(context.Background(), int64(n), m.attrs)
}

func (m *rotatorMetrics) recordWritten(n int) {
	if m == nil || n == 0 {
		return
	}
	m.written.Add(context.Background(), int64(n), m.attrs)
}
