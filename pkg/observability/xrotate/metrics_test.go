package xrotate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

// counterValue 汇总某个 int64 计数器所有数据点的值，指标不存在时返回 0
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetricsNilProvider(t *testing.T) {
	m, err := newRotatorMetrics(nil, "/tmp/app.log")
	require.NoError(t, err)
	assert.Nil(t, m)

	// nil 收集器上的调用都是空操作
	assert.NotPanics(t, func() {
		m.recordRotation(nil)
		m.recordRotation(errors.New("x"))
		m.recordPruned(3)
		m.recordWritten(10)
	})
}

func TestMetricsRecorded(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	dir := t.TempDir()
	makeArchives(t, dir, 3)

	r, err := NewSizeRotator(filepath.Join(dir, "app.log"),
		WithMaxSizeBytes(4),
		WithMaxBackups(1),
		WithMeterProvider(mp),
		withClock(newFakeClock(time.Second).Now),
	)
	require.NoError(t, err)
	defer r.Close()

	// 第一次写入清理掉 2 个旧归档；第二次写入前轮转，再清理 1 个
	_, err = r.Write([]byte("aaaaa"))
	require.NoError(t, err)
	_, err = r.Write([]byte("bbb"))
	require.NoError(t, err)

	assert.Equal(t, int64(8), counterValue(t, reader, metricBytesWritten))
	assert.Equal(t, int64(1), counterValue(t, reader, metricRotationsTotal))
	assert.Equal(t, int64(0), counterValue(t, reader, metricRotationFailuresTotal))
	assert.Equal(t, int64(3), counterValue(t, reader, metricPrunedTotal))
}

func TestMetricsRotationFailure(t *testing.T) {
	mp, reader := newTestMeterProvider(t)

	r, err := NewSizeRotator(filepath.Join(t.TempDir(), "app.log"),
		WithMaxSizeBytes(1),
		WithMeterProvider(mp),
		withRename(func(string, string) error { return errors.New("denied") }),
	)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("a"))
	require.NoError(t, err)
	_, err = r.Write([]byte("b"))
	require.ErrorIs(t, err, ErrRotationFailed)

	assert.Equal(t, int64(1), counterValue(t, reader, metricRotationFailuresTotal))
	assert.Equal(t, int64(0), counterValue(t, reader, metricRotationsTotal))
}
