package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// rotateStats 进程内收集 xrotate 指标，退出时打印
type rotateStats struct {
	provider *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
}

func newRotateStats() *rotateStats {
	reader := sdkmetric.NewManualReader()
	return &rotateStats{
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		reader:   reader,
	}
}

// totals 按指标名汇总所有 int64 计数器
func (s *rotateStats) totals(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				out[m.Name] += dp.Value
			}
		}
	}
	return out, nil
}

func (s *rotateStats) print(ctx context.Context, w io.Writer) {
	totals, err := s.totals(ctx)
	if err != nil {
		fmt.Fprintf(w, "stats unavailable: %v\n", err)
		return
	}
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s %d\n", name, totals[name])
	}
}

func (s *rotateStats) shutdown() {
	_ = s.provider.Shutdown(context.Background())
}
