package signals

import (
	"context"

	"github.com/DeafMist/signal-radar/internal/dataset"
)

// Source yields a freshly loaded dataset on every call.
type Source interface {
	Load(ctx context.Context) dataset.Result
}

// Service answers the dashboard queries. Each call reloads the source; nothing
// is cached between calls.
type Service struct {
	src Source
}

// NewService wraps a dataset source.
func NewService(src Source) *Service {
	return &Service{src: src}
}

// Records returns every record in file order, or an empty slice.
func (s *Service) Records(ctx context.Context) []dataset.Record {
	res := s.src.Load(ctx)
	if res.Empty() {
		return []dataset.Record{}
	}
	return res.Dataset.Records
}

// Stats returns the summary, or nil when there is nothing to summarize.
func (s *Service) Stats(ctx context.Context) *Stats {
	return Summarize(s.src.Load(ctx).Dataset)
}

// HighImpactCount returns the number of high-impact records; ok is false on
// an empty dataset.
func (s *Service) HighImpactCount(ctx context.Context) (int, bool) {
	res := s.src.Load(ctx)
	if res.Empty() {
		return 0, false
	}
	return CountHighImpact(res.Dataset), true
}

// Clusters returns per-cluster record counts; empty when there are no records.
func (s *Service) Clusters(ctx context.Context) ClusterCounts {
	return CountClusters(s.src.Load(ctx).Dataset)
}
