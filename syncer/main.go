package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/DeafMist/signal-radar/internal/config"
	"github.com/DeafMist/signal-radar/internal/dataset"
	"github.com/DeafMist/signal-radar/internal/dedupe"
	"github.com/DeafMist/signal-radar/internal/elasticsearch"
	"github.com/DeafMist/signal-radar/internal/events"
	"github.com/DeafMist/signal-radar/internal/logger"
	"github.com/DeafMist/signal-radar/internal/models"
	"github.com/DeafMist/signal-radar/internal/processing"
	"github.com/DeafMist/signal-radar/internal/signals"
)

const deleteBatchSize = 1000

type signalIndexer interface {
	IndexSignal(ctx context.Context, doc models.SignalDocument) error
	DeleteExcept(ctx context.Context, keep []string, batchSize int) (int64, error)
}

type snapshotPublisher interface {
	PublishSnapshot(ctx context.Context, ev models.SnapshotEvent) error
}

func main() {
	log := logger.New("syncer")
	cfg, err := config.LoadSync()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	defaults, err := dataset.LoadFillPolicy(cfg.DefaultsFile)
	if err != nil {
		log.Error("load defaults", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := connectElasticsearch(ctx, log, cfg)
	if err != nil {
		log.Error("failed to connect to elasticsearch after retries", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("connected to elasticsearch")

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("close publisher", slog.Any("err", err))
		}
	}()

	s := &syncer{
		log: log,
		cfg: cfg,
		loader: dataset.NewLoader(dataset.Options{
			Path:      cfg.DataFile,
			Delimiter: cfg.Delimiter,
			Defaults:  defaults,
			Logger:    log,
		}),
		index: esClient,
		pub:   publisher,
		cache: dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL),
		now:   time.Now,
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("syncer running",
		slog.String("data_file", cfg.DataFile),
		slog.String("topic", cfg.KafkaTopic),
		slog.Duration("interval", cfg.Interval),
	)

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// connectElasticsearch retries with exponential backoff capped at 30s.
func connectElasticsearch(ctx context.Context, log *slog.Logger, cfg *config.Sync) (*elasticsearch.Client, error) {
	const maxRetries = 10
	retryDelay := 2 * time.Second

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		client, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = client.Ping(pingCtx)
			if err == nil {
				err = client.Health(pingCtx)
			}
			cancel()
			if err == nil {
				return client, nil
			}
		}
		lastErr = err
		log.Warn("elasticsearch not ready, retrying",
			slog.Any("err", err),
			slog.Int("attempt", i+1),
			slog.Int("max_retries", maxRetries),
			slog.Duration("retry_in", retryDelay),
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		retryDelay *= 2
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}
	return nil, lastErr
}

type syncer struct {
	log    *slog.Logger
	cfg    *config.Sync
	loader signals.Source
	index  signalIndexer
	pub    snapshotPublisher
	cache  *dedupe.Cache
	now    func() time.Time
}

func (s *syncer) tick(ctx context.Context) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	ev, err := s.runOnce(subCtx)
	if err != nil {
		s.log.Warn("sync round failed (will retry on next interval)", slog.Any("err", err))
		return
	}
	s.log.Info("sync round completed",
		slog.String("snapshot", ev.ID),
		slog.Int("signals", ev.TotalSignals),
		slog.Int("indexed", ev.Indexed),
		slog.Int("skipped", ev.Skipped),
		slog.Int64("deleted", ev.Deleted),
	)
}

// runOnce mirrors the current file into the index and publishes a snapshot.
// A failed load leaves the mirror untouched.
func (s *syncer) runOnce(ctx context.Context) (*models.SnapshotEvent, error) {
	res := s.loader.Load(ctx)
	if res.Failed() {
		return nil, fmt.Errorf("load dataset: %w", res.Err)
	}
	ds := res.Dataset
	now := s.now().UTC()

	keep := make([]string, 0, ds.Len())
	keepSet := make(map[string]struct{}, ds.Len())
	occurrences := make(map[string]int, ds.Len())
	indexed, skipped := 0, 0

	for i, rec := range ds.Records {
		id, err := s.documentID(rec, occurrences)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		keep = append(keep, id)
		keepSet[id] = struct{}{}

		if s.cache.IsSeen(id) {
			skipped++
			continue
		}

		doc := buildDocument(rec, i, id, s.cfg.KeywordLimit, s.cfg.KeywordMinLength, now)
		if err := s.index.IndexSignal(ctx, doc); err != nil {
			return nil, fmt.Errorf("index row %d: %w", i+1, err)
		}
		s.cache.MarkSeen(id)
		indexed++
	}

	deleted, err := s.index.DeleteExcept(ctx, keep, deleteBatchSize)
	if err != nil {
		return nil, fmt.Errorf("delete stale signals: %w", err)
	}
	s.cache.Retain(keepSet)

	ev := models.SnapshotEvent{
		ID:      uuid.NewString(),
		File:    s.cfg.DataFile,
		TakenAt: now,
		Indexed: indexed,
		Skipped: skipped,
		Deleted: deleted,
	}
	if stats := signals.Summarize(ds); stats != nil {
		ev.TotalSignals = stats.TotalSignals
		ev.AvgImpact = stats.AvgImpact
		ev.AvgSentiment = stats.AvgSentiment
		ev.HighImpactCount = stats.HighImpactCount
		ev.SourcesCount = stats.SourcesCount
	}
	for _, cc := range signals.CountClusters(ds) {
		ev.Clusters = append(ev.Clusters, models.ClusterCount{Cluster: cc.Cluster, Count: cc.Count})
	}

	if err := s.pub.PublishSnapshot(ctx, ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// documentID is the content hash of the row, salted with the number of
// identical rows seen before it in this round.
func (s *syncer) documentID(rec dataset.Record, occurrences map[string]int) (string, error) {
	base, err := processing.BuildDocumentID(rec, 0)
	if err != nil {
		return "", err
	}
	n := occurrences[base]
	occurrences[base] = n + 1
	if n == 0 {
		return base, nil
	}
	return processing.BuildDocumentID(rec, n)
}

var namedFields = map[string]struct{}{
	dataset.FieldSource:         {},
	dataset.FieldTitle:          {},
	dataset.FieldSummary:        {},
	dataset.FieldImpactScore:    {},
	dataset.FieldSentimentScore: {},
	dataset.FieldImpactLevel:    {},
	dataset.FieldTopicCluster:   {},
}

func buildDocument(rec dataset.Record, row int, id string, keywordLimit, keywordMinLen int, now time.Time) models.SignalDocument {
	title := dataset.Stringify(rec[dataset.FieldTitle])
	summary := dataset.Stringify(rec[dataset.FieldSummary])
	impact, _ := dataset.Float(rec[dataset.FieldImpactScore])
	sentiment, _ := dataset.Float(rec[dataset.FieldSentimentScore])

	doc := models.SignalDocument{
		ID:             id,
		Source:         dataset.Stringify(rec[dataset.FieldSource]),
		Title:          title,
		Summary:        summary,
		ImpactScore:    impact,
		SentimentScore: sentiment,
		ImpactLevel:    dataset.Stringify(rec[dataset.FieldImpactLevel]),
		TopicCluster:   dataset.Stringify(rec[dataset.FieldTopicCluster]),
		Keywords:       processing.ExtractKeywords(title+" "+summary, keywordLimit, keywordMinLen),
		URLs:           processing.ExtractURLs(strings.Join([]string{title, summary}, " ")),
		Row:            row + 1,
		IndexedAt:      now,
	}

	for k, v := range rec {
		if _, named := namedFields[k]; named || v == nil {
			continue
		}
		if doc.Extra == nil {
			doc.Extra = make(map[string]any)
		}
		doc.Extra[k] = v
	}
	return doc
}
