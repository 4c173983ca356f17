package models

import "time"

// SignalDocument is one dataset record as mirrored into Elasticsearch.
type SignalDocument struct {
	ID             string         `json:"id"`
	Source         string         `json:"source"`
	Title          string         `json:"title"`
	Summary        string         `json:"summary"`
	ImpactScore    float64        `json:"impact_score"`
	SentimentScore float64        `json:"sentiment_score"`
	ImpactLevel    string         `json:"impact_level"`
	TopicCluster   string         `json:"topic_cluster"`
	Keywords       []string       `json:"keywords"`
	URLs           []string       `json:"urls,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
	Row            int            `json:"row"`
	IndexedAt      time.Time      `json:"indexed_at"`
}

// ClusterCount is one entry of a snapshot's cluster breakdown.
type ClusterCount struct {
	Cluster string `json:"cluster"`
	Count   int    `json:"count"`
}

// SnapshotEvent is published after every successful sync round.
type SnapshotEvent struct {
	ID              string         `json:"id"`
	File            string         `json:"file"`
	TakenAt         time.Time      `json:"taken_at"`
	TotalSignals    int            `json:"total_signals"`
	AvgImpact       float64        `json:"avg_impact"`
	AvgSentiment    float64        `json:"avg_sentiment"`
	HighImpactCount int            `json:"high_impact_count"`
	SourcesCount    int            `json:"sources_count"`
	Clusters        []ClusterCount `json:"clusters"`
	Indexed         int            `json:"indexed"`
	Skipped         int            `json:"skipped"`
	Deleted         int64          `json:"deleted"`
}
