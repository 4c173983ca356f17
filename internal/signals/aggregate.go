package signals

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-gota/gota/series"

	"github.com/DeafMist/signal-radar/internal/dataset"
)

// Stats summarizes a non-empty dataset.
type Stats struct {
	TotalSignals    int     `json:"total_signals"`
	AvgImpact       float64 `json:"avg_impact"`
	AvgSentiment    float64 `json:"avg_sentiment"`
	HighImpactCount int     `json:"high_impact_count"`
	SourcesCount    int     `json:"sources_count"`
}

// ClusterCount is the number of records carrying one topic_cluster value.
type ClusterCount struct {
	Cluster string `json:"cluster"`
	Count   int    `json:"count"`
}

// ClusterCounts is ordered by count descending, ties in order of first appearance.
// It encodes as a JSON object keeping that order.
type ClusterCounts []ClusterCount

// MarshalJSON writes {"cluster": count, ...}.
func (c ClusterCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cc := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cc.Cluster)
		if err != nil {
			return nil, fmt.Errorf("marshal cluster name: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", cc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Map returns the counts keyed by cluster name.
func (c ClusterCounts) Map() map[string]int {
	out := make(map[string]int, len(c))
	for _, cc := range c {
		out[cc.Cluster] = cc.Count
	}
	return out
}

// Summarize computes Stats, or nil for an empty dataset.
func Summarize(ds *dataset.Dataset) *Stats {
	if ds.Len() == 0 {
		return nil
	}
	return &Stats{
		TotalSignals:    ds.Len(),
		AvgImpact:       mean(ds.Column(dataset.FieldImpactScore)),
		AvgSentiment:    mean(ds.Column(dataset.FieldSentimentScore)),
		HighImpactCount: CountHighImpact(ds),
		SourcesCount:    countDistinct(ds.Column(dataset.FieldSource)),
	}
}

// CountHighImpact counts records whose impact_level reads "high" in any case.
// The value is compared as text, untrimmed.
func CountHighImpact(ds *dataset.Dataset) int {
	n := 0
	for _, v := range ds.Column(dataset.FieldImpactLevel) {
		if strings.ToLower(dataset.Stringify(v)) == "high" {
			n++
		}
	}
	return n
}

// CountClusters groups records by topic_cluster.
func CountClusters(ds *dataset.Dataset) ClusterCounts {
	index := make(map[string]int)
	counts := ClusterCounts{}
	for _, v := range ds.Column(dataset.FieldTopicCluster) {
		key := dataset.Stringify(v)
		if i, ok := index[key]; ok {
			counts[i].Count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, ClusterCount{Cluster: key, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// mean averages the values that coerce to numbers; 0 when none do.
func mean(values []dataset.Value) float64 {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := dataset.Float(v); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		return 0
	}
	return series.Floats(nums).Mean()
}

// countDistinct compares values by type and text, so 1 and "1" differ.
func countDistinct(values []dataset.Value) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[fmt.Sprintf("%T|%s", v, dataset.Stringify(v))] = struct{}{}
	}
	return len(seen)
}
