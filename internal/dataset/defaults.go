package dataset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field names with a fill-in default.
const (
	FieldSource         = "Source"
	FieldTitle          = "Title"
	FieldSummary        = "Summary"
	FieldImpactScore    = "impact_score"
	FieldSentimentScore = "sentiment_score"
	FieldImpactLevel    = "impact_level"
	FieldTopicCluster   = "topic_cluster"
)

// Default is the value written into a missing cell of Field.
type Default struct {
	Field string
	Value Value
}

// FillPolicy is the ordered default table applied after parsing.
type FillPolicy []Default

// DefaultFillPolicy returns the built-in defaults for the seven signal fields.
func DefaultFillPolicy() FillPolicy {
	return FillPolicy{
		{Field: FieldSource, Value: "Unknown"},
		{Field: FieldTitle, Value: "No Title"},
		{Field: FieldSummary, Value: "No Summary"},
		{Field: FieldImpactScore, Value: int64(0)},
		{Field: FieldSentimentScore, Value: int64(0)},
		{Field: FieldImpactLevel, Value: "Low"},
		{Field: FieldTopicCluster, Value: "Uncategorized"},
	}
}

// Lookup returns the default for field.
func (p FillPolicy) Lookup(field string) (Value, bool) {
	for _, d := range p {
		if d.Field == field {
			return d.Value, true
		}
	}
	return nil, false
}

// With returns a copy of p where field defaults to v. Unknown fields are appended.
func (p FillPolicy) With(field string, v Value) FillPolicy {
	out := make(FillPolicy, len(p), len(p)+1)
	copy(out, p)
	for i := range out {
		if out[i].Field == field {
			out[i].Value = v
			return out
		}
	}
	return append(out, Default{Field: field, Value: v})
}

// LoadFillPolicy reads a YAML mapping of field -> default and layers it over
// the built-in table. An empty path yields the built-in table.
func LoadFillPolicy(path string) (FillPolicy, error) {
	policy := DefaultFillPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read defaults file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse defaults file: %w", err)
	}
	if len(doc.Content) == 0 {
		return policy, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("defaults file %s: expected a mapping of field to value", path)
	}

	// Walk the node pairs instead of decoding into a map so file order is kept
	// for appended fields.
	for i := 0; i+1 < len(root.Content); i += 2 {
		field := root.Content[i].Value
		var raw any
		if err := root.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode default for %q: %w", field, err)
		}
		v, err := normalizeDefault(raw)
		if err != nil {
			return nil, fmt.Errorf("default for %q: %w", field, err)
		}
		policy = policy.With(field, v)
	}

	return policy, nil
}

func normalizeDefault(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return nil, fmt.Errorf("value cannot be null")
	case string, int64, float64, bool:
		return t, nil
	case int:
		return int64(t), nil
	case uint64:
		return int64(t), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
}
