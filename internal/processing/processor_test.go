package processing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/signal-radar/internal/processing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "entities", input: "Fed &amp; ECB", want: "Fed ECB"},
		{name: "punctuation", input: "Rates!!!   hold", want: "Rates hold"},
		{name: "collapse whitespace", input: "foo\n\nbar\t baz", want: "foo bar baz"},
		{name: "remove urls", input: "See https://example.com/a?b=1 now", want: "See now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.CleanText(tt.input))
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	text := "Oil oil supply supply supply shock and the markets"
	require.Equal(t, []string{"supply", "oil", "markets"}, processing.ExtractKeywords(text, 3, 3))
	require.Nil(t, processing.ExtractKeywords("", 5, 3))
	require.Nil(t, processing.ExtractKeywords("the and of", 5, 1))
}

func TestExtractKeywordsIgnoresURLs(t *testing.T) {
	got := processing.ExtractKeywords("tariff https://example.com/tariff-news tariff exports", 5, 3)
	require.Equal(t, []string{"tariff", "exports"}, got)
}

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "none", input: "no links here", want: nil},
		{name: "single", input: "read https://example.com today", want: []string{"https://example.com"}},
		{name: "dedupe", input: "http://a.io and http://a.io and https://b.io/x", want: []string{"http://a.io", "https://b.io/x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.ExtractURLs(tt.input))
		})
	}
}

func TestBuildDocumentID(t *testing.T) {
	row := map[string]any{"Source": "X", "impact_score": int64(5), "note": nil}

	id1, err := processing.BuildDocumentID(row, 0)
	require.NoError(t, err)
	id2, err := processing.BuildDocumentID(map[string]any{"note": nil, "impact_score": int64(5), "Source": "X"}, 0)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
	require.Len(t, id1, 40)

	dup, err := processing.BuildDocumentID(row, 1)
	require.NoError(t, err)
	require.NotEqual(t, id1, dup)
}
