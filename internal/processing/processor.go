package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var (
	urlPattern  = regexp.MustCompile(`https?://[^\s"'<>]+`)
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "in": {}, "for": {}, "of": {}, "on": {},
	"and": {}, "or": {}, "but": {}, "with": {}, "from": {}, "into": {}, "over": {},
	"that": {}, "this": {}, "these": {}, "those": {}, "than": {}, "then": {},
	"after": {}, "before": {}, "about": {}, "amid": {}, "says": {}, "said": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "have": {}, "has": {}, "been": {},
	"were": {}, "their": {}, "there": {}, "which": {}, "while": {}, "what": {}, "when": {},
}

// ExtractURLs returns the distinct HTTP(S) links in text, in order of appearance.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, u := range matches {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

// CleanText unescapes HTML entities and drops links, punctuation and repeated whitespace.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	out := html.UnescapeString(input)
	out = urlPattern.ReplaceAllString(out, " ")
	out = punctuation.ReplaceAllString(out, " ")
	out = whitespace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// ExtractKeywords returns up to limit of the most frequent non-stopword tokens
// of at least minLen runes. Ties are broken alphabetically.
func ExtractKeywords(text string, limit, minLen int) []string {
	clean := strings.ToLower(CleanText(text))
	if clean == "" {
		return nil
	}

	freq := make(map[string]int)
	for _, token := range strings.Fields(clean) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len([]rune(token)) < minLen {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		freq[token]++
	}
	if len(freq) == 0 {
		return nil
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] == freq[words[j]] {
			return words[i] < words[j]
		}
		return freq[words[i]] > freq[words[j]]
	})

	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return words
}

// BuildDocumentID hashes the full row plus how many identical rows came before
// it, so duplicate rows keep distinct, stable IDs across runs.
func BuildDocumentID(row map[string]any, occurrence int) (string, error) {
	canonical, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("marshal row: %w", err)
	}
	s := sha1.Sum([]byte(string(canonical) + "|" + strconv.Itoa(occurrence)))
	return hex.EncodeToString(s[:]), nil
}
