package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/DeafMist/signal-radar/internal/dataset"
)

// Common describes the backing file shared by every binary.
type Common struct {
	DataFile     string
	Delimiter    rune
	DefaultsFile string
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr string
}

// Sync configures the Elasticsearch/Kafka mirror loop.
type Sync struct {
	Common
	ElasticsearchAddr  string
	ElasticsearchIndex string
	KafkaBrokers       []string
	KafkaTopic         string
	Interval           time.Duration
	KeywordLimit       int
	KeywordMinLength   int
	DedupeCapacity     int
	DedupeTTL          time.Duration
}

// CLI configures signalctl.
type CLI struct {
	Common
}

// LoadAPI builds an API config from environment variables and the optional
// SIGNALS_CONFIG file.
func LoadAPI() (*API, error) {
	v, err := newViper("")
	if err != nil {
		return nil, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:   common,
		BindAddr: v.GetString("api_bind_addr"),
	}
	if strings.TrimSpace(c.BindAddr) == "" {
		return nil, fmt.Errorf("API_BIND_ADDR must not be blank")
	}

	return c, nil
}

// LoadSync builds a Sync config from environment variables and the optional
// SIGNALS_CONFIG file.
func LoadSync() (*Sync, error) {
	v, err := newViper("")
	if err != nil {
		return nil, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return nil, err
	}

	c := &Sync{
		Common:             common,
		ElasticsearchAddr:  v.GetString("elasticsearch_addr"),
		ElasticsearchIndex: v.GetString("elasticsearch_index"),
		KafkaBrokers:       splitAndTrim(v.GetString("kafka_brokers")),
		KafkaTopic:         v.GetString("sync_kafka_topic"),
		Interval:           v.GetDuration("sync_interval"),
		KeywordLimit:       v.GetInt("sync_keyword_limit"),
		KeywordMinLength:   v.GetInt("sync_keyword_min_len"),
		DedupeCapacity:     v.GetInt("sync_dedupe_capacity"),
		DedupeTTL:          v.GetDuration("sync_dedupe_ttl"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.KafkaTopic == "" {
		return nil, fmt.Errorf("SYNC_KAFKA_TOPIC must not be blank")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.KeywordLimit <= 0 {
		return nil, fmt.Errorf("SYNC_KEYWORD_LIMIT must be positive")
	}
	if c.KeywordMinLength < 0 {
		return nil, fmt.Errorf("SYNC_KEYWORD_MIN_LEN cannot be negative")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("SYNC_DEDUPE_CAPACITY must be positive")
	}
	if c.DedupeTTL <= 0 {
		return nil, fmt.Errorf("SYNC_DEDUPE_TTL must be positive")
	}

	return c, nil
}

// LoadCLI builds the signalctl config. configFile, when set, takes the place of
// SIGNALS_CONFIG.
func LoadCLI(configFile string) (*CLI, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return nil, err
	}
	return &CLI{Common: common}, nil
}

// newViper layers env over an optional config file over defaults. Keys are the
// lower-cased env names, so SIGNALS_FILE and signals_file in YAML are the same setting.
func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("signals_file", dataset.DefaultPath(dataset.DefaultFileName))
	v.SetDefault("signals_delimiter", ",")
	v.SetDefault("signals_defaults_file", "")
	v.SetDefault("api_bind_addr", "0.0.0.0:5000")
	v.SetDefault("elasticsearch_addr", "http://elasticsearch:9200")
	v.SetDefault("elasticsearch_index", "signals")
	v.SetDefault("kafka_brokers", "kafka:9092")
	v.SetDefault("sync_kafka_topic", "signals_snapshots")
	v.SetDefault("sync_interval", "1m")
	v.SetDefault("sync_keyword_limit", 8)
	v.SetDefault("sync_keyword_min_len", 4)
	v.SetDefault("sync_dedupe_capacity", 50000)
	v.SetDefault("sync_dedupe_ttl", "24h")

	if configFile == "" {
		configFile = os.Getenv("SIGNALS_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	return v, nil
}

func loadCommon(v *viper.Viper) (Common, error) {
	c := Common{
		DataFile:     strings.TrimSpace(v.GetString("signals_file")),
		DefaultsFile: strings.TrimSpace(v.GetString("signals_defaults_file")),
	}
	if c.DataFile == "" {
		return Common{}, fmt.Errorf("SIGNALS_FILE must not be blank")
	}

	delim, err := ParseDelimiter(v.GetString("signals_delimiter"))
	if err != nil {
		return Common{}, fmt.Errorf("SIGNALS_DELIMITER: %w", err)
	}
	c.Delimiter = delim

	return c, nil
}

// ParseDelimiter accepts a single character or one of the names "tab",
// "comma", "semicolon", "pipe" (also `\t`).
func ParseDelimiter(raw string) (rune, error) {
	switch strings.ToLower(raw) {
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}
	if utf8.RuneCountInString(raw) != 1 {
		return 0, fmt.Errorf("expected a single character, got %q", raw)
	}
	r, _ := utf8.DecodeRuneInString(raw)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", raw)
	}
	return r, nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
