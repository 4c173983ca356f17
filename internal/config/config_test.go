package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DeafMist/signal-radar/internal/config"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SIGNALS_CONFIG", "SIGNALS_FILE", "SIGNALS_DELIMITER", "SIGNALS_DEFAULTS_FILE",
		"API_BIND_ADDR", "ELASTICSEARCH_ADDR", "ELASTICSEARCH_INDEX", "KAFKA_BROKERS",
		"SYNC_KAFKA_TOPIC", "SYNC_INTERVAL", "SYNC_KEYWORD_LIMIT", "SYNC_KEYWORD_MIN_LEN",
		"SYNC_DEDUPE_CAPACITY", "SYNC_DEDUPE_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadAPIDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:5000", cfg.BindAddr)
	require.Equal(t, "data.csv", filepath.Base(cfg.DataFile))
	require.True(t, filepath.IsAbs(cfg.DataFile))
	require.Equal(t, ',', cfg.Delimiter)
	require.Empty(t, cfg.DefaultsFile)
}

func TestLoadAPIOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("SIGNALS_FILE", "/srv/signals.tsv")
	t.Setenv("SIGNALS_DELIMITER", "tab")
	t.Setenv("SIGNALS_DEFAULTS_FILE", "/etc/signals/defaults.yaml")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, "/srv/signals.tsv", cfg.DataFile)
	require.Equal(t, '\t', cfg.Delimiter)
	require.Equal(t, "/etc/signals/defaults.yaml", cfg.DefaultsFile)
}

func TestLoadAPIRejectsBadDelimiter(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIGNALS_DELIMITER", ";;")

	_, err := config.LoadAPI()
	require.ErrorContains(t, err, "SIGNALS_DELIMITER")
}

func TestLoadSyncDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadSync()
	require.NoError(t, err)
	require.Equal(t, "http://elasticsearch:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "signals", cfg.ElasticsearchIndex)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "signals_snapshots", cfg.KafkaTopic)
	require.Equal(t, time.Minute, cfg.Interval)
	require.Equal(t, 8, cfg.KeywordLimit)
	require.Equal(t, 4, cfg.KeywordMinLength)
	require.Equal(t, 50000, cfg.DedupeCapacity)
	require.Equal(t, 24*time.Hour, cfg.DedupeTTL)
}

func TestLoadSyncOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ELASTICSEARCH_ADDR", "http://localhost:9999")
	t.Setenv("ELASTICSEARCH_INDEX", "custom")
	t.Setenv("KAFKA_BROKERS", "broker-a:29092, broker-b:29093")
	t.Setenv("SYNC_KAFKA_TOPIC", "custom_topic")
	t.Setenv("SYNC_INTERVAL", "30s")
	t.Setenv("SYNC_KEYWORD_LIMIT", "12")
	t.Setenv("SYNC_KEYWORD_MIN_LEN", "5")
	t.Setenv("SYNC_DEDUPE_CAPACITY", "5")
	t.Setenv("SYNC_DEDUPE_TTL", "48h")

	cfg, err := config.LoadSync()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9999", cfg.ElasticsearchAddr)
	require.Equal(t, "custom", cfg.ElasticsearchIndex)
	require.Equal(t, []string{"broker-a:29092", "broker-b:29093"}, cfg.KafkaBrokers)
	require.Equal(t, "custom_topic", cfg.KafkaTopic)
	require.Equal(t, 30*time.Second, cfg.Interval)
	require.Equal(t, 12, cfg.KeywordLimit)
	require.Equal(t, 5, cfg.KeywordMinLength)
	require.Equal(t, 5, cfg.DedupeCapacity)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)
}

func TestLoadSyncValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "brokers", key: "KAFKA_BROKERS", val: " , "},
		{name: "interval", key: "SYNC_INTERVAL", val: "-1s"},
		{name: "keyword limit", key: "SYNC_KEYWORD_LIMIT", val: "0"},
		{name: "keyword min len", key: "SYNC_KEYWORD_MIN_LEN", val: "-2"},
		{name: "dedupe capacity", key: "SYNC_DEDUPE_CAPACITY", val: "-1"},
		{name: "dedupe ttl", key: "SYNC_DEDUPE_TTL", val: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := config.LoadSync()
			require.ErrorContains(t, err, tt.key)
		})
	}
}

func TestConfigFileIsLayeredUnderEnv(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "signals.yaml")
	require.NoError(t, os.WriteFile(p, []byte("signals_file: /data/from-file.csv\napi_bind_addr: \":7000\"\n"), 0o644))
	t.Setenv("SIGNALS_CONFIG", p)
	t.Setenv("API_BIND_ADDR", ":8000")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, "/data/from-file.csv", cfg.DataFile)
	require.Equal(t, ":8000", cfg.BindAddr)
}

func TestLoadCLIConfigFile(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "cli.yaml")
	require.NoError(t, os.WriteFile(p, []byte("signals_file: ./signals.csv\nsignals_delimiter: semicolon\n"), 0o644))

	cfg, err := config.LoadCLI(p)
	require.NoError(t, err)
	require.Equal(t, "./signals.csv", cfg.DataFile)
	require.Equal(t, ';', cfg.Delimiter)

	_, err = config.LoadCLI(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		raw     string
		want    rune
		wantErr bool
	}{
		{raw: ",", want: ','},
		{raw: "|", want: '|'},
		{raw: "tab", want: '\t'},
		{raw: `\t`, want: '\t'},
		{raw: "Semicolon", want: ';'},
		{raw: "", wantErr: true},
		{raw: "ab", wantErr: true},
		{raw: `"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := config.ParseDelimiter(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
