package elasticsearch_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/signal-radar/internal/elasticsearch"
	"github.com/DeafMist/signal-radar/internal/models"
)

type captured struct {
	method string
	path   string
	body   []byte
}

// fakeCluster answers like Elasticsearch closely enough for the client's product check.
func fakeCluster(t *testing.T, status int, reply string) (*httptest.Server, *[]captured) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, captured{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestIndexSignal(t *testing.T) {
	srv, calls := fakeCluster(t, http.StatusCreated, `{"result":"created"}`)
	client, err := elasticsearch.New(srv.URL, "signals", nil)
	require.NoError(t, err)

	doc := models.SignalDocument{ID: "abc123", Source: "X", Title: "Rates hold", TopicCluster: "Tech"}
	require.NoError(t, client.IndexSignal(context.Background(), doc))

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	require.Equal(t, http.MethodPut, call.method)
	require.Equal(t, "/signals/_doc/abc123", call.path)

	var sent models.SignalDocument
	require.NoError(t, json.Unmarshal(call.body, &sent))
	require.Equal(t, "Rates hold", sent.Title)
}

func TestIndexSignalError(t *testing.T) {
	srv, _ := fakeCluster(t, http.StatusBadRequest, `{"error":"mapper_parsing_exception"}`)
	client, err := elasticsearch.New(srv.URL, "signals", nil)
	require.NoError(t, err)

	err = client.IndexSignal(context.Background(), models.SignalDocument{ID: "x"})
	require.ErrorContains(t, err, "mapper_parsing_exception")
}

func TestDeleteExcept(t *testing.T) {
	srv, calls := fakeCluster(t, http.StatusOK, `{"deleted":3}`)
	client, err := elasticsearch.New(srv.URL, "signals", nil)
	require.NoError(t, err)

	deleted, err := client.DeleteExcept(context.Background(), []string{"a", "b"}, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), deleted)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	require.Equal(t, "/signals/_delete_by_query", call.path)
	require.JSONEq(t, `{"query":{"bool":{"must_not":[{"ids":{"values":["a","b"]}}]}}}`, string(call.body))
}

func TestDeleteExceptMissingIndex(t *testing.T) {
	srv, _ := fakeCluster(t, http.StatusNotFound, `{"error":{"type":"index_not_found_exception"}}`)
	client, err := elasticsearch.New(srv.URL, "signals", nil)
	require.NoError(t, err)

	deleted, err := client.DeleteExcept(context.Background(), nil, 100)
	require.NoError(t, err)
	require.Zero(t, deleted)
}

func TestPingAndHealth(t *testing.T) {
	srv, _ := fakeCluster(t, http.StatusOK, `{"status":"green"}`)
	client, err := elasticsearch.New(srv.URL, "signals", nil)
	require.NoError(t, err)

	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Health(context.Background()))
}
