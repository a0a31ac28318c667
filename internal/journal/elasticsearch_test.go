package journal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticsearch_Record(t *testing.T) {
	var (
		gotPath string
		gotDoc  Entry
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	j := NewElasticsearch(client, "task-router-commands")
	entry := Entry{
		RequestID:  "req-1",
		Utterance:  "complete task 3",
		Intent:     "complete_task",
		Operation:  "complete_task",
		Success:    true,
		Status:     "success",
		Source:     "router",
		DurationMs: 4,
		Timestamp:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, j.Record(context.Background(), entry))
	assert.Equal(t, "/task-router-commands/_doc/req-1", gotPath)
	assert.Equal(t, entry, gotDoc)
}

func TestElasticsearch_Record_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := NewElasticsearch(client, "idx").Record(context.Background(), Entry{RequestID: "r"})
	assert.ErrorIs(t, err, ErrJournalWriteFailed)
}

func TestElasticsearch_Recent(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/idx/_search"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		gotQuery = string(body)
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_source":{"request_id":"b","utterance":"list tasks","intent":"list_tasks","success":true,"status":"success"}},
			{"_source":{"request_id":"a","utterance":"hello","intent":"unknown","success":true,"status":"success"}}
		]}}`))
	})

	entries, err := NewElasticsearch(client, "idx").Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].RequestID)
	assert.Equal(t, "list_tasks", entries[0].Intent)
	assert.Contains(t, gotQuery, `"size": 2`)
}

func TestNop(t *testing.T) {
	var j Journal = Nop{}
	assert.NoError(t, j.Record(context.Background(), Entry{}))
	entries, err := j.Recent(context.Background(), 5)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}
