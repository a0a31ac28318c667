package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
)

// Elasticsearch indexes entries into one index, keyed by request id.
type Elasticsearch struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearch(client *elasticsearch.Client, index string) *Elasticsearch {
	return &Elasticsearch{client: client, index: index}
}

func (j *Elasticsearch) Record(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: encode entry: %v", ErrJournalWriteFailed, err)
	}

	res, err := j.client.Index(
		j.index,
		bytes.NewReader(body),
		j.client.Index.WithContext(ctx),
		j.client.Index.WithDocumentID(e.RequestID),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJournalWriteFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: index %s: %s", ErrJournalWriteFailed, j.index, res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source Entry `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Recent returns up to limit entries, newest first.
func (j *Elasticsearch) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`{"size": %d, "sort": [{"@timestamp": {"order": "desc"}}], "query": {"match_all": {}}}`, limit)

	res, err := j.client.Search(
		j.client.Search.WithContext(ctx),
		j.client.Search.WithIndex(j.index),
		j.client.Search.WithBody(strings.NewReader(query)),
		j.client.Search.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search journal: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search journal %s: %s", j.index, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode journal search: %w", err)
	}

	out := make([]Entry, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
