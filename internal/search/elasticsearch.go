package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"lanhall/internal/config"
	"lanhall/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Client indexes settled sessions into Elasticsearch and serves the
// operator's session-history search.
type Client struct {
	client *elasticsearch.Client
	config config.ElasticsearchConfig
}

func NewClient(cfg config.ElasticsearchConfig) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &Client{
		client: es,
		config: cfg,
	}

	if err := client.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

// ensureIndex creates the sessions index if it does not exist
func (c *Client) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"seat_id": map[string]interface{}{
					"type": "keyword",
				},
				"seat_name": map[string]interface{}{
					"type": "keyword",
				},
				"account_id": map[string]interface{}{
					"type": "long",
				},
				"started_at": map[string]interface{}{
					"type":   "date",
					"format": "strict_date_optional_time||epoch_millis",
				},
				"ended_at": map[string]interface{}{
					"type":   "date",
					"format": "strict_date_optional_time||epoch_millis",
				},
				"elapsed_minutes": map[string]interface{}{
					"type": "double",
				},
				"cost": map[string]interface{}{
					"type": "long",
				},
				"ended_by": map[string]interface{}{
					"type": "keyword",
				},
			},
		},
	}

	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(mappingJSON),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

// sessionDoc is the indexed document shape
type sessionDoc struct {
	SeatID         string    `json:"seat_id"`
	SeatName       string    `json:"seat_name"`
	AccountID      int64     `json:"account_id"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	ElapsedMinutes float64   `json:"elapsed_minutes"`
	Cost           int64     `json:"cost"`
	EndedBy        string    `json:"ended_by"`
}

// IndexSession writes one settled session into the archive. The document
// ID combines seat and end time so redelivered events overwrite rather
// than duplicate.
func (c *Client) IndexSession(ctx context.Context, event *models.SessionEndedEvent) error {
	doc := sessionDoc{
		SeatID:         event.SeatID,
		SeatName:       event.SeatName,
		AccountID:      event.AccountID,
		StartedAt:      event.StartedAt,
		EndedAt:        event.EndedAt,
		ElapsedMinutes: event.ElapsedMinutes,
		Cost:           event.Cost,
		EndedBy:        event.EndedBy,
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal session document: %w", err)
	}

	docID := fmt.Sprintf("%s-%d", event.SeatID, event.EndedAt.UnixMilli())
	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: docID,
		Body:       bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index session: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("Elasticsearch error: %s", res.String())
	}

	return nil
}

// SearchSessions queries the archive by account and/or seat name,
// newest first.
func (c *Client) SearchSessions(ctx context.Context, accountID *int64, seatName string, page, pageSize int) (models.SessionSearchResponse, error) {
	var filters []map[string]interface{}
	if accountID != nil {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"account_id": *accountID},
		})
	}
	if seatName != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"seat_name": seatName},
		})
	}

	query := map[string]interface{}{
		"from": (page - 1) * pageSize,
		"size": pageSize,
		"sort": []map[string]interface{}{
			{"ended_at": map[string]interface{}{"order": "desc"}},
		},
	}
	if len(filters) > 0 {
		query["query"] = map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		}
	} else {
		query["query"] = map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to search sessions: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source sessionDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := make(models.SessionSearchResponse, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		doc := hit.Source
		result = append(result, models.SessionSearchResponseItem{
			SeatID:         doc.SeatID,
			SeatName:       doc.SeatName,
			AccountID:      doc.AccountID,
			StartedAt:      doc.StartedAt.UTC().Format(time.RFC3339),
			EndedAt:        doc.EndedAt.UTC().Format(time.RFC3339),
			ElapsedMinutes: doc.ElapsedMinutes,
			Cost:           doc.Cost,
			EndedBy:        doc.EndedBy,
		})
	}

	return result, nil
}

// Index returns the configured index name, used by worker logging.
func (c *Client) Index() string {
	return c.config.Index
}
