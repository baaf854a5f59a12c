package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	log "github.com/sirupsen/logrus"

	"github.com/adamkcs/TaskPlannerAPI/database"
)

// ErrSearchDisabled is returned by searches when no index is configured
var ErrSearchDisabled = errors.New("search is not configured")

// DefaultSearchIndex is the index task documents are written to
const DefaultSearchIndex = "tasks"

const indexWriteTimeout = 5 * time.Second

// SearchIndex is a full-text index of tasks kept beside the store
type SearchIndex interface {
	IndexTask(ctx context.Context, task database.TaskItem) error
	DeleteTask(ctx context.Context, id int64) error
	SearchTasks(ctx context.Context, query string) ([]database.TaskItem, error)
}

// ElasticIndex stores one document per task, keyed by task id
type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndex(uri, index string) (*ElasticIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{uri}})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	if index == "" {
		index = DefaultSearchIndex
	}
	return &ElasticIndex{client: client, index: index}, nil
}

// IndexTask creates or replaces the task's document
func (e *ElasticIndex) IndexTask(ctx context.Context, task database.TaskItem) error {
	task.Labels, task.Comments = nil, nil
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}

	res, err := e.client.Index(e.index, bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(strconv.FormatInt(task.ID, 10)),
	)
	if err != nil {
		return fmt.Errorf("failed to index task %d: %w", task.ID, err)
	}
	defer res.Body.Close()
	return responseError(res, "index task")
}

// DeleteTask removes the task's document. A missing document is not an error.
func (e *ElasticIndex) DeleteTask(ctx context.Context, id int64) error {
	res, err := e.client.Delete(e.index, strconv.FormatInt(id, 10), e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete task %d from index: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return responseError(res, "delete task")
}

// SearchTasks matches query against title and description, best match first
func (e *ElasticIndex) SearchTasks(ctx context.Context, query string) ([]database.TaskItem, error) {
	var buf bytes.Buffer
	err := json.NewEncoder(&buf).Encode(map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"match": map[string]any{"title": query}},
					map[string]any{"match": map[string]any{"description": query}},
				},
				"minimum_should_match": 1,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	defer res.Body.Close()
	if err := responseError(res, "search tasks"); err != nil {
		return nil, err
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source database.TaskItem `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	tasks := make([]database.TaskItem, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		tasks = append(tasks, hit.Source)
	}
	return tasks, nil
}

func responseError(res *esapi.Response, op string) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("failed to %s: elasticsearch returned %s: %s", op, res.Status(), bytes.TrimSpace(body))
}

// NopIndex is used when no search endpoint is configured
type NopIndex struct{}

func (NopIndex) IndexTask(context.Context, database.TaskItem) error { return nil }

func (NopIndex) DeleteTask(context.Context, int64) error { return nil }

func (NopIndex) SearchTasks(context.Context, string) ([]database.TaskItem, error) {
	return nil, ErrSearchDisabled
}

// Indexer writes through to a SearchIndex in the background. Writes for the same task
// are applied in the order they were queued. Write failures are logged and never reach
// the caller.
type Indexer struct {
	index SearchIndex
	log   *log.Logger
	wg    sync.WaitGroup

	mu      sync.Mutex
	pending map[int64][]func(ctx context.Context) error
}

func NewIndexer(index SearchIndex, logger *log.Logger) *Indexer {
	if index == nil {
		index = NopIndex{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Indexer{
		index:   index,
		log:     logger,
		pending: make(map[int64][]func(ctx context.Context) error),
	}
}

// TaskChanged queues an index write for the task
func (i *Indexer) TaskChanged(task database.TaskItem) {
	i.run(func(ctx context.Context) error {
		return i.index.IndexTask(ctx, task)
	}, task.ID)
}

// TaskDeleted queues removal of the task's document
func (i *Indexer) TaskDeleted(id int64) {
	i.run(func(ctx context.Context) error {
		return i.index.DeleteTask(ctx, id)
	}, id)
}

// Search queries the underlying index directly
func (i *Indexer) Search(ctx context.Context, query string) ([]database.TaskItem, error) {
	return i.index.SearchTasks(ctx, query)
}

// Wait blocks until every queued write has finished
func (i *Indexer) Wait() {
	i.wg.Wait()
}

// run queues a write behind any pending writes for the same task. A task has at most
// one draining goroutine; its map entry exists while that goroutine runs.
func (i *Indexer) run(write func(ctx context.Context) error, taskID int64) {
	i.wg.Add(1)
	i.mu.Lock()
	queue, draining := i.pending[taskID]
	i.pending[taskID] = append(queue, write)
	i.mu.Unlock()

	if !draining {
		go i.drain(taskID)
	}
}

func (i *Indexer) drain(taskID int64) {
	for {
		i.mu.Lock()
		queue := i.pending[taskID]
		if len(queue) == 0 {
			delete(i.pending, taskID)
			i.mu.Unlock()
			return
		}
		write := queue[0]
		i.pending[taskID] = queue[1:]
		i.mu.Unlock()

		i.apply(write, taskID)
	}
}

func (i *Indexer) apply(write func(ctx context.Context) error, taskID int64) {
	defer i.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), indexWriteTimeout)
	defer cancel()
	if err := write(ctx); err != nil {
		i.log.WithError(err).WithField("task_id", taskID).Warn("Search index write failed")
	}
}
