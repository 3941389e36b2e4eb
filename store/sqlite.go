// Package store is the reference local StorageProvider/DocumentStore,
// backed by a single embedded modernc.org/sqlite file — one table per
// container, each row holding a document's JSON payload plus its
// partition key and etag.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lightning-os/runtime/provider"
)

var containerNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateContainerName(name string) error {
	if !containerNameRe.MatchString(name) {
		return fmt.Errorf("store: invalid container name %q", name)
	}
	return nil
}

// SQLiteProvider implements provider.StorageProvider.
type SQLiteProvider struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteProvider(path string) *SQLiteProvider {
	return &SQLiteProvider{path: path}
}

func (p *SQLiteProvider) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", p.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}
	p.db = db
	return nil
}

func (p *SQLiteProvider) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

func (p *SQLiteProvider) CreateContainerIfNotExists(ctx context.Context, container, partitionKeyPath string) error {
	if err := validateContainerName(container); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id TEXT NOT NULL,
		partition_key TEXT NOT NULL DEFAULT '',
		data TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		etag TEXT NOT NULL,
		UNIQUE(id, partition_key)
	)`, container)
	_, err := p.db.ExecContext(ctx, stmt)
	return err
}

func (p *SQLiteProvider) DeleteContainer(ctx context.Context, container string) error {
	if err := validateContainerName(container); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, container))
	return err
}

func (p *SQLiteProvider) ContainerExists(ctx context.Context, container string) (bool, error) {
	if err := validateContainerName(container); err != nil {
		return false, err
	}
	row := p.db.QueryRowContext(ctx, `SELECT 1 FROM sqlite_master WHERE type='table' AND name=?`, container)
	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *SQLiteProvider) GetDocumentStore(container string) (provider.DocumentStore, error) {
	if err := validateContainerName(container); err != nil {
		return nil, err
	}
	if err := p.CreateContainerIfNotExists(context.Background(), container, "/partition_key"); err != nil {
		return nil, err
	}
	return &documentStore{db: p.db, container: container}, nil
}

// HealthCheck probes container_exists("_health_check") and times it, per the
// documented default for storage providers.
func (p *SQLiteProvider) HealthCheck(ctx context.Context) (provider.HealthCheckResult, error) {
	start := time.Now()
	_, err := p.ContainerExists(ctx, "_health_check")
	latency := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		return provider.HealthCheckResult{
			Status:    provider.HealthUnhealthy,
			LatencyMS: latency,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		}, err
	}
	return provider.HealthCheckResult{
		Status:    provider.HealthHealthy,
		LatencyMS: latency,
		Timestamp: time.Now().UTC(),
	}, nil
}

type documentStore struct {
	db        *sql.DB
	container string
}

func (s *documentStore) Create(ctx context.Context, doc *provider.Document) (*provider.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	out := *doc
	out.CreatedAt = now
	out.UpdatedAt = now
	out.ETag = uuid.NewString()

	data, err := json.Marshal(out.Data)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %q (id, partition_key, data, created_at, updated_at, etag) VALUES (?, ?, ?, ?, ?, ?)`, s.container),
		out.ID, out.PartitionKey, string(data), out.CreatedAt.Format(time.RFC3339Nano), out.UpdatedAt.Format(time.RFC3339Nano), out.ETag)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *documentStore) Read(ctx context.Context, id, partitionKey string) (*provider.Document, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, partition_key, data, created_at, updated_at, etag FROM %q WHERE id = ? AND partition_key = ?`, s.container),
		id, partitionKey)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, &provider.NotFoundError{Kind: "document", ID: id}
	}
	return doc, err
}

// Update applies an atomic compare-and-swap on etag: the UPDATE's WHERE
// clause is the admission check, so exactly one of two concurrent callers
// with the same starting etag succeeds.
func (s *documentStore) Update(ctx context.Context, doc *provider.Document) (*provider.Document, error) {
	now := time.Now().UTC()
	newETag := uuid.NewString()
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %q SET data = ?, updated_at = ?, etag = ? WHERE id = ? AND partition_key = ? AND etag = ?`, s.container),
		string(data), now.Format(time.RFC3339Nano), newETag, doc.ID, doc.PartitionKey, doc.ETag)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		existing, readErr := s.Read(ctx, doc.ID, doc.PartitionKey)
		if readErr != nil {
			return nil, readErr
		}
		return nil, &provider.ConflictError{ID: doc.ID, Expected: doc.ETag, Actual: existing.ETag}
	}

	out := *doc
	out.UpdatedAt = now
	out.ETag = newETag
	return &out, nil
}

func (s *documentStore) Delete(ctx context.Context, id, partitionKey string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %q WHERE id = ? AND partition_key = ?`, s.container),
		id, partitionKey)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *documentStore) Query(ctx context.Context, criteria map[string]any, partitionKey string, maxItems int) ([]*provider.Document, error) {
	docs, err := s.scanAll(ctx, partitionKey)
	if err != nil {
		return nil, err
	}
	var out []*provider.Document
	for _, d := range docs {
		if matchesCriteria(d.Data, criteria) {
			out = append(out, d)
			if maxItems > 0 && len(out) >= maxItems {
				break
			}
		}
	}
	return out, nil
}

func (s *documentStore) ListAll(ctx context.Context, partitionKey string, maxItems int) ([]*provider.Document, error) {
	docs, err := s.scanAll(ctx, partitionKey)
	if err != nil {
		return nil, err
	}
	if maxItems > 0 && len(docs) > maxItems {
		docs = docs[:maxItems]
	}
	return docs, nil
}

func (s *documentStore) scanAll(ctx context.Context, partitionKey string) ([]*provider.Document, error) {
	var rows *sql.Rows
	var err error
	if partitionKey != "" {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT id, partition_key, data, created_at, updated_at, etag FROM %q WHERE partition_key = ?`, s.container),
			partitionKey)
	} else {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT id, partition_key, data, created_at, updated_at, etag FROM %q`, s.container))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*provider.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*provider.Document, error) {
	var id, partitionKey, data, createdAt, updatedAt, etag string
	if err := row.Scan(&id, &partitionKey, &data, &createdAt, &updatedAt, &etag); err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, err
	}
	created, _ := time.Parse(time.RFC3339Nano, createdAt)
	updated, _ := time.Parse(time.RFC3339Nano, updatedAt)
	return &provider.Document{
		ID:           id,
		PartitionKey: partitionKey,
		Data:         payload,
		CreatedAt:    created,
		UpdatedAt:    updated,
		ETag:         etag,
	}, nil
}

func matchesCriteria(data map[string]any, criteria map[string]any) bool {
	for k, want := range criteria {
		got, ok := data[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

var _ provider.StorageProvider = (*SQLiteProvider)(nil)
