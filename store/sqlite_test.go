package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightning-os/runtime/provider"
)

func newTestProvider(t *testing.T) *SQLiteProvider {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	p := NewSQLiteProvider(path)
	require.NoError(t, p.Initialize(context.Background()))
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestCreateReadUpdateDelete(t *testing.T) {
	p := newTestProvider(t)
	ds, err := p.GetDocumentStore("widgets")
	require.NoError(t, err)

	ctx := context.Background()
	created, err := ds.Create(ctx, &provider.Document{PartitionKey: "a", Data: map[string]any{"name": "bolt"}})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotEmpty(t, created.ETag)

	read, err := ds.Read(ctx, created.ID, "a")
	require.NoError(t, err)
	require.Equal(t, "bolt", read.Data["name"])

	read.Data["name"] = "nut"
	updated, err := ds.Update(ctx, read)
	require.NoError(t, err)
	require.NotEqual(t, read.ETag, updated.ETag)

	_, err = ds.Update(ctx, read) // stale etag
	var conflict *provider.ConflictError
	require.ErrorAs(t, err, &conflict)

	deleted, err := ds.Delete(ctx, created.ID, "a")
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = ds.Read(ctx, created.ID, "a")
	var notFound *provider.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestConcurrentUpdateExactlyOneSucceeds(t *testing.T) {
	p := newTestProvider(t)
	ds, err := p.GetDocumentStore("race")
	require.NoError(t, err)

	ctx := context.Background()
	doc, err := ds.Create(ctx, &provider.Document{PartitionKey: "p", Data: map[string]any{"n": float64(0)}})
	require.NoError(t, err)

	const attempts = 10
	var wg sync.WaitGroup
	var successes int32
	var mu sync.Mutex

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ds.Update(ctx, &provider.Document{ID: doc.ID, PartitionKey: "p", Data: map[string]any{"n": float64(1)}, ETag: doc.ETag})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, successes)
}

func TestQueryAndListAll(t *testing.T) {
	p := newTestProvider(t)
	ds, err := p.GetDocumentStore("items")
	require.NoError(t, err)

	ctx := context.Background()
	_, err = ds.Create(ctx, &provider.Document{PartitionKey: "x", Data: map[string]any{"kind": "a"}})
	require.NoError(t, err)
	_, err = ds.Create(ctx, &provider.Document{PartitionKey: "x", Data: map[string]any{"kind": "b"}})
	require.NoError(t, err)

	all, err := ds.ListAll(ctx, "x", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	matching, err := ds.Query(ctx, map[string]any{"kind": "a"}, "x", 0)
	require.NoError(t, err)
	require.Len(t, matching, 1)
}

func TestContainerLifecycle(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	exists, err := p.ContainerExists(ctx, "ghosts")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, p.CreateContainerIfNotExists(ctx, "ghosts", "/partition_key"))
	exists, err = p.ContainerExists(ctx, "ghosts")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, p.DeleteContainer(ctx, "ghosts"))
	exists, err = p.ContainerExists(ctx, "ghosts")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestHealthCheck(t *testing.T) {
	p := newTestProvider(t)
	result, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	require.Equal(t, provider.HealthHealthy, result.Status)
}
