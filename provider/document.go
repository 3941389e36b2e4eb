// Package provider declares the capability contracts — DocumentStore,
// StorageProvider, EventBus, ContainerRuntime, ServerlessRuntime, and
// HealthCheckable — that concrete backends implement and that the factory
// (package factory) and resilience wrapper (package health) operate over.
package provider

import (
	"context"
	"time"
)

// Document is the identity + opaque payload the storage capability persists.
type Document struct {
	ID           string
	PartitionKey string
	Data         map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ETag         string
}

// DocumentStore operates on documents within one container. Update fails
// with a *ConflictError when the caller's ETag is stale and a *NotFoundError
// when the document is gone; Create/Read/Delete/Query/ListAll report
// *NotFoundError where applicable.
type DocumentStore interface {
	Create(ctx context.Context, doc *Document) (*Document, error)
	Read(ctx context.Context, id, partitionKey string) (*Document, error)
	Update(ctx context.Context, doc *Document) (*Document, error)
	Delete(ctx context.Context, id, partitionKey string) (bool, error)
	Query(ctx context.Context, criteria map[string]any, partitionKey string, maxItems int) ([]*Document, error)
	ListAll(ctx context.Context, partitionKey string, maxItems int) ([]*Document, error)
}

// StorageProvider owns one or more containers (collections) of documents and
// must also be HealthCheckable.
type StorageProvider interface {
	HealthCheckable

	GetDocumentStore(container string) (DocumentStore, error)
	Initialize(ctx context.Context) error
	Close(ctx context.Context) error
	CreateContainerIfNotExists(ctx context.Context, container, partitionKeyPath string) error
	DeleteContainer(ctx context.Context, container string) error
	ContainerExists(ctx context.Context, container string) (bool, error)
}
