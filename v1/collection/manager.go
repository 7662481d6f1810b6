package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aleph-Alpha/vecdocs/v1/database"
	"github.com/Aleph-Alpha/vecdocs/v1/observability"
	"github.com/Aleph-Alpha/vecdocs/v1/postgres"
	"github.com/Aleph-Alpha/vecdocs/v1/vectordb"
)

// Manager creates, inspects and drops collections and binds Collection
// values to them.
//
// Collection configuration lives in the vecdocs_collections registry table;
// documents live in one table per collection, named after the collection.
type Manager struct {
	cfg      Config
	client   database.Client
	embedder Embedder
	inst     instrumentation
}

// NewManager creates a manager. embedder may be nil when all callers supply
// vectors.
func NewManager(cfg Config, client database.Client, embedder Embedder) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("collection: database client is required")
	}
	return &Manager{
		cfg:      cfg.withDefaults(),
		client:   client,
		embedder: embedder,
		inst:     newInstrumentation(),
	}, nil
}

// WithLogger sets the logger for the manager and every collection it binds.
func (m *Manager) WithLogger(logger Logger) *Manager {
	if logger != nil {
		m.inst.logger = logger
	}
	return m
}

// WithObserver sets the observer for the manager and every collection it binds.
func (m *Manager) WithObserver(observer observability.Observer) *Manager {
	m.inst.observer = observer
	return m
}

// WithTracer sets the span source for the manager and every collection it binds.
func (m *Manager) WithTracer(tracer Tracer) *Manager {
	if tracer != nil {
		m.inst.tracer = tracer
	}
	return m
}

// CreateCollection registers a collection and creates its table and index.
//
// It enables the vector extension and the registry table on first use.
// Creating a name that is already registered fails with a CollectionError
// wrapping vectordb.ErrCollectionExists and leaves the existing collection
// untouched.
func (m *Manager) CreateCollection(ctx context.Context, name string, cfg vectordb.CollectionConfig) (coll *Collection, err error) {
	ctx, op := m.inst.begin(ctx, "create_collection", name, "")
	defer func() { op.finish(err, 0) }()

	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, stmt := range []string{createExtensionSQL, createRegistrySQL} {
		if _, err := m.client.Execute(ctx, stmt, nil); err != nil {
			return nil, &vectordb.CollectionError{Op: "create_collection", Collection: name, Err: err}
		}
	}

	if _, err := m.describe(ctx, name); err == nil {
		return nil, &vectordb.CollectionError{Op: "create_collection", Collection: name, Err: vectordb.ErrCollectionExists}
	} else if !errors.Is(err, vectordb.ErrCollectionNotFound) {
		return nil, &vectordb.CollectionError{Op: "create_collection", Collection: name, Err: err}
	}

	ddl := []string{createTableSQL(name, cfg.Dimension)}
	switch {
	case m.cfg.SkipIndex:
	case cfg.Dimension > MaxIndexedDimension:
		m.inst.logger.Warn("[Collection] dimension too large for an HNSW index, searches will scan", nil, map[string]interface{}{
			"collection": name,
			"dimension":  cfg.Dimension,
		})
	default:
		ddl = append(ddl, createIndexSQL(name, cfg.Metric, m.cfg.HNSW))
	}
	for _, stmt := range ddl {
		if _, err := m.client.Execute(ctx, stmt, nil); err != nil {
			return nil, &vectordb.CollectionError{Op: "create_collection", Collection: name, Err: err}
		}
	}

	rows, err := m.client.Execute(ctx, insertRegistrySQL, []any{name, cfg.Dimension, string(cfg.Metric), cfg.EmbeddingModel})
	if err != nil {
		return nil, &vectordb.CollectionError{Op: "create_collection", Collection: name, Err: err}
	}
	if len(rows) == 0 {
		return nil, &vectordb.CollectionError{Op: "create_collection", Collection: name, Err: vectordb.ErrCollectionExists}
	}

	m.inst.logger.Info("[Collection] created", nil, map[string]interface{}{
		"collection": name,
		"dimension":  cfg.Dimension,
		"metric":     string(cfg.Metric),
	})
	return m.bind(name, cfg)
}

// DescribeCollection returns the registered configuration of name.
func (m *Manager) DescribeCollection(ctx context.Context, name string) (desc vectordb.Collection, err error) {
	ctx, op := m.inst.begin(ctx, "describe_collection", name, "")
	defer func() { op.finish(err, 0) }()

	if err := ValidateName(name); err != nil {
		return vectordb.Collection{}, err
	}
	desc, err = m.describe(ctx, name)
	if err != nil {
		return vectordb.Collection{}, &vectordb.CollectionError{Op: "describe_collection", Collection: name, Err: err}
	}
	return desc, nil
}

// ListCollections returns every registered collection ordered by name.
func (m *Manager) ListCollections(ctx context.Context) (list []vectordb.Collection, err error) {
	ctx, op := m.inst.begin(ctx, "list_collections", "", "")
	defer func() { op.finish(err, int64(len(list))) }()

	rows, err := m.client.Execute(ctx, listRegistrySQL, nil)
	if errors.Is(err, postgres.ErrUndefinedTable) {
		return []vectordb.Collection{}, nil
	}
	if err != nil {
		return nil, &vectordb.CollectionError{Op: "list_collections", Err: err}
	}

	list = make([]vectordb.Collection, 0, len(rows))
	for _, row := range rows {
		entry, err := registryEntry(row)
		if err != nil {
			return nil, &vectordb.CollectionError{Op: "list_collections", Err: err}
		}
		list = append(list, entry)
	}
	return list, nil
}

// DropCollection removes the registry entry and the collection table with
// all its documents in one transaction.
func (m *Manager) DropCollection(ctx context.Context, name string) (err error) {
	ctx, op := m.inst.begin(ctx, "drop_collection", name, "")
	defer func() { op.finish(err, 0) }()

	if err := ValidateName(name); err != nil {
		return err
	}

	err = m.client.Transaction(ctx, func(tx database.Client) error {
		rows, err := tx.Execute(ctx, deleteRegistrySQL, []any{name})
		if errors.Is(err, postgres.ErrUndefinedTable) {
			return vectordb.ErrCollectionNotFound
		}
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return vectordb.ErrCollectionNotFound
		}
		_, err = tx.Execute(ctx, dropTableSQL(name), nil)
		return err
	})
	if err != nil {
		return &vectordb.CollectionError{Op: "drop_collection", Collection: name, Err: err}
	}

	m.inst.logger.Info("[Collection] dropped", nil, map[string]interface{}{"collection": name})
	return nil
}

// Collection loads the configuration of name and returns a bound Collection.
func (m *Manager) Collection(ctx context.Context, name string) (*Collection, error) {
	desc, err := m.DescribeCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.bind(name, desc.Config)
}

func (m *Manager) describe(ctx context.Context, name string) (vectordb.Collection, error) {
	rows, err := m.client.Execute(ctx, selectRegistrySQL, []any{name})
	if errors.Is(err, postgres.ErrUndefinedTable) {
		return vectordb.Collection{}, vectordb.ErrCollectionNotFound
	}
	if err != nil {
		return vectordb.Collection{}, err
	}
	if len(rows) == 0 {
		return vectordb.Collection{}, vectordb.ErrCollectionNotFound
	}
	return registryEntry(rows[0])
}

func (m *Manager) bind(name string, cfg vectordb.CollectionConfig) (*Collection, error) {
	coll, err := NewCollection(name, cfg, m.client, m.embedder)
	if err != nil {
		return nil, err
	}
	coll.inst = m.inst
	return coll, nil
}
