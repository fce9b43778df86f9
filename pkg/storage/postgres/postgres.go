// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and JSONB for schema documents.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/storage"
)

// Store is a PostgreSQL-backed binding store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveBinding persists a binding.
func (s *Store) SaveBinding(ctx context.Context, b api.Binding) error {
	tenantID := storage.GetTenant(ctx)

	tagsJSON, err := json.Marshal(b.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}
	annotationsJSON, err := json.Marshal(b.Annotations)
	if err != nil {
		return fmt.Errorf("marshaling annotations: %w", err)
	}
	metadataJSON, err := json.Marshal(b.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	inputJSON, err := json.Marshal(b.InputSchema)
	if err != nil {
		return fmt.Errorf("marshaling input schema: %w", err)
	}
	outputJSON, err := json.Marshal(b.OutputSchema)
	if err != nil {
		return fmt.Errorf("marshaling output schema: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO bindings (
			tenant_id, module_id, description, documentation,
			http_method, url_rule, tags, version, target,
			annotations, metadata, input_schema, output_schema
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		tenantID, b.ModuleID, b.Description, b.Documentation,
		b.HTTPMethod, b.URLRule, tagsJSON, b.Version, b.Target,
		annotationsJSON, metadataJSON, inputJSON, outputJSON,
	)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting binding: %w", err)
	}

	return nil
}

// GetBinding retrieves a binding by module id, scoped by tenant.
func (s *Store) GetBinding(ctx context.Context, moduleID string) (api.Binding, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT module_id, description, documentation,
		       http_method, url_rule, tags, version, target,
		       annotations, metadata, input_schema, output_schema
		FROM bindings
		WHERE tenant_id = $1 AND module_id = $2
	`, storage.GetTenant(ctx), moduleID)

	b, err := scanBinding(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return api.Binding{}, storage.ErrNotFound
	}
	if err != nil {
		return api.Binding{}, fmt.Errorf("querying binding: %w", err)
	}
	return b, nil
}

// ListBindings returns the tenant's bindings sorted by module id.
func (s *Store) ListBindings(ctx context.Context) ([]api.Binding, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT module_id, description, documentation,
		       http_method, url_rule, tags, version, target,
		       annotations, metadata, input_schema, output_schema
		FROM bindings
		WHERE tenant_id = $1
		ORDER BY module_id
	`, storage.GetTenant(ctx))
	if err != nil {
		return nil, fmt.Errorf("querying bindings: %w", err)
	}
	defer rows.Close()

	bindings := []api.Binding{}
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning binding: %w", err)
		}
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bindings: %w", err)
	}
	return bindings, nil
}

// DeleteBinding removes a binding, scoped by tenant.
func (s *Store) DeleteBinding(ctx context.Context, moduleID string) error {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM bindings WHERE tenant_id = $1 AND module_id = $2",
		storage.GetTenant(ctx), moduleID)
	if err != nil {
		return fmt.Errorf("deleting binding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// scanBinding reads one binding row into an api.Binding.
func scanBinding(row pgx.Row) (api.Binding, error) {
	var b api.Binding
	var tagsJSON, annotationsJSON, metadataJSON, inputJSON, outputJSON []byte

	err := row.Scan(
		&b.ModuleID, &b.Description, &b.Documentation,
		&b.HTTPMethod, &b.URLRule, &tagsJSON, &b.Version, &b.Target,
		&annotationsJSON, &metadataJSON, &inputJSON, &outputJSON,
	)
	if err != nil {
		return api.Binding{}, err
	}

	if err := json.Unmarshal(annotationsJSON, &b.Annotations); err != nil {
		return api.Binding{}, fmt.Errorf("unmarshaling annotations: %w", err)
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &b.Tags); err != nil {
			return api.Binding{}, fmt.Errorf("unmarshaling tags: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &b.Metadata); err != nil {
			return api.Binding{}, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	if err := json.Unmarshal(inputJSON, &b.InputSchema); err != nil {
		return api.Binding{}, fmt.Errorf("unmarshaling input schema: %w", err)
	}
	if err := json.Unmarshal(outputJSON, &b.OutputSchema); err != nil {
		return api.Binding{}, fmt.Errorf("unmarshaling output schema: %w", err)
	}
	return b, nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
