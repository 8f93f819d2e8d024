// Package postgres adapts opstore.Store onto Postgres, grounded on the
// teacher's BaseRepository pattern: sqlx for query execution, *pq.Error
// classification for retry/validation decisions, an optional circuit
// breaker reachable through BaseRepository.ExecuteWithCircuitBreaker, and a
// cache-aside layer in front of the frequently-read latest snapshot. Store's
// own queries run through ExecuteQuery and ExecuteQueryWithRetry and do not
// pass through the circuit breaker.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wdcollab/wdcore/pkg/crdt"
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/observability"
	"github.com/wdcollab/wdcore/pkg/opstore"
	"github.com/wdcollab/wdcore/pkg/presence/cache"
	"github.com/wdcollab/wdcore/pkg/resilience"
)

// Store is a Postgres-backed opstore.Store. Its schema lives in
// migrations.go/migrations/ and is applied via EnsureSchema rather than
// embedded here as a DDL string.
type Store struct {
	*BaseRepository
}

// New wires a Postgres store from already-open connections plus the
// ambient stack (logging/tracing/metrics/cache/circuit breaker) the rest
// of wdcore's repositories share.
func New(
	writeDB, readDB *sqlx.DB,
	c cache.Cache,
	logger observability.Logger,
	tracer observability.StartSpanFunc,
	metrics observability.MetricsClient,
	cb *resilience.CircuitBreaker,
) *Store {
	return &Store{
		BaseRepository: NewBaseRepository(writeDB, readDB, c, logger, tracer, metrics, BaseRepositoryConfig{
			CircuitBreaker: cb,
		}),
	}
}

type operationRow struct {
	DocumentID   string    `db:"document_id"`
	ClientID     string    `db:"client_id"`
	Counter      uint64    `db:"counter"`
	OriginClient string    `db:"origin_client"`
	Payload      []byte    `db:"payload"`
	StoredAt     time.Time `db:"stored_at"`
}

func (s *Store) Append(ctx context.Context, document identity.NodeID, ops []opstore.StoredOperation) error {
	if len(ops) == 0 {
		return nil
	}

	return s.ExecuteQueryWithRetry(ctx, "opstore.Append", func(ctx context.Context) error {
		return s.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			const q = `
				INSERT INTO opstore_operations (document_id, client_id, counter, origin_client, payload, stored_at)
				VALUES (:document_id, :client_id, :counter, :origin_client, :payload, :stored_at)
				ON CONFLICT (document_id, client_id, counter) DO NOTHING`

			for _, op := range ops {
				payload, err := json.Marshal(op.Op)
				if err != nil {
					return fmt.Errorf("opstore/postgres: marshal operation: %w", err)
				}
				storedAt := op.StoredAt
				if storedAt.IsZero() {
					storedAt = time.Now()
				}
				row := operationRow{
					DocumentID:   document.String(),
					ClientID:     string(op.Op.ID.Client),
					Counter:      uint64(op.Op.ID.Counter),
					OriginClient: string(op.Origin),
					Payload:      payload,
					StoredAt:     storedAt,
				}
				if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
					return s.TranslateError(err, "opstore_operations")
				}
			}
			return nil
		})
	})
}

func (s *Store) Range(ctx context.Context, document identity.NodeID, since identity.VectorClock) ([]opstore.StoredOperation, error) {
	var rows []operationRow
	err := s.ExecuteQuery(ctx, "opstore.Range", func(ctx context.Context) error {
		const q = `
			SELECT document_id, client_id, counter, origin_client, payload, stored_at
			FROM opstore_operations
			WHERE document_id = $1
			ORDER BY stored_at ASC, counter ASC`
		return s.readDB.SelectContext(ctx, &rows, q, document.String())
	})
	if err != nil {
		return nil, s.TranslateError(err, "opstore_operations")
	}

	out := make([]opstore.StoredOperation, 0, len(rows))
	for _, row := range rows {
		if since != nil && uint64(since.Get(identity.ClientID(row.ClientID))) >= row.Counter {
			continue
		}
		var op crdt.Operation
		if err := json.Unmarshal(row.Payload, &op); err != nil {
			return nil, fmt.Errorf("opstore/postgres: unmarshal operation: %w", err)
		}
		out = append(out, opstore.StoredOperation{
			DocumentID: document,
			Op:         op,
			Origin:     identity.ClientID(row.OriginClient),
			StoredAt:   row.StoredAt,
		})
	}
	return out, nil
}

type snapshotRow struct {
	Version   int64  `db:"version"`
	Clock     []byte `db:"clock"`
	Nodes     []byte `db:"nodes"`
	RootID    string `db:"root_id"`
}

func (s *Store) LatestSnapshot(ctx context.Context, document identity.NodeID) (crdt.Snapshot, error) {
	cacheKey := "opstore:snapshot:" + document.String()
	var cached snapshotRow
	if err := s.CacheGet(ctx, cacheKey, &cached); err == nil {
		return decodeSnapshot(cached)
	}

	var row snapshotRow
	err := s.ExecuteQuery(ctx, "opstore.LatestSnapshot", func(ctx context.Context) error {
		const q = `
			SELECT version, clock, nodes, root_id
			FROM opstore_snapshots
			WHERE document_id = $1
			ORDER BY version DESC
			LIMIT 1`
		return s.readDB.GetContext(ctx, &row, q, document.String())
	})
	if err == sql.ErrNoRows {
		return crdt.Snapshot{}, opstore.ErrNotFound
	}
	if err != nil {
		return crdt.Snapshot{}, s.TranslateError(err, "opstore_snapshots")
	}

	_ = s.CacheSet(ctx, cacheKey, row, 0)
	return decodeSnapshot(row)
}

func decodeSnapshot(row snapshotRow) (crdt.Snapshot, error) {
	clock := identity.NewVectorClock()
	if err := json.Unmarshal(row.Clock, &clock); err != nil {
		return crdt.Snapshot{}, fmt.Errorf("opstore/postgres: unmarshal clock: %w", err)
	}

	var nodes []*doctree.Node
	if err := json.Unmarshal(row.Nodes, &nodes); err != nil {
		return crdt.Snapshot{}, fmt.Errorf("opstore/postgres: unmarshal nodes: %w", err)
	}

	rootID, err := identity.ParseNodeID(row.RootID)
	if err != nil {
		return crdt.Snapshot{}, fmt.Errorf("opstore/postgres: parse root id: %w", err)
	}

	tree, err := doctree.Rebuild(nodes, rootID)
	if err != nil {
		return crdt.Snapshot{}, fmt.Errorf("opstore/postgres: rebuild tree: %w", err)
	}

	return crdt.Snapshot{Version: row.Version, Clock: clock, Tree: tree}, nil
}

func (s *Store) WriteSnapshot(ctx context.Context, document identity.NodeID, snap crdt.Snapshot) error {
	clockJSON, err := json.Marshal(snap.Clock)
	if err != nil {
		return fmt.Errorf("opstore/postgres: marshal clock: %w", err)
	}
	nodesJSON, err := json.Marshal(snap.Tree.FlattenNodes())
	if err != nil {
		return fmt.Errorf("opstore/postgres: marshal nodes: %w", err)
	}

	err = s.ExecuteQueryWithRetry(ctx, "opstore.WriteSnapshot", func(ctx context.Context) error {
		const q = `
			INSERT INTO opstore_snapshots (document_id, version, clock, nodes, root_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (document_id, version) DO UPDATE
				SET clock = EXCLUDED.clock, nodes = EXCLUDED.nodes, root_id = EXCLUDED.root_id`
		_, err := s.writeDB.ExecContext(ctx, q, document.String(), snap.Version, clockJSON, nodesJSON, snap.Tree.Root().String())
		return err
	})
	if err != nil {
		return s.TranslateError(err, "opstore_snapshots")
	}

	_ = s.CacheDelete(ctx, "opstore:snapshot:"+document.String())
	return nil
}

func (s *Store) Stats(ctx context.Context, document identity.NodeID) (opstore.Stats, error) {
	var stats opstore.Stats
	err := s.ExecuteQuery(ctx, "opstore.Stats", func(ctx context.Context) error {
		const q = `
			SELECT
				(SELECT count(*) FROM opstore_operations WHERE document_id = $1) AS op_count,
				(SELECT coalesce(max(stored_at), to_timestamp(0)) FROM opstore_operations WHERE document_id = $1) AS last_op,
				(SELECT coalesce(max(created_at), to_timestamp(0)) FROM opstore_snapshots WHERE document_id = $1) AS last_snap`
		var row struct {
			OpCount int64     `db:"op_count"`
			LastOp  time.Time `db:"last_op"`
			LastSnap time.Time `db:"last_snap"`
		}
		if err := s.readDB.GetContext(ctx, &row, q, document.String()); err != nil {
			return err
		}
		stats = opstore.Stats{
			OperationCount:  int(row.OpCount),
			LastOperationAt: row.LastOp,
			LastSnapshotAt:  row.LastSnap,
		}
		return nil
	})
	return stats, err
}
