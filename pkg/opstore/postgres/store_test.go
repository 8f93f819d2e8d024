package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/wdcollab/wdcore/pkg/crdt"
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/observability"
	"github.com/wdcollab/wdcore/pkg/opstore"
	"github.com/wdcollab/wdcore/pkg/presence/cache"
)

// newTestStore wires a Store the way an embedding application would: a
// noop-backed OpenTelemetry tracer (NewOtelStartSpan adapted from
// trace.NewNoopTracerProvider, standing in for a real SDK tracer an
// embedder would register), an in-process cache, and a sqlmock-backed
// sqlx.DB in place of a live Postgres connection.
func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	tracer := observability.NewOtelStartSpan(trace.NewNoopTracerProvider().Tracer("opstore_test"))
	store := New(sqlxDB, sqlxDB, cache.NewMemoryCache(100, time.Minute), observability.NewLogger("opstore_test"), tracer, observability.NewNoOpMetricsClient(), nil)
	return store, mock
}

func TestAppendInsertsEachOperation(t *testing.T) {
	store, mock := newTestStore(t)
	document := identity.NewNodeID()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO opstore_operations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id := identity.NewClock(identity.ClientID("replica-a")).Next()
	op := crdt.Operation{ID: id, Kind: crdt.OpFormatSet, Target: identity.NewNodeID(), Attribute: "bold", Value: true}

	err := store.Append(context.Background(), document, []opstore.StoredOperation{
		{DocumentID: document, Op: op, Origin: identity.ClientID("replica-a"), StoredAt: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendEmptyIsNoop(t *testing.T) {
	store, mock := newTestStore(t)
	err := store.Append(context.Background(), identity.NewNodeID(), nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestSnapshotMissIsNotFound(t *testing.T) {
	store, mock := newTestStore(t)
	document := identity.NewNodeID()

	mock.ExpectQuery("SELECT version, clock, nodes, root_id").
		WithArgs(document.String()).
		WillReturnError(sql.ErrNoRows)

	_, err := store.LatestSnapshot(context.Background(), document)
	assert.ErrorIs(t, err, opstore.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteSnapshotInvalidatesCachedSnapshot(t *testing.T) {
	store, mock := newTestStore(t)
	document := identity.NewNodeID()

	root := identity.NewNodeID()
	tree := doctree.NewRooted(root, doctree.KindDocument)
	snap := crdt.Snapshot{Version: 1, Clock: identity.NewVectorClock(), Tree: tree}

	mock.ExpectExec("INSERT INTO opstore_snapshots").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.WriteSnapshot(context.Background(), document, snap))
	require.NoError(t, mock.ExpectationsWereMet())

	// LatestSnapshot's cache-aside path only ever reads the cache key
	// WriteSnapshot just invalidated, so a later call must fall through to
	// the database again rather than serve a stale hit.
	mock.ExpectQuery("SELECT version, clock, nodes, root_id").
		WithArgs(document.String()).
		WillReturnError(sql.ErrNoRows)
	_, err := store.LatestSnapshot(context.Background(), document)
	assert.ErrorIs(t, err, opstore.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
