package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/wdcollab/wdcore/pkg/observability"
	"github.com/wdcollab/wdcore/pkg/presence/cache"
	"github.com/wdcollab/wdcore/pkg/resilience"
)

// Sentinel errors TranslateError maps Postgres failures onto, so callers
// above this package never need to type-assert *pq.Error themselves.
var (
	ErrNotFound      = errors.New("opstore/postgres: not found")
	ErrDuplicate     = errors.New("opstore/postgres: duplicate")
	ErrValidation    = errors.New("opstore/postgres: validation failed")
	ErrOptimisticLock = errors.New("opstore/postgres: optimistic lock conflict")
)

// TxOptions mirrors database/sql.TxOptions without requiring callers to
// import database/sql for a single enum.
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// BaseRepository provides the sqlx/circuit-breaker/retry/cache-aside
// plumbing shared by every Postgres-backed opstore repository.
type BaseRepository struct {
	writeDB *sqlx.DB
	readDB  *sqlx.DB
	tx      *sqlx.Tx // transaction, if operating within one
	cache   cache.Cache
	logger  observability.Logger
	tracer  observability.StartSpanFunc
	metrics observability.MetricsClient
	cb      *resilience.CircuitBreaker

	stmtCache   map[string]*sqlx.NamedStmt
	stmtCacheMu sync.RWMutex

	queryTimeout time.Duration
	maxRetries   int
	cacheTimeout time.Duration
}

// BaseRepositoryConfig holds configuration for BaseRepository.
type BaseRepositoryConfig struct {
	QueryTimeout   time.Duration
	MaxRetries     int
	CacheTimeout   time.Duration
	CircuitBreaker *resilience.CircuitBreaker
}

// NewBaseRepository creates a new base repository.
func NewBaseRepository(
	writeDB, readDB *sqlx.DB,
	c cache.Cache,
	logger observability.Logger,
	tracer observability.StartSpanFunc,
	metrics observability.MetricsClient,
	config BaseRepositoryConfig,
) *BaseRepository {
	if config.QueryTimeout == 0 {
		config.QueryTimeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.CacheTimeout == 0 {
		config.CacheTimeout = 5 * time.Minute
	}

	return &BaseRepository{
		writeDB:      writeDB,
		readDB:       readDB,
		cache:        c,
		logger:       logger,
		tracer:       tracer,
		metrics:      metrics,
		cb:           config.CircuitBreaker,
		stmtCache:    make(map[string]*sqlx.NamedStmt),
		queryTimeout: config.QueryTimeout,
		maxRetries:   config.MaxRetries,
		cacheTimeout: config.CacheTimeout,
	}
}

// WithTx returns a repository bound to an already-open transaction.
func (r *BaseRepository) WithTx(tx *sqlx.Tx) *BaseRepository {
	return &BaseRepository{
		writeDB:      r.writeDB,
		readDB:       r.readDB,
		tx:           tx,
		cache:        r.cache,
		logger:       r.logger,
		tracer:       r.tracer,
		metrics:      r.metrics,
		cb:           r.cb,
		stmtCache:    r.stmtCache,
		queryTimeout: r.queryTimeout,
		maxRetries:   r.maxRetries,
		cacheTimeout: r.cacheTimeout,
	}
}

// WithTransaction executes fn inside a database transaction, committing on
// success and rolling back otherwise (re-panicking after the rollback if fn
// panicked).
func (r *BaseRepository) WithTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return r.WithTransactionOptions(ctx, nil, fn)
}

// WithTransactionOptions is WithTransaction with explicit isolation/read-only
// settings.
func (r *BaseRepository) WithTransactionOptions(ctx context.Context, opts *TxOptions, fn func(tx *sqlx.Tx) error) error {
	ctx, span := r.tracer(ctx, "BaseRepository.WithTransaction")
	defer span.End()

	timer := r.metrics.StartTimer("opstore_transaction_duration", nil)
	defer timer()

	var txOpts *sql.TxOptions
	if opts != nil {
		txOpts = &sql.TxOptions{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly}
	}

	tx, err := r.writeDB.BeginTxx(ctx, txOpts)
	if err != nil {
		r.metrics.IncrementCounter("opstore_transaction_errors", 1)
		r.logger.Error("failed to begin transaction", map[string]interface{}{"error": err.Error()})
		return errors.Wrap(err, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("failed to roll back transaction", map[string]interface{}{"error": rbErr.Error()})
		}
		r.metrics.IncrementCounter("opstore_transaction_rollbacks", 1)
		return err
	}

	if err := tx.Commit(); err != nil {
		r.metrics.IncrementCounter("opstore_transaction_errors", 1)
		r.logger.Error("failed to commit transaction", map[string]interface{}{"error": err.Error()})
		return errors.Wrap(err, "failed to commit transaction")
	}

	r.metrics.IncrementCounter("opstore_transaction_commits", 1)
	return nil
}

// GetPreparedStatement gets or lazily prepares a named statement.
func (r *BaseRepository) GetPreparedStatement(name, query string, db *sqlx.DB) (*sqlx.NamedStmt, error) {
	r.stmtCacheMu.RLock()
	stmt, exists := r.stmtCache[name]
	r.stmtCacheMu.RUnlock()
	if exists {
		return stmt, nil
	}

	r.stmtCacheMu.Lock()
	defer r.stmtCacheMu.Unlock()
	if stmt, exists := r.stmtCache[name]; exists {
		return stmt, nil
	}

	stmt, err := db.PrepareNamed(query)
	if err != nil {
		r.logger.Error("failed to prepare statement", map[string]interface{}{"error": err.Error(), "name": name})
		return nil, errors.Wrapf(err, "failed to prepare statement %s", name)
	}
	r.stmtCache[name] = stmt
	return stmt, nil
}

// CacheGet retrieves a value from the cache-aside layer, with metrics.
func (r *BaseRepository) CacheGet(ctx context.Context, key string, dest interface{}) error {
	ctx, span := r.tracer(ctx, "BaseRepository.CacheGet")
	defer span.End()

	timer := r.metrics.StartTimer("opstore_cache_operation_duration", map[string]string{"operation": "get"})
	defer timer()

	err := r.cache.Get(ctx, key, dest)
	if err != nil {
		result := "error"
		if err == cache.ErrNotFound {
			result = "miss"
		} else {
			r.logger.Error("cache get error", map[string]interface{}{"error": err.Error(), "key": key})
		}
		r.metrics.IncrementCounterWithLabels("opstore_cache_operations", 1, map[string]string{"operation": "get", "result": result})
		return err
	}

	r.metrics.IncrementCounterWithLabels("opstore_cache_operations", 1, map[string]string{"operation": "get", "result": "hit"})
	return nil
}

// CacheSet stores a value in the cache-aside layer.
func (r *BaseRepository) CacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ctx, span := r.tracer(ctx, "BaseRepository.CacheSet")
	defer span.End()

	timer := r.metrics.StartTimer("opstore_cache_operation_duration", map[string]string{"operation": "set"})
	defer timer()

	if ttl == 0 {
		ttl = r.cacheTimeout
	}

	if err := r.cache.Set(ctx, key, value, ttl); err != nil {
		r.metrics.IncrementCounterWithLabels("opstore_cache_operations", 1, map[string]string{"operation": "set", "result": "error"})
		r.logger.Error("cache set error", map[string]interface{}{"error": err.Error(), "key": key})
		return err
	}

	r.metrics.IncrementCounterWithLabels("opstore_cache_operations", 1, map[string]string{"operation": "set", "result": "success"})
	return nil
}

// CacheDelete removes a value from the cache-aside layer.
func (r *BaseRepository) CacheDelete(ctx context.Context, key string) error {
	ctx, span := r.tracer(ctx, "BaseRepository.CacheDelete")
	defer span.End()

	timer := r.metrics.StartTimer("opstore_cache_operation_duration", map[string]string{"operation": "delete"})
	defer timer()

	if err := r.cache.Delete(ctx, key); err != nil {
		r.metrics.IncrementCounterWithLabels("opstore_cache_operations", 1, map[string]string{"operation": "delete", "result": "error"})
		r.logger.Error("cache delete error", map[string]interface{}{"error": err.Error(), "key": key})
		return err
	}

	r.metrics.IncrementCounterWithLabels("opstore_cache_operations", 1, map[string]string{"operation": "delete", "result": "success"})
	return nil
}

// TranslateError converts a raw database error into one of this package's
// sentinel errors, classifying Postgres error codes where possible.
func (r *BaseRepository) TranslateError(err error, entity string) error {
	if err == nil {
		return nil
	}

	if err == sql.ErrNoRows {
		return ErrNotFound
	}

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrDuplicate
		case "23503":
			return errors.Wrap(ErrValidation, "foreign key constraint violation")
		case "23502":
			return errors.Wrap(ErrValidation, "required field missing")
		case "23514":
			return errors.Wrapf(ErrValidation, "check constraint violation: %s", pqErr.Constraint)
		case "40001":
			return ErrOptimisticLock
		}
	}

	r.logger.Error("unexpected database error", map[string]interface{}{"error": err.Error(), "entity": entity})
	return errors.Wrapf(err, "database error for %s", entity)
}

// ExecuteWithCircuitBreaker runs fn through the repository's circuit
// breaker, or directly if none is configured.
func (r *BaseRepository) ExecuteWithCircuitBreaker(ctx context.Context, name string, fn func() (interface{}, error)) (interface{}, error) {
	if r.cb == nil {
		return fn()
	}

	ctx, span := r.tracer(ctx, fmt.Sprintf("BaseRepository.ExecuteWithCircuitBreaker.%s", name))
	defer span.End()

	result, err := r.cb.Execute(ctx, fn)
	if err != nil {
		r.metrics.IncrementCounterWithLabels("opstore_circuit_breaker_errors", 1, map[string]string{"operation": name})
		return nil, err
	}
	return result, nil
}

// ExecuteQuery runs fn under the repository's query timeout, recording
// duration and outcome metrics.
func (r *BaseRepository) ExecuteQuery(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := r.tracer(ctx, fmt.Sprintf("BaseRepository.ExecuteQuery.%s", operation))
	defer span.End()

	timer := r.metrics.StartTimer("opstore_query_duration", map[string]string{"operation": operation})
	defer timer()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		r.metrics.IncrementCounterWithLabels("opstore_query_errors", 1, map[string]string{"operation": operation, "error": classifyDBError(err)})
		return err
	}

	r.metrics.IncrementCounterWithLabels("opstore_query_success", 1, map[string]string{"operation": operation})
	return nil
}

// ExecuteQueryWithRetry retries ExecuteQuery with exponential backoff,
// skipping retry for errors that a retry cannot fix.
func (r *BaseRepository) ExecuteQueryWithRetry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.ExecuteQuery(ctx, operation, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if err == ErrNotFound || err == ErrDuplicate || err == ErrValidation {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		r.logger.Warn("retrying query after error", map[string]interface{}{"operation": operation, "attempt": attempt + 1, "error": err.Error()})

		backoff := time.Duration(attempt+1) * 100 * time.Millisecond
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return errors.Wrapf(lastErr, "query failed after %d attempts", r.maxRetries)
}

// InvalidateCachePattern best-effort invalidates cache entries matching
// pattern; most cache-aside implementations here can't do pattern deletes,
// so this just records the request for monitoring.
func (r *BaseRepository) InvalidateCachePattern(ctx context.Context, pattern string) error {
	_, span := r.tracer(ctx, "BaseRepository.InvalidateCachePattern")
	defer span.End()

	r.logger.Info("cache invalidation requested", map[string]interface{}{"pattern": pattern})
	r.metrics.IncrementCounterWithLabels("opstore_cache_invalidations", 1, map[string]string{"pattern": pattern})
	return nil
}

// Close releases prepared statements held by the repository.
func (r *BaseRepository) Close() error {
	r.stmtCacheMu.Lock()
	defer r.stmtCacheMu.Unlock()

	var errs []error
	for name, stmt := range r.stmtCache {
		if err := stmt.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "failed to close statement %s", name))
		}
	}
	r.stmtCache = make(map[string]*sqlx.NamedStmt)

	if len(errs) > 0 {
		return errors.Errorf("failed to close %d statements", len(errs))
	}
	return nil
}

func classifyDBError(err error) string {
	if err == nil {
		return "none"
	}

	switch err {
	case sql.ErrNoRows, ErrNotFound:
		return "not_found"
	case ErrDuplicate:
		return "duplicate"
	case ErrValidation:
		return "validation"
	case ErrOptimisticLock:
		return "optimistic_lock"
	case context.DeadlineExceeded:
		return "timeout"
	case context.Canceled:
		return "cancelled"
	}

	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return "unknown"
}
