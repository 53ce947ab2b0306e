package permkit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fernandezvara/dbkit"
)

// transaction runs fn in a single database transaction. Every mutating
// operation of the ledger goes through here so that state rows and their
// events commit or roll back together. If the ledger already sits on an open
// transaction, fn runs in a savepoint.
func (l *Ledger) transaction(ctx context.Context, fn func(ctx context.Context, tx dbkit.IDB) error) error {
	start := time.Now()
	var err error

	switch db := l.db.(type) {
	case *dbkit.Tx:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, tx)
		})
	case *dbkit.DBKit:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, tx)
		})
	default:
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	l.txMonitor.recordTransaction(time.Since(start), err == nil)
	return err
}

// Transaction executes fn within a database transaction with automatic
// commit/rollback, passing a Ledger bound to the transaction. Use it to group
// several ledger operations atomically.
//
// Example:
//
//	err := ledger.Transaction(ctx, func(ctx context.Context, tx *permkit.Ledger) error {
//	    if err := tx.Mint(ctx, "0xaa..", permkit.RoleMinter); err != nil {
//	        return err // rolls back
//	    }
//	    return tx.Mint(ctx, "0xbb..", permkit.RoleMinter) // commit on nil
//	})
func (l *Ledger) Transaction(ctx context.Context, fn func(ctx context.Context, tx *Ledger) error) error {
	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		scoped := &Ledger{db: tx, txMonitor: l.txMonitor}
		return fn(ctx, scoped)
	})
}

// TransactionWithOptions executes fn within a database transaction with
// custom options. Supports read-only transactions and isolation levels.
// Nested calls fall back to savepoints, which do not carry options.
func (l *Ledger) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context, tx *Ledger) error) error {
	if tx, ok := l.db.(*dbkit.Tx); ok {
		return tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, &Ledger{db: tx, txMonitor: l.txMonitor})
		})
	}

	if db, ok := l.db.(*dbkit.DBKit); ok {
		return db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(ctx, &Ledger{db: tx, txMonitor: l.txMonitor})
		})
	}

	return fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
}

// ReadOnlyTransaction executes fn within a read-only database transaction.
// Useful for multi-query reads that need a consistent snapshot.
func (l *Ledger) ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx *Ledger) error) error {
	return l.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}

// TransactionMetrics provides transaction performance and failure statistics.
type TransactionMetrics struct {
	TotalTransactions      int64         `json:"total_transactions"`
	SuccessfulTransactions int64         `json:"successful_transactions"`
	FailedTransactions     int64         `json:"failed_transactions"`
	AverageDuration        time.Duration `json:"average_duration"`
	MaxDuration            time.Duration `json:"max_duration"`
	MinDuration            time.Duration `json:"min_duration"`
	LastReset              time.Time     `json:"last_reset"`
}

// GetTransactionMetrics returns the current transaction metrics.
func (l *Ledger) GetTransactionMetrics() TransactionMetrics {
	return l.txMonitor.getMetrics()
}

// ResetTransactionMetrics resets the collected transaction metrics.
func (l *Ledger) ResetTransactionMetrics() {
	l.txMonitor.reset()
}

// transactionMonitor holds the internal transaction monitoring state
type transactionMonitor struct {
	totalCount    int64
	successCount  int64
	failureCount  int64
	totalDuration int64 // nanoseconds
	maxDuration   int64 // nanoseconds
	minDuration   int64 // nanoseconds
	lastReset     time.Time
	mu            sync.RWMutex
}

func newTransactionMonitor() *transactionMonitor {
	return &transactionMonitor{
		minDuration: int64(time.Hour), // Initialize to a large value
		lastReset:   time.Now(),
	}
}

// recordTransaction records a transaction completion with its duration and success status
func (tm *transactionMonitor) recordTransaction(duration time.Duration, success bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	atomic.AddInt64(&tm.totalCount, 1)
	atomic.AddInt64(&tm.totalDuration, int64(duration))

	if success {
		atomic.AddInt64(&tm.successCount, 1)
	} else {
		atomic.AddInt64(&tm.failureCount, 1)
	}

	durationNs := int64(duration)
	for {
		current := atomic.LoadInt64(&tm.maxDuration)
		if durationNs <= current || atomic.CompareAndSwapInt64(&tm.maxDuration, current, durationNs) {
			break
		}
	}

	for {
		current := atomic.LoadInt64(&tm.minDuration)
		if durationNs >= current || atomic.CompareAndSwapInt64(&tm.minDuration, current, durationNs) {
			break
		}
	}
}

// getMetrics returns the current transaction metrics
func (tm *transactionMonitor) getMetrics() TransactionMetrics {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	total := atomic.LoadInt64(&tm.totalCount)
	success := atomic.LoadInt64(&tm.successCount)
	failure := atomic.LoadInt64(&tm.failureCount)
	totalDur := atomic.LoadInt64(&tm.totalDuration)
	maxDur := atomic.LoadInt64(&tm.maxDuration)
	minDur := atomic.LoadInt64(&tm.minDuration)

	var avgDuration time.Duration
	if total > 0 {
		avgDuration = time.Duration(totalDur / total)
	}

	return TransactionMetrics{
		TotalTransactions:      total,
		SuccessfulTransactions: success,
		FailedTransactions:     failure,
		AverageDuration:        avgDuration,
		MaxDuration:            time.Duration(maxDur),
		MinDuration:            time.Duration(minDur),
		LastReset:              tm.lastReset,
	}
}

// reset resets all metrics
func (tm *transactionMonitor) reset() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	atomic.StoreInt64(&tm.totalCount, 0)
	atomic.StoreInt64(&tm.successCount, 0)
	atomic.StoreInt64(&tm.failureCount, 0)
	atomic.StoreInt64(&tm.totalDuration, 0)
	atomic.StoreInt64(&tm.maxDuration, 0)
	atomic.StoreInt64(&tm.minDuration, int64(time.Hour))
	tm.lastReset = time.Now()
}
