// Package memory implements the repositories on guarded maps. It backs the
// service tests and STORAGE_DRIVER=memory for local runs.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/absence"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/holiday"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/schedule"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/user"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type tables struct {
	users         map[string]user.User
	employees     map[string]employee.Employee
	positions     map[string]position.Position
	holidays      map[string]holiday.Holiday
	absences      map[string]absence.AbsencePeriod
	blocks        map[string]workblock.WorkBlock
	schedules     map[string]schedule.Schedule
	shifts        map[string]schedule.Shift
	payrolls      map[string]payroll.Payroll
	notifications map[string]notification.Notification
}

func newTables() tables {
	return tables{
		users:         make(map[string]user.User),
		employees:     make(map[string]employee.Employee),
		positions:     make(map[string]position.Position),
		holidays:      make(map[string]holiday.Holiday),
		absences:      make(map[string]absence.AbsencePeriod),
		blocks:        make(map[string]workblock.WorkBlock),
		schedules:     make(map[string]schedule.Schedule),
		shifts:        make(map[string]schedule.Shift),
		payrolls:      make(map[string]payroll.Payroll),
		notifications: make(map[string]notification.Notification),
	}
}

// clone copies every table. Rows are values, so a shallow map copy suffices.
func (t tables) clone() tables {
	return tables{
		users:         cloneMap(t.users),
		employees:     cloneMap(t.employees),
		positions:     cloneMap(t.positions),
		holidays:      cloneMap(t.holidays),
		absences:      cloneMap(t.absences),
		blocks:        cloneMap(t.blocks),
		schedules:     cloneMap(t.schedules),
		shifts:        cloneMap(t.shifts),
		payrolls:      cloneMap(t.payrolls),
		notifications: cloneMap(t.notifications),
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store holds every table behind one RWMutex. Transactions are serialized
// by txMu and roll back by restoring a snapshot, so every write outside a
// transaction also takes txMu; otherwise a rollback would discard it.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	t    tables
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{t: newTables(), now: time.Now}
}

// SetClock replaces the timestamp source used for created/updated fields.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// lockWrite takes the write locks for one mutation and returns the release.
// Inside a transaction txMu is already held by the caller.
func (s *Store) lockWrite(ctx context.Context) func() {
	owned := !inTx(ctx)
	if owned {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if owned {
			s.txMu.Unlock()
		}
	}
}

type transactor struct {
	s *Store
}

func NewTransactor(s *Store) database.Transactor {
	return &transactor{s: s}
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	t.s.mu.RLock()
	snapshot := t.s.t.clone()
	t.s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.s.mu.Lock()
		t.s.t = snapshot
		t.s.mu.Unlock()
		return err
	}
	return nil
}

// AdvisoryLock needs no bookkeeping: transactions already run one at a time.
func (t *transactor) AdvisoryLock(ctx context.Context, key string) error {
	if !inTx(ctx) {
		return errors.New("advisory lock requires a transaction")
	}
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func sortedValues[V any](m map[string]V, less func(a, b V) bool) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (s *Store) employeeName(id string) *string {
	e, ok := s.t.employees[id]
	if !ok {
		return nil
	}
	name := e.FullName
	return &name
}
