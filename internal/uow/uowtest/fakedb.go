// Package uowtest provides an in-memory database that runs fake stored
// procedures behind the unit of work, for tests that need transactions
// without a PostgreSQL server.
//
// Each transaction works on a copy of the committed state taken at Begin.
// Commit publishes the copy and rollback discards it. Calls outside a
// transaction run on their own copy, which is published only if the call
// completes, so a single call is atomic. Concurrent transactions are
// last-writer-wins.
package uowtest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/orders-inventory/internal/uow"
)

// Result is what a fake procedure returns. Row, when set, is sent back
// verbatim instead of {errorCode, data}.
type Result struct {
	ErrorCode int
	Data      any
	Row       string
}

func OK(data any) Result       { return Result{Data: data} }
func Code(code int) Result     { return Result{ErrorCode: code} }
func RawRow(row string) Result { return Result{Row: row} }

// Procedure implements one stored procedure over the store.
type Procedure func(s *Store, args Args) Result

// FakeDB implements uow.Connector.
type FakeDB struct {
	mu sync.Mutex

	committed *Store
	procs     map[string]Procedure
	faults    map[string]*fault
	commitErr error
	beginErr  error
	acquire   error

	seq   map[string]int64
	clock time.Time

	calls    []string
	acquired int
	released int
	commits  int
	rollback int
}

type fault struct {
	err        error
	afterWrite int
}

var _ uow.Connector = (*FakeDB)(nil)

func New() *FakeDB {
	db := &FakeDB{
		procs:  map[string]Procedure{},
		faults: map[string]*fault{},
		seq:    map[string]int64{},
		clock:  time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	db.committed = db.newStore()
	return db
}

// Register adds or replaces a procedure.
func (db *FakeDB) Register(name string, proc Procedure) *FakeDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.procs[name] = proc
	return db
}

// FailOn makes every call of procedure fail at the transport level before it
// runs.
func (db *FakeDB) FailOn(procedure string, err error) {
	db.FailAfterWrites(procedure, 0, err)
}

// FailAfterWrites lets procedure perform n writes and then fails the call at
// the transport level, mid-way through its work.
func (db *FakeDB) FailAfterWrites(procedure string, n int, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.faults[procedure] = &fault{err: err, afterWrite: n}
}

// ClearFaults removes every injected failure.
func (db *FakeDB) ClearFaults() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.faults = map[string]*fault{}
	db.commitErr, db.beginErr, db.acquire = nil, nil, nil
}

func (db *FakeDB) FailCommit(err error)  { db.mu.Lock(); db.commitErr = err; db.mu.Unlock() }
func (db *FakeDB) FailBegin(err error)   { db.mu.Lock(); db.beginErr = err; db.mu.Unlock() }
func (db *FakeDB) FailAcquire(err error) { db.mu.Lock(); db.acquire = err; db.mu.Unlock() }

// Seed writes straight into the committed state.
func (db *FakeDB) Seed(fn func(s *Store)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := db.committed.clone()
	fn(s)
	db.committed = s
}

// Committed returns a copy of the committed state for assertions.
func (db *FakeDB) Committed() *Store {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.committed.clone()
}

// Calls returns the procedures invoked so far, in order.
func (db *FakeDB) Calls() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string(nil), db.calls...)
}

// Stats reports connection and transaction bookkeeping.
type Stats struct {
	Acquired  int
	Released  int
	Commits   int
	Rollbacks int
}

func (db *FakeDB) Stats() Stats {
	db.mu.Lock()
	defer db.mu.Unlock()
	return Stats{Acquired: db.acquired, Released: db.released, Commits: db.commits, Rollbacks: db.rollback}
}

func (db *FakeDB) Acquire(ctx context.Context) (uow.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.acquire != nil {
		return nil, db.acquire
	}
	db.acquired++
	return &conn{db: db}, nil
}

func (db *FakeDB) newStore() *Store {
	return &Store{tables: map[string]map[int64]any{}, db: db, budget: -1}
}

// now advances the clock so successive writes get increasing timestamps.
func (db *FakeDB) now() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *FakeDB) nextID(table string) int64 {
	db.seq[table]++
	return db.seq[table]
}

// exec runs one call against the given store. Caller holds db.mu.
func (db *FakeDB) exec(ctx context.Context, s *Store, sql string, args []any) (body []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, params, err := parseCall(sql, args)
	if err != nil {
		return nil, err
	}
	db.calls = append(db.calls, name)

	proc, ok := db.procs[name]
	if !ok {
		return nil, fmt.Errorf("function %s does not exist", name)
	}

	s.budget = -1
	if f, ok := db.faults[name]; ok {
		if f.afterWrite == 0 {
			return nil, f.err
		}
		s.budget, s.fault = f.afterWrite, f.err
	}
	defer func() { s.budget, s.fault = -1, nil }()

	defer func() {
		if r := recover(); r != nil {
			var injected writeFault
			if errors.As(asError(r), &injected) {
				err = injected.err
				return
			}
			err = fmt.Errorf("fake procedure %s: %v", name, r)
		}
	}()

	res := proc(s, params)
	if res.Row != "" {
		return []byte(res.Row), nil
	}
	return json.Marshal(map[string]any{"errorCode": res.ErrorCode, "data": res.Data})
}

func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

type conn struct {
	db       *FakeDB
	released bool
}

func (c *conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db := c.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if c.released {
		return row{err: errors.New("connection released")}
	}
	stage := db.committed.clone()
	body, err := db.exec(ctx, stage, sql, args)
	if err != nil {
		return row{err: err}
	}
	db.committed = stage
	return row{body: body}
}

func (c *conn) Begin(ctx context.Context) (uow.Tx, error) {
	db := c.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if c.released {
		return nil, errors.New("connection released")
	}
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	return &tx{db: db, stage: db.committed.clone()}, nil
}

func (c *conn) Release() {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if !c.released {
		c.released = true
		c.db.released++
	}
}

type tx struct {
	db     *FakeDB
	stage  *Store
	closed bool
	failed error
}

func (t *tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db := t.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if t.closed {
		return row{err: pgx.ErrTxClosed}
	}
	if t.failed != nil {
		return row{err: errors.New("current transaction is aborted")}
	}
	body, err := db.exec(ctx, t.stage, sql, args)
	if err != nil {
		t.failed = err
		return row{err: err}
	}
	return row{body: body}
}

func (t *tx) Commit(ctx context.Context) error {
	db := t.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if t.closed {
		return pgx.ErrTxClosed
	}
	if db.commitErr != nil {
		return db.commitErr
	}
	if t.failed != nil {
		t.closed = true
		db.rollback++
		return pgx.ErrTxCommitRollback
	}
	t.closed = true
	db.committed = t.stage
	db.commits++
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	db := t.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	db.rollback++
	return nil
}

type row struct {
	body []byte
	err  error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != 1 {
		return fmt.Errorf("expected 1 destination, got %d", len(dest))
	}
	out, ok := dest[0].(*[]byte)
	if !ok {
		return fmt.Errorf("unsupported destination %T", dest[0])
	}
	*out = r.body
	return nil
}

var callPattern = regexp.MustCompile(`^SELECT to_jsonb\(r\) FROM (.+)\((.*)\) AS r$`)

// parseCall reads the statement built by storedproc.BuildQuery.
func parseCall(sql string, args []any) (string, Args, error) {
	m := callPattern.FindStringSubmatch(sql)
	if m == nil {
		return "", nil, fmt.Errorf("unsupported statement %q", sql)
	}

	parts := strings.Split(m[1], ".")
	for i, part := range parts {
		parts[i] = strings.Trim(part, `"`)
	}
	name := parts[len(parts)-1]

	params := Args{}
	if strings.TrimSpace(m[2]) == "" {
		return name, params, nil
	}
	for _, named := range strings.Split(m[2], ", ") {
		key, placeholder, ok := strings.Cut(named, " => $")
		if !ok {
			return "", nil, fmt.Errorf("unsupported argument %q", named)
		}
		n, err := strconv.Atoi(placeholder)
		if err != nil || n < 1 || n > len(args) {
			return "", nil, fmt.Errorf("bad placeholder in %q", named)
		}
		params[key] = args[n-1]
	}
	return name, params, nil
}

// Store is the table state visible to one call or transaction. Rows are
// values: procedures read with Get and write back with Put.
type Store struct {
	tables map[string]map[int64]any
	db     *FakeDB

	budget int
	fault  error
}

type writeFault struct{ err error }

func (f writeFault) Error() string { return f.err.Error() }

func (s *Store) clone() *Store {
	out := &Store{tables: make(map[string]map[int64]any, len(s.tables)), db: s.db, budget: -1}
	for name, rows := range s.tables {
		copied := make(map[int64]any, len(rows))
		for id, r := range rows {
			copied[id] = r
		}
		out.tables[name] = copied
	}
	return out
}

// NextID allocates an id. Ids are never reused, even after a rollback.
func (s *Store) NextID(table string) int64 { return s.db.nextID(table) }

// Now returns a timestamp later than every earlier one.
func (s *Store) Now() time.Time { return s.db.now() }

// Put writes a row, consuming the write budget of an injected fault.
func (s *Store) Put(table string, id int64, value any) {
	if s.budget == 0 {
		panic(writeFault{err: s.fault})
	}
	if s.budget > 0 {
		s.budget--
	}
	rows, ok := s.tables[table]
	if !ok {
		rows = map[int64]any{}
		s.tables[table] = rows
	}
	rows[id] = value
}

// Count returns the number of rows in table.
func (s *Store) Count(table string) int { return len(s.tables[table]) }

// Get returns the row with id from table.
func Get[T any](s *Store, table string, id int64) (T, bool) {
	v, ok := s.tables[table][id]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Rows returns every row of table ordered by id.
func Rows[T any](s *Store, table string) []T {
	ids := make([]int64, 0, len(s.tables[table]))
	for id := range s.tables[table] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.tables[table][id].(T))
	}
	return out
}
