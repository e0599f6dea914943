package sql

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/dynrepo/dialect"
)

// Kind is the kind of a statement, taken from its leading keyword.
type Kind uint8

// Statement kinds counted by StatsDriver.
const (
	KindOther Kind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	numKinds
)

var kindNames = [numKinds]string{"other", "select", "insert", "update", "delete"}

// String returns the lower case name of k.
func (k Kind) String() string {
	if k >= numKinds {
		return kindNames[KindOther]
	}
	return kindNames[k]
}

// KindOf returns the kind of the given SQL statement.
func KindOf(query string) Kind {
	query = strings.TrimSpace(query)
	i := strings.IndexAny(query, " \t\n(")
	if i == -1 {
		i = len(query)
	}
	switch strings.ToUpper(query[:i]) {
	case "SELECT":
		return KindSelect
	case "INSERT":
		return KindInsert
	case "UPDATE":
		return KindUpdate
	case "DELETE":
		return KindDelete
	}
	return KindOther
}

// Statement describes one executed statement.
type Statement struct {
	Kind     Kind
	SQL      string
	Args     []any
	Duration time.Duration
	Err      error
}

// StatsSnapshot is a point-in-time copy of the counters of a StatsDriver.
type StatsSnapshot struct {
	Selects  int64
	Inserts  int64
	Updates  int64
	Deletes  int64
	Other    int64
	Slow     int64
	Errors   int64
	Duration time.Duration
}

// Total returns the number of statements executed.
func (s StatsSnapshot) Total() int64 {
	return s.Selects + s.Inserts + s.Updates + s.Deletes + s.Other
}

// Avg returns the mean statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	if n := s.Total(); n > 0 {
		return s.Duration / time.Duration(n)
	}
	return 0
}

// LogValue implements slog.LogValuer.
func (s StatsSnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("select", s.Selects),
		slog.Int64("insert", s.Inserts),
		slog.Int64("update", s.Updates),
		slog.Int64("delete", s.Deletes),
		slog.Int64("other", s.Other),
		slog.Int64("slow", s.Slow),
		slog.Int64("errors", s.Errors),
		slog.Duration("avg", s.Avg()),
	)
}

type counters struct {
	kinds    [numKinds]atomic.Int64
	slow     atomic.Int64
	errors   atomic.Int64
	duration atomic.Int64
}

// SlowStatementHook is called for every statement slower than the
// threshold of a StatsDriver.
type SlowStatementHook func(context.Context, Statement)

// StatsDriver counts the statements sent through a Driver by kind and
// reports the slow ones.
type StatsDriver struct {
	*Driver
	c    counters
	mu   sync.RWMutex
	slow time.Duration
	hook SlowStatementHook
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a statement is slow.
// The default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slow = d
	}
}

// WithSlowStatementHook sets the function called for slow statements.
func WithSlowStatementHook(hook SlowStatementHook) StatsOption {
	return func(s *StatsDriver) {
		s.hook = hook
	}
}

// WithSlowQueryLog logs slow statements at warn level to l, or to the
// default logger if l is nil.
func WithSlowQueryLog(l *slog.Logger) StatsOption {
	if l == nil {
		l = slog.Default()
	}
	return WithSlowStatementHook(func(ctx context.Context, st Statement) {
		l.WarnContext(ctx, "slow statement", "kind", st.Kind, "duration", st.Duration, "sql", st.SQL, "args", st.Args)
	})
}

// NewStatsDriver wraps drv with statement counters.
//
//	drv, _ := sql.Open("sqlite", "file:chat.db")
//	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryLog(nil))
//	users, _ := repository.New[int64, chat.User](stats)
//	...
//	slog.Info("database", "stats", stats.Stats())
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, slow: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenWithStats opens a Driver and wraps it with NewStatsDriver.
func OpenWithStats(name, source string, opts ...StatsOption) (*StatsDriver, error) {
	drv, err := Open(name, source)
	if err != nil {
		return nil, err
	}
	return NewStatsDriver(drv, opts...), nil
}

// Stats returns a snapshot of the counters.
func (d *StatsDriver) Stats() StatsSnapshot {
	c := &d.c
	return StatsSnapshot{
		Selects:  c.kinds[KindSelect].Load(),
		Inserts:  c.kinds[KindInsert].Load(),
		Updates:  c.kinds[KindUpdate].Load(),
		Deletes:  c.kinds[KindDelete].Load(),
		Other:    c.kinds[KindOther].Load(),
		Slow:     c.slow.Load(),
		Errors:   c.errors.Load(),
		Duration: time.Duration(c.duration.Load()),
	}
}

// ResetStats sets all counters to zero.
func (d *StatsDriver) ResetStats() {
	c := &d.c
	for i := range c.kinds {
		c.kinds[i].Store(0)
	}
	c.slow.Store(0)
	c.errors.Store(0)
	c.duration.Store(0)
}

// SlowThreshold returns the current slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slow
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slow = threshold
}

// Query implements the dialect.ExecQuerier interface.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, query, args, func() error { return d.Driver.Query(ctx, query, args, v) })
}

// Exec implements the dialect.ExecQuerier interface.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, query, args, func() error { return d.Driver.Exec(ctx, query, args, v) })
}

// Tx starts a transaction whose statements are counted by d.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &statsTx{Tx: tx, d: d}, nil
}

func (d *StatsDriver) observe(ctx context.Context, query string, args any, run func() error) error {
	start := time.Now()
	err := run()
	st := Statement{Kind: KindOf(query), SQL: query, Duration: time.Since(start), Err: err}
	d.c.kinds[st.Kind].Add(1)
	d.c.duration.Add(int64(st.Duration))
	if err != nil {
		d.c.errors.Add(1)
	}
	d.mu.RLock()
	threshold, hook := d.slow, d.hook
	d.mu.RUnlock()
	if st.Duration > threshold {
		d.c.slow.Add(1)
		if hook != nil {
			st.Args, _ = args.([]any)
			hook(ctx, st)
		}
	}
	return err
}

type statsTx struct {
	dialect.Tx
	d *StatsDriver
}

func (tx *statsTx) Query(ctx context.Context, query string, args, v any) error {
	return tx.d.observe(ctx, query, args, func() error { return tx.Tx.Query(ctx, query, args, v) })
}

func (tx *statsTx) Exec(ctx context.Context, query string, args, v any) error {
	return tx.d.observe(ctx, query, args, func() error { return tx.Tx.Exec(ctx, query, args, v) })
}

// DebugDriver logs every statement at debug level before running it.
type DebugDriver struct {
	*Driver
	logger *slog.Logger
}

// DebugOption configures a DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLogger sets the logger statements are written to.
func DebugWithLogger(l *slog.Logger) DebugOption {
	return func(d *DebugDriver) {
		d.logger = l
	}
}

// NewDebugDriver wraps drv with statement logging. Statements go to
// slog.Default unless DebugWithLogger is given.
func NewDebugDriver(drv *Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{Driver: drv, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query implements the dialect.ExecQuerier interface.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, d.logger, "query", query, args)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec implements the dialect.ExecQuerier interface.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, d.logger, "exec", query, args)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx starts a transaction whose statements are logged.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.logger.DebugContext(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &debugTx{Tx: tx, logger: d.logger}, nil
}

func logStatement(ctx context.Context, l *slog.Logger, msg, query string, args any) {
	l.DebugContext(ctx, msg, "kind", KindOf(query), "sql", query, "args", args)
}

type debugTx struct {
	dialect.Tx
	logger *slog.Logger
}

func (tx *debugTx) Query(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, tx.logger, "tx query", query, args)
	return tx.Tx.Query(ctx, query, args, v)
}

func (tx *debugTx) Exec(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, tx.logger, "tx exec", query, args)
	return tx.Tx.Exec(ctx, query, args, v)
}

func (tx *debugTx) Commit() error {
	tx.logger.Debug("commit transaction")
	return tx.Tx.Commit()
}

func (tx *debugTx) Rollback() error {
	tx.logger.Debug("rollback transaction")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
)
