// Package sqlite provides a SQLite-backed tasks.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cyp0633/librecur/tasks"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Due dates are floating wall clock values and are stored without a zone.
// Creation and completion times are instants.
const (
	floatingLayout = "2006-01-02T15:04:05"
	instantLayout  = time.RFC3339Nano
)

// Store provides access to the task database.
type Store struct {
	db     *sql.DB
	loc    *time.Location
	logger *slog.Logger
}

// Option represents a configuration option for the Store
type Option func(*Store)

// WithLogger sets the logger for the store
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocation sets the location floating due dates are read into. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// New opens (creating if needed) the database at dbPath and runs migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{
		db:     db,
		loc:    time.Local,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.logger.Debug("opened task database", "path", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		due_date TEXT,
		recurring TEXT NOT NULL DEFAULT '',
		recurring_mode TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		completed_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS subtasks (
		task_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (task_id, position),
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
	`

	_, err := s.db.Exec(schema)
	return err
}

const selectTask = `SELECT id, title, notes, due_date, recurring, recurring_mode, completed, completed_at, created_at FROM tasks`

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanTask(row scanner) (tasks.Task, error) {
	var (
		t           tasks.Task
		mode        string
		due         sql.NullString
		completedAt sql.NullString
		createdAt   string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Notes, &due, &t.Recurring, &mode, &t.Completed, &completedAt, &createdAt); err != nil {
		return tasks.Task{}, err
	}

	if t.IsRecurring() {
		t.RecurringMode = tasks.ParseRecurringMode(mode)
	}
	if due.Valid {
		d, err := time.ParseInLocation(floatingLayout, due.String, s.loc)
		if err != nil {
			return tasks.Task{}, fmt.Errorf("parse due date of %s: %w", t.ID, err)
		}
		t.DueDate = &d
	}
	if completedAt.Valid {
		c, err := time.Parse(instantLayout, completedAt.String)
		if err != nil {
			return tasks.Task{}, fmt.Errorf("parse completion time of %s: %w", t.ID, err)
		}
		t.CompletedAt = &c
	}
	created, err := time.Parse(instantLayout, createdAt)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("parse creation time of %s: %w", t.ID, err)
	}
	t.CreatedAt = created
	return t, nil
}

func loadSubtasks(ctx context.Context, q querier, t *tasks.Task) error {
	rows, err := q.QueryContext(ctx,
		`SELECT id, title, completed FROM subtasks WHERE task_id = ? ORDER BY position`, t.ID)
	if err != nil {
		return fmt.Errorf("query subtasks: %w", err)
	}
	defer rows.Close()

	t.Subtasks = nil
	for rows.Next() {
		var st tasks.Subtask
		if err := rows.Scan(&st.ID, &st.Title, &st.Completed); err != nil {
			return fmt.Errorf("scan subtask: %w", err)
		}
		t.Subtasks = append(t.Subtasks, st)
	}
	return rows.Err()
}

var (
	_ tasks.Store      = (*Store)(nil)
	_ tasks.Transactor = (*Store)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (*tasks.Task, error) {
	return s.getTask(ctx, s.db, id)
}

// ListTasks returns tasks ordered by due date, undated tasks last.
func (s *Store) ListTasks(ctx context.Context, opts tasks.ListOptions) ([]tasks.Task, error) {
	return s.listTasks(ctx, s.db, opts)
}

// CreateTask inserts a new task, assigning an ID when empty.
func (s *Store) CreateTask(ctx context.Context, task *tasks.Task) error {
	return s.inTx(ctx, func(tx *sql.Tx) error { return s.createTask(ctx, tx, task) })
}

// UpdateTask replaces an existing task and its subtasks.
func (s *Store) UpdateTask(ctx context.Context, task *tasks.Task) error {
	return s.inTx(ctx, func(tx *sql.Tx) error { return s.updateTask(ctx, tx, task) })
}

// DeleteTask removes a task and its subtasks.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.deleteTask(ctx, s.db, id)
}

// WithinTx runs fn against a Store bound to a single transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tasks.Store) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return fn(&txStore{s: s, tx: tx})
	})
}

func (s *Store) getTask(ctx context.Context, q querier, id string) (*tasks.Task, error) {
	t, err := s.scanTask(q.QueryRowContext(ctx, selectTask+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, tasks.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	if err := loadSubtasks(ctx, q, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) listTasks(ctx context.Context, q querier, opts tasks.ListOptions) ([]tasks.Task, error) {
	query := selectTask + ` WHERE 1 = 1`
	var args []any

	if !opts.IncludeCompleted {
		query += ` AND completed = 0`
	}
	if opts.DueBefore != nil {
		query += ` AND due_date IS NOT NULL AND due_date < ?`
		args = append(args, opts.DueBefore.In(s.loc).Format(floatingLayout))
	}
	query += ` ORDER BY due_date IS NULL, due_date, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []tasks.Task
	for rows.Next() {
		t, err := s.scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Single connection: the cursor must be closed before the subtask queries
	rows.Close()

	for i := range out {
		if err := loadSubtasks(ctx, q, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) createTask(ctx context.Context, q querier, task *tasks.Task) error {
	if task == nil {
		return fmt.Errorf("nil task: %w", tasks.ErrInvalidInput)
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	var exists int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE id = ?`, task.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check task: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("task %s: %w", task.ID, tasks.ErrConflict)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO tasks (id, title, notes, due_date, recurring, recurring_mode, completed, completed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Notes, s.floating(task.DueDate), task.Recurring, string(task.RecurringMode),
		task.Completed, instant(task.CompletedAt), task.CreatedAt.UTC().Format(instantLayout),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return writeSubtasks(ctx, q, task)
}

func (s *Store) updateTask(ctx context.Context, q querier, task *tasks.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("task without id: %w", tasks.ErrInvalidInput)
	}

	res, err := q.ExecContext(ctx,
		`UPDATE tasks SET title = ?, notes = ?, due_date = ?, recurring = ?, recurring_mode = ?, completed = ?, completed_at = ?
		 WHERE id = ?`,
		task.Title, task.Notes, s.floating(task.DueDate), task.Recurring, string(task.RecurringMode),
		task.Completed, instant(task.CompletedAt), task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if err := requireRow(res, task.ID); err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM subtasks WHERE task_id = ?`, task.ID); err != nil {
		return fmt.Errorf("clear subtasks: %w", err)
	}
	return writeSubtasks(ctx, q, task)
}

func (s *Store) deleteTask(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(res, id)
}

// requireRow turns a statement that touched no row into ErrNotFound
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for task %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, tasks.ErrNotFound)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// txStore is the Store handed to WithinTx callbacks
type txStore struct {
	s  *Store
	tx *sql.Tx
}

func (t *txStore) GetTask(ctx context.Context, id string) (*tasks.Task, error) {
	return t.s.getTask(ctx, t.tx, id)
}

func (t *txStore) ListTasks(ctx context.Context, opts tasks.ListOptions) ([]tasks.Task, error) {
	return t.s.listTasks(ctx, t.tx, opts)
}

func (t *txStore) CreateTask(ctx context.Context, task *tasks.Task) error {
	return t.s.createTask(ctx, t.tx, task)
}

func (t *txStore) UpdateTask(ctx context.Context, task *tasks.Task) error {
	return t.s.updateTask(ctx, t.tx, task)
}

func (t *txStore) DeleteTask(ctx context.Context, id string) error {
	return t.s.deleteTask(ctx, t.tx, id)
}

func writeSubtasks(ctx context.Context, q querier, task *tasks.Task) error {
	for i, st := range task.Subtasks {
		_, err := q.ExecContext(ctx,
			`INSERT INTO subtasks (task_id, position, id, title, completed) VALUES (?, ?, ?, ?, ?)`,
			task.ID, i, st.ID, st.Title, st.Completed,
		)
		if err != nil {
			return fmt.Errorf("insert subtask: %w", err)
		}
	}
	return nil
}

// floating renders a due date as its wall clock in the store's location
func (s *Store) floating(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.In(s.loc).Format(floatingLayout), Valid: true}
}

func instant(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(instantLayout), Valid: true}
}
