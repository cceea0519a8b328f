package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver, registered as "pgx"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// Record is a single pending message as stored in queue_messages table
type Record struct {
	ID        int64  `db:"id"`
	Queue     string `db:"queue"`
	Message   string `db:"message"`
	CreatedAt int64  `db:"created_at"` // unix nanoseconds
}

// SQL implements Backend on top of a relational table, ordered by insertion time
type SQL struct {
	db  *sqlx.DB
	now func() time.Time
}

// OpenSQLite opens (creates) sqlite database file and makes SQL backend with WAL mode enabled
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // sqlite single writer
	return newSQLWithClose(ctx, db)
}

// OpenPostgres connects to postgres with pgx driver and makes SQL backend
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return newSQLWithClose(ctx, db)
}

func newSQLWithClose(ctx context.Context, db *sqlx.DB) (*SQL, error) {
	res, err := NewSQL(ctx, db)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("%w (also failed to close db: %v)", err, closeErr)
		}
		return nil, err
	}
	return res, nil
}

// NewSQL makes SQL backend for opened db and creates schema if missing.
// Supported drivers are "sqlite" and "pgx".
func NewSQL(ctx context.Context, db *sqlx.DB) (*SQL, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", db.DriverName(), err)
	}
	res := &SQL{db: db, now: time.Now}
	if err := res.initialize(ctx); err != nil {
		return nil, err
	}
	log.Printf("[DEBUG] sql queue backend initialized, driver %s", db.DriverName())
	return res, nil
}

func (s *SQL) initialize(ctx context.Context) error {
	idType := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.db.DriverName() == "pgx" {
		idType = "BIGSERIAL PRIMARY KEY"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS queue_messages (
			id ` + idType + `,
			queue TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queue_messages_fifo ON queue_messages(queue, created_at, id)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Write inserts message with current time
func (s *SQL) Write(ctx context.Context, queue, msg string) error {
	if queue == "" {
		return ErrEmptyQueueName
	}
	q := s.db.Rebind(`INSERT INTO queue_messages (queue, message, created_at) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, queue, msg, s.now().UnixNano()); err != nil {
		return fmt.Errorf("failed to write to %s: %w", queue, err)
	}
	return nil
}

// Read deletes the oldest message and returns it. Single statement, so two readers can't get the same message.
func (s *SQL) Read(ctx context.Context, queue string) (msg string, ok bool, err error) {
	if queue == "" {
		return "", false, ErrEmptyQueueName
	}
	q := s.db.Rebind(`DELETE FROM queue_messages WHERE id = (
		SELECT id FROM queue_messages WHERE queue = ? ORDER BY created_at, id LIMIT 1
	) RETURNING message`)

	err = s.db.QueryRowxContext(ctx, q, queue).Scan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read from %s: %w", queue, err)
	}
	return msg, true, nil
}

// Flush removes all messages of the queue
func (s *SQL) Flush(ctx context.Context, queue string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM queue_messages WHERE queue = ?`), queue); err != nil {
		return fmt.Errorf("failed to flush %s: %w", queue, err)
	}
	return nil
}

// Len returns number of pending messages
func (s *SQL) Len(ctx context.Context, queue string) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(`SELECT COUNT(*) FROM queue_messages WHERE queue = ?`), queue); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", queue, err)
	}
	return count, nil
}

// Peek returns up to limit pending records of the queue in FIFO order, without removing them
func (s *SQL) Peek(ctx context.Context, queue string, limit int) ([]Record, error) {
	res := []Record{}
	q := s.db.Rebind(`SELECT id, queue, message, created_at FROM queue_messages
		WHERE queue = ? ORDER BY created_at, id LIMIT ?`)
	if err := s.db.SelectContext(ctx, &res, q, queue, limit); err != nil {
		return nil, fmt.Errorf("failed to peek %s: %w", queue, err)
	}
	return res, nil
}

// Close closes the database connection
func (s *SQL) Close() error {
	return s.db.Close()
}
