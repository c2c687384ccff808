package ticket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	model "github.com/aurora-press/editorial-assistant/internal/model/ticket"
)

// SQLitePersistence stores tickets in a local SQLite database so support
// requests survive process restarts.
type SQLitePersistence struct {
	db *sql.DB
}

// NewSQLitePersistence opens or creates the database at the given path and
// applies the schema.
func NewSQLitePersistence(dbPath string) (*SQLitePersistence, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	p := &SQLitePersistence{db: db}
	if err := p.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

func (p *SQLitePersistence) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		id          TEXT PRIMARY KEY,
		subject     TEXT NOT NULL,
		description TEXT NOT NULL,
		status      TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
	`
	_, err := p.db.Exec(schema)
	return err
}

func (p *SQLitePersistence) Save(ctx context.Context, t model.Ticket) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO tickets (id, subject, description, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject = excluded.subject,
			description = excluded.description,
			status = excluded.status`,
		t.ID, t.Subject, t.Description, string(t.Status), t.CreatedAt.Format(time.RFC3339))
	return err
}

func (p *SQLitePersistence) Load(ctx context.Context, id string) (model.Ticket, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, subject, description, status, created_at
		FROM tickets WHERE id = ?`, id)

	t, err := scanTicket(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ticket{}, ErrNotFound
	}
	return t, err
}

func (p *SQLitePersistence) List(ctx context.Context) ([]model.Ticket, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, subject, description, status, created_at
		FROM tickets ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows.Scan)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (p *SQLitePersistence) Close() error {
	return p.db.Close()
}

func scanTicket(scan func(dest ...any) error) (model.Ticket, error) {
	var t model.Ticket
	var status, createdAt string
	if err := scan(&t.ID, &t.Subject, &t.Description, &status, &createdAt); err != nil {
		return model.Ticket{}, err
	}
	t.Status = model.Status(status)
	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("parse created_at for %s: %w", t.ID, err)
	}
	t.CreatedAt = parsed
	return t, nil
}
