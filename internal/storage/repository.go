package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"billed/internal/core"
	"billed/internal/store"

	"github.com/google/uuid"
)

// Dialect names a supported SQL backend. The value doubles as the
// migrations sub-directory.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string { return string(d) }

// Repository is a store.Store over database/sql.
type Repository struct {
	db      *sql.DB
	dialect Dialect
}

var (
	_ store.Store         = (*Repository)(nil)
	_ store.BillStore     = (*Repository)(nil)
	_ store.ExportTracker = (*Repository)(nil)
)

func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single connection: sqlite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(SQLite, dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: SQLite}, nil
}

func NewPostgresRepository(url string) (*Repository, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(Postgres, url); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: Postgres}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Bills() store.BillStore { return r }

// rebind turns ? placeholders into $n for postgres.
func (r *Repository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Repository) columns() string {
	date := "date"
	if r.dialect == Postgres {
		date = "to_char(date, 'YYYY-MM-DD')"
	}
	return "id, email, type, name, " + date + ", amount, vat, pct, commentary, file_url, file_name, status"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(s rowScanner) (core.Bill, error) {
	var (
		b      core.Bill
		date   string
		status string
	)
	err := s.Scan(&b.ID, &b.Email, &b.Type, &b.Name, &date, &b.Amount, &b.VAT, &b.Pct,
		&b.Commentary, &b.FileURL, &b.FileName, &status)
	if err != nil {
		return core.Bill{}, err
	}
	d, err := core.ParseISODate(date)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %s: %w", b.ID, err)
	}
	b.Date = d
	b.Status = core.Status(status)
	return b, nil
}

func (r *Repository) queryBills(ctx context.Context, query string, args ...any) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// List implements store.BillStore.
func (r *Repository) List(ctx context.Context) ([]core.Bill, error) {
	bills, err := r.queryBills(ctx,
		"SELECT "+r.columns()+" FROM bills ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

// Create implements store.BillStore.
func (r *Repository) Create(ctx context.Context, b core.Bill) (core.Bill, error) {
	if b.Status == "" {
		b.Status = core.StatusPending
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	// Version 7 IDs sort by creation time, breaking created_at ties.
	id, err := uuid.NewV7()
	if err != nil {
		return core.Bill{}, fmt.Errorf("generate bill id: %w", err)
	}
	b.ID = id.String()

	_, err = r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO bills (id, email, type, name, date, amount, vat, pct, commentary, file_url, file_name, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.Email, b.Type, b.Name, b.Date.ISO(), b.Amount, b.VAT, b.Pct,
		b.Commentary, b.FileURL, b.FileName, string(b.Status))
	if err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill saved",
		"backend", string(r.dialect),
		"bill_id", b.ID,
		"type", b.Type,
		"amount", b.Amount)

	return b, nil
}

// Update implements store.BillStore. The stored owner email is kept.
func (r *Repository) Update(ctx context.Context, b core.Bill) (core.Bill, error) {
	if strings.TrimSpace(b.ID) == "" {
		return core.Bill{}, store.ErrMissingID
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Bill{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	current, err := scanBill(tx.QueryRowContext(ctx,
		r.rebind("SELECT "+r.columns()+" FROM bills WHERE id = ?"), b.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, store.ErrBillNotFound
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("load bill: %w", err)
	}

	b.Email = current.Email
	if b.Status == "" {
		b.Status = current.Status
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}

	_, err = tx.ExecContext(ctx, r.rebind(`
		UPDATE bills
		SET type = ?, name = ?, date = ?, amount = ?, vat = ?, pct = ?, commentary = ?,
		    file_url = ?, file_name = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`),
		b.Type, b.Name, b.Date.ISO(), b.Amount, b.VAT, b.Pct, b.Commentary,
		b.FileURL, b.FileName, string(b.Status), b.ID)
	if err != nil {
		return core.Bill{}, fmt.Errorf("update bill: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Bill{}, fmt.Errorf("commit update: %w", err)
	}
	return b, nil
}

// PendingExports implements store.ExportTracker.
func (r *Repository) PendingExports(ctx context.Context, limit int) ([]core.Bill, error) {
	if limit <= 0 {
		limit = 50
	}
	bills, err := r.queryBills(ctx,
		"SELECT "+r.columns()+" FROM bills WHERE ledger_ref = '' AND file_url <> '' ORDER BY created_at ASC, id ASC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	return bills, nil
}

// MarkExported implements store.ExportTracker.
func (r *Repository) MarkExported(ctx context.Context, id string, rowRef string) error {
	res, err := r.db.ExecContext(ctx,
		r.rebind("UPDATE bills SET ledger_ref = ?, exported_at = CURRENT_TIMESTAMP WHERE id = ?"),
		rowRef, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	if n == 0 {
		return store.ErrBillNotFound
	}
	return nil
}
