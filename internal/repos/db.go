package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"campusmart/internal/domain"
	"campusmart/internal/log"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means a conditional write lost against a concurrent change.
	ErrConflict = errors.New("conflicting update")
	// ErrPriceFrozen means a price edit hit a product that orders already reference.
	ErrPriceFrozen = errors.New("price is fixed once ordered")
)

// OpenDB opens Postgres for postgres:// DSNs and SQLite for everything else,
// then makes sure the schema exists.
func OpenDB(dsn string) (*sqlx.DB, error) {
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "postgres"
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection: :memory: databases are per-connection and sqlite serializes writers anyway
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return db, nil
}

const schemaTmpl = `
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL,
  class INTEGER NOT NULL CHECK (class BETWEEN 6 AND 12),
  section TEXT NOT NULL,
  seller_id TEXT NOT NULL DEFAULT '',
  seller_name TEXT NOT NULL,
  seller_phone TEXT NOT NULL,
  seller_email TEXT NOT NULL,
  likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  is_sold_out BOOLEAN NOT NULL DEFAULT FALSE,
  approval_status TEXT NOT NULL DEFAULT 'pending' CHECK (approval_status IN ('pending','approved','rejected')),
  created_at TEXT NOT NULL,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_approval ON products(approval_status, is_active);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Orders are never deleted (audit trail)
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  buyer_name TEXT NOT NULL,
  buyer_class INTEGER NOT NULL CHECK (buyer_class BETWEEN 6 AND 12),
  buyer_section TEXT NOT NULL,
  buyer_email TEXT NOT NULL,
  buyer_phone TEXT NOT NULL,
  buyer_id TEXT,
  pickup_location TEXT NOT NULL,
  pickup_time TEXT NOT NULL,
  amount TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','confirmed','delivered','cancelled')),
  cancelled_by TEXT CHECK (cancelled_by IN ('buyer','admin')),
  cancellation_reason TEXT,
  delivery_confirmed_at TEXT,
  invoice_generated BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TEXT NOT NULL,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id);
CREATE INDEX IF NOT EXISTS idx_orders_product ON orders(product_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

-- Admins & Sessions
CREATE TABLE IF NOT EXISTS admins(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  admin_id TEXT NULL REFERENCES admins(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_admin ON sessions(admin_id);

-- Rate limiter counters shared by every instance
CREATE TABLE IF NOT EXISTS rate_limits(
  limit_key TEXT PRIMARY KEY,
  value {{blob}} NOT NULL,
  expires_at {{bigint}} NOT NULL DEFAULT 0
);
`

func ensureSchema(db *sqlx.DB) error {
	r := strings.NewReplacer("{{blob}}", "BLOB", "{{bigint}}", "INTEGER")
	prefix := "PRAGMA foreign_keys = ON;\n"
	if db.DriverName() == "postgres" {
		r = strings.NewReplacer("{{blob}}", "BYTEA", "{{bigint}}", "BIGINT")
		prefix = ""
	}
	_, err := db.Exec(prefix + r.Replace(schemaTmpl))
	return err
}

// EnsureAdmin creates the admin account if the username is not taken yet.
// Safe to run on every startup (idempotent).
func EnsureAdmin(ctx context.Context, db *sqlx.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO admins(id, username, password_hash, created_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(username) DO NOTHING
	`), uuid.NewString(), username, string(h), domain.FormatTime(time.Now()))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Audit(nil, "admin.seeded", map[string]any{"username": username})
	}
	return nil
}
