package repos

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

// LimiterStore is a fiber.Storage over the rate_limits table, so request
// counters are shared by every instance pointing at the same database.
type LimiterStore struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ fiber.Storage = (*LimiterStore)(nil)

func NewLimiterStore(db *sqlx.DB) *LimiterStore {
	return &LimiterStore{db: db, now: time.Now}
}

// Get returns nil without error for missing or expired keys, as fiber expects.
func (s *LimiterStore) Get(key string) ([]byte, error) {
	var row struct {
		Value     []byte `db:"value"`
		ExpiresAt int64  `db:"expires_at"`
	}
	err := s.db.Get(&row, s.db.Rebind(`SELECT value, expires_at FROM rate_limits WHERE limit_key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if row.ExpiresAt != 0 && row.ExpiresAt <= s.now().UnixMilli() {
		return nil, nil
	}
	return row.Value, nil
}

func (s *LimiterStore) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	var expiresAt int64
	if exp > 0 {
		expiresAt = s.now().Add(exp).UnixMilli()
	}
	_, err := s.db.Exec(s.db.Rebind(`
		INSERT INTO rate_limits(limit_key, value, expires_at) VALUES(?, ?, ?)
		ON CONFLICT(limit_key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`), key, val, expiresAt)
	return err
}

func (s *LimiterStore) Delete(key string) error {
	_, err := s.db.Exec(s.db.Rebind(`DELETE FROM rate_limits WHERE limit_key = ?`), key)
	return err
}

func (s *LimiterStore) Reset() error {
	_, err := s.db.Exec(`DELETE FROM rate_limits`)
	return err
}

// Sweep drops expired counters.
func (s *LimiterStore) Sweep() error {
	_, err := s.db.Exec(s.db.Rebind(`DELETE FROM rate_limits WHERE expires_at != 0 AND expires_at <= ?`), s.now().UnixMilli())
	return err
}

// Close is a no-op; the database handle belongs to the caller.
func (s *LimiterStore) Close() error { return nil }
