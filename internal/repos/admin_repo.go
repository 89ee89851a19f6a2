package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/domain"
)

type AdminRepo struct{ DB *sqlx.DB }

func NewAdminRepo(db *sqlx.DB) *AdminRepo { return &AdminRepo{DB: db} }

func (r *AdminRepo) ByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	var a domain.Admin
	err := r.DB.GetContext(ctx, &a, r.DB.Rebind(`SELECT id,username,password_hash FROM admins WHERE LOWER(username)=LOWER(?)`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdminRepo) BindSession(ctx context.Context, sid, adminID string) error {
	now := domain.FormatTime(time.Now())
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`INSERT INTO sessions(id,admin_id,created_at,last_seen)
                          VALUES(?,?,?,?)
                          ON CONFLICT(id) DO UPDATE SET admin_id=excluded.admin_id,last_seen=excluded.last_seen`), sid, adminID, now, now)
	return err
}

func (r *AdminRepo) SessionAdmin(ctx context.Context, sid string) (*domain.Admin, error) {
	var a domain.Admin
	err := r.DB.GetContext(ctx, &a, r.DB.Rebind(`
      SELECT a.id,a.username,a.password_hash
      FROM sessions s
      JOIN admins a ON a.id=s.admin_id
      WHERE s.id=?`), sid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdminRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE sessions SET admin_id=NULL,last_seen=? WHERE id=?`),
		domain.FormatTime(time.Now()), sid)
	return err
}
