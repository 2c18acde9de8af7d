package admins

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("admin not found")
	ErrDuplicateUsername = errors.New("an admin with that username already exists")
)

type Store interface {
	Create(ctx context.Context, a *Admin) error
	GetByID(ctx context.Context, id int64) (*Admin, error)
	GetByUsername(ctx context.Context, username string) (*Admin, error)
	SaveRefreshToken(ctx context.Context, id int64, token string) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, a *Admin) error {
	query := `
		INSERT INTO admins (username, password)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query, a.Username, a.Password.Hash()).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Admin, error) {
	query := `SELECT id, username, password, COALESCE(refresh_token, ''), created_at, updated_at FROM admins WHERE id = $1;`
	return r.scanAdmin(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	query := `SELECT id, username, password, COALESCE(refresh_token, ''), created_at, updated_at FROM admins WHERE username = $1;`
	return r.scanAdmin(r.db.QueryRow(ctx, query, username))
}

func (r *Repository) SaveRefreshToken(ctx context.Context, id int64, token string) error {
	tag, err := r.db.Exec(ctx, `UPDATE admins SET refresh_token = $2, updated_at = now() WHERE id = $1;`, id, token)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) scanAdmin(row pgx.Row) (*Admin, error) {
	a := &Admin{}
	var hash []byte
	if err := row.Scan(&a.ID, &a.Username, &hash, &a.RefreshToken, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	a.Password.SetHash(hash)
	return a, nil
}
