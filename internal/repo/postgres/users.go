package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/devnet/internal/domain/user"
	"github.com/geocoder89/devnet/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

const selectUser = `SELECT id, name, email, password_hash, avatar, created_at FROM users`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Avatar,
		&u.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.prom.ObserveDB("users.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, avatar, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Avatar, u.CreatedAt,
		)
		return e
	})

	if err != nil {
		if code, constraint := pgCode(err); code == codeUniqueViolation && constraint == "users_email_uniq" {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (u user.User, err error) {
	err = r.prom.ObserveDB("users.get_by_email", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE email = $1`, email))
		return err
	})

	return
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (u user.User, err error) {
	err = r.prom.ObserveDB("users.get_by_id", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
		return err
	})

	return
}

// Delete removes the user and everything they own in one transaction.
func (r *UsersRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	statements := []struct {
		op  string
		sql string
	}{
		{op: "users.delete.posts", sql: `DELETE FROM posts WHERE user_id = $1`},
		{op: "users.delete.profile", sql: `DELETE FROM profiles WHERE user_id = $1`},
		{op: "users.delete.user", sql: `DELETE FROM users WHERE id = $1`},
	}

	for _, st := range statements {
		err = r.prom.ObserveDB(st.op, func() error {
			_, e := tx.Exec(ctx, st.sql, id)
			return e
		})

		if err != nil {
			if isBadID(err) {
				return user.ErrNotFound
			}
			return fmt.Errorf("%s: %w", st.op, err)
		}
	}

	return tx.Commit(ctx)
}
