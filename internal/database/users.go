package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"subdel/internal/model"
)

// ErrSubdomainTaken is returned by CreateUser when the unique
// constraint on the subdomain column fires. It is how a concurrent
// signup race resolves to a single winner.
var ErrSubdomainTaken = errors.New("subdomain already taken")

const uniqueViolation = "23505"

const userColumns = `id, subdomain, pass_hash, external_ns,
	external_ns1, external_ns2, external_ns3, external_ns4, external_ns5, external_ns6,
	created_at, updated_at, last_login_at`

func (db *DB) SubdomainExists(ctx context.Context, subdomain string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE subdomain = $1", subdomain,
	).Scan(&count)
	return count > 0, err
}

func (db *DB) GetUserBySubdomain(ctx context.Context, subdomain string) (*model.User, error) {
	u := &model.User{}
	err := db.conn.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE subdomain = $1", subdomain,
	).Scan(
		&u.ID, &u.Subdomain, &u.PassHash, &u.ExternalNS,
		&u.ExternalNSSlots[0], &u.ExternalNSSlots[1], &u.ExternalNSSlots[2],
		&u.ExternalNSSlots[3], &u.ExternalNSSlots[4], &u.ExternalNSSlots[5],
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (db *DB) CreateUser(ctx context.Context, subdomain, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return 0, err
	}

	var id int64
	err = db.conn.QueryRowContext(ctx,
		"INSERT INTO users (subdomain, pass_hash) VALUES ($1, $2) RETURNING id",
		subdomain, string(hash),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, ErrSubdomainTaken
		}
		return 0, err
	}
	return id, nil
}

// SetDelegation stores the delegation mode and up to six external
// nameservers; unused slots are cleared.
func (db *DB) SetDelegation(ctx context.Context, userID int64, external bool, ns []string) error {
	var slots [model.MaxExternalNS]any
	for i := range slots {
		if i < len(ns) {
			slots[i] = ns[i]
		}
	}
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET
			external_ns = $1,
			external_ns1 = $2, external_ns2 = $3, external_ns3 = $4,
			external_ns4 = $5, external_ns5 = $6, external_ns6 = $7,
			updated_at = NOW()
		 WHERE id = $8`,
		external, slots[0], slots[1], slots[2], slots[3], slots[4], slots[5], userID,
	)
	return err
}

func (db *DB) TouchLastLogin(ctx context.Context, userID int64) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1", userID,
	)
	return err
}

// AuthenticateUser returns the user when the password matches, or nil
// without an error when either the user is unknown or the password is
// wrong.
func (db *DB) AuthenticateUser(ctx context.Context, subdomain, password string) (*model.User, error) {
	u, err := db.GetUserBySubdomain(ctx, subdomain)
	if err != nil || u == nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PassHash), []byte(password)); err != nil {
		return nil, nil
	}
	return u, nil
}
