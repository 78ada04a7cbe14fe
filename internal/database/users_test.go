package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &DB{conn: conn}, mock
}

func TestSubdomainExists(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE subdomain = $1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := db.SubdomainExists(context.Background(), "alice")
	if err != nil {
		t.Fatalf("SubdomainExists: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateUser(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (subdomain, pass_hash) VALUES ($1, $2) RETURNING id")).
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := db.CreateUser(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_subdomain_key"})

	_, err := db.CreateUser(context.Background(), "alice", "hunter22")
	if !errors.Is(err, ErrSubdomainTaken) {
		t.Fatalf("expected ErrSubdomainTaken, got %v", err)
	}
}

func TestSetDelegationFillsAndClearsSlots(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE users SET").
		WithArgs(true, "ns1.example.net.", "ns2.example.net.", nil, nil, nil, nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := db.SetDelegation(context.Background(), 7, true, []string{"ns1.example.net.", "ns2.example.net."})
	if err != nil {
		t.Fatalf("SetDelegation: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAuthenticateUser(t *testing.T) {
	db, mock := newMockDB(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "subdomain", "pass_hash", "external_ns",
			"external_ns1", "external_ns2", "external_ns3", "external_ns4", "external_ns5", "external_ns6",
			"created_at", "updated_at", "last_login_at",
		}).AddRow(
			int64(7), "alice", string(hash), false,
			nil, nil, nil, nil, nil, nil,
			time.Now(), time.Now(), nil,
		)
	}

	mock.ExpectQuery("FROM users WHERE subdomain").
		WithArgs("alice").WillReturnRows(rows())

	u, err := db.AuthenticateUser(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("AuthenticateUser: %v", err)
	}
	if u == nil || u.Subdomain != "alice" {
		t.Fatalf("unexpected user: %#v", u)
	}

	mock.ExpectQuery("FROM users WHERE subdomain").
		WithArgs("alice").WillReturnRows(rows())

	u, err = db.AuthenticateUser(context.Background(), "alice", "wrong")
	if err != nil {
		t.Fatalf("AuthenticateUser wrong password: %v", err)
	}
	if u != nil {
		t.Fatal("wrong password must not authenticate")
	}
}

func TestGetUserBySubdomainMissing(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM users WHERE subdomain").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	u, err := db.GetUserBySubdomain(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("GetUserBySubdomain: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil for missing user, got %#v", u)
	}
}
