package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/oops"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-auth-service/internal/database"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrStoreUnavailable = errors.New("user store unavailable")
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations
const uniqueViolation pq.ErrorCode = "23505"

// Store is the set of user queries the auth service depends on
type Store interface {
	Create(ctx context.Context, email, passwordHash string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// TxStore is a Store that can scope a unit of work to one transaction
type TxStore interface {
	Store
	RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// Repository handles user data persistence
type Repository struct {
	db   *bun.DB
	conn bun.IDB
	inTx bool
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db, conn: db}
}

// RunInTx runs fn with a Store bound to a single transaction. The transaction
// commits when fn returns nil and rolls back on error or panic, so the
// connection is released on every exit path. Calls made inside fn reuse the
// open transaction.
func (r *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	if r.inTx {
		return fn(ctx, r)
	}

	var fnErr error
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		fnErr = fn(ctx, &Repository{db: r.db, conn: tx, inTx: true})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return storeError(err, "run transaction")
	}

	return nil
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	dbUser := &database.User{
		Email:          email,
		HashedPassword: passwordHash,
		IsActive:       true,
	}

	_, err := r.conn.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, storeError(err, "insert user")
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.conn.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeError(err, "get user by email")
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.conn.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeError(err, "get user by id")
	}

	return mapDBUserToModel(dbUser), nil
}

func storeError(err error, operation string) error {
	return oops.
		In("user_repository").
		Code("STORE_UNAVAILABLE").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		Email:        dbu.Email,
		PasswordHash: dbu.HashedPassword,
		CreatedAt:    dbu.CreatedAt,
		IsActive:     dbu.IsActive,
		IsSuperuser:  dbu.IsSuperuser,
	}
}
