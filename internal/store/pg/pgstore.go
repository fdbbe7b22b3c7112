package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"meridianbank.org/internal/auth"
	"meridianbank.org/internal/ids"
)

const pgErrUniqueViolation = "23505"

// Store implements auth.IdentityStore and auth.AuditRecorder on PostgreSQL.
type Store struct {
	db *sql.DB
}

var (
	_ auth.IdentityStore = (*Store)(nil)
	_ auth.AuditRecorder = (*Store)(nil)
)

// Open connects to PostgreSQL and tunes the connection pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection. Used in tests.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Create inserts a new identity. The unique index on email is the
// authoritative guard against racing registrations; a violation maps to
// auth.ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, identity *auth.Identity) error {
	row := s.db.QueryRowContext(ctx, `
		insert into identities (full_name, email, phone, password_hash, role)
		values ($1, $2, $3, $4, $5)
		returning id, created_at, updated_at
	`, identity.FullName, identity.Email, identity.Phone, identity.PasswordHash, string(identity.Role))
	if err := row.Scan(&identity.ID, &identity.CreatedAt, &identity.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	return s.findBy(ctx, `
		select id, full_name, email, phone, password_hash, role, created_at, updated_at
		from identities
		where email = $1
	`, email)
}

func (s *Store) FindByID(ctx context.Context, id int64) (*auth.Identity, error) {
	return s.findBy(ctx, `
		select id, full_name, email, phone, password_hash, role, created_at, updated_at
		from identities
		where id = $1
	`, id)
}

func (s *Store) findBy(ctx context.Context, query string, arg any) (*auth.Identity, error) {
	var (
		identity auth.Identity
		role     string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&identity.ID,
		&identity.FullName,
		&identity.Email,
		&identity.Phone,
		&identity.PasswordHash,
		&role,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	identity.Role = auth.Role(role)
	return &identity, nil
}

// UpdateRole mutates the stored role in a single statement, so concurrent
// role reads never observe a partial write.
func (s *Store) UpdateRole(ctx context.Context, id int64, role auth.Role) error {
	res, err := s.db.ExecContext(ctx, `
		update identities
		set role = $2, updated_at = now()
		where id = $1
	`, id, string(role))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// Record appends an audit row. Append-only: rows are never updated or
// deleted.
func (s *Store) Record(ctx context.Context, identityID *int64, action, detail string) error {
	var id sql.NullInt64
	if identityID != nil {
		id = sql.NullInt64{Int64: *identityID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		insert into audit_log (id, identity_id, action, detail)
		values ($1, $2, $3, $4)
	`, ids.New(), id, action, detail)
	return err
}
