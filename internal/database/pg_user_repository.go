package database

import (
	"context"
	"errors"
	"time"

	"storyrunner/internal/interfaces"
	"storyrunner/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var _ interfaces.UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	logger *zap.Logger
}

// NewPgUserRepository creates a new user repository. Queriers are passed per
// call so the same instance works against the pool or an open transaction.
func NewPgUserRepository(logger *zap.Logger) interfaces.UserRepository {
	return &pgUserRepository{logger: logger.Named("PgUserRepo")}
}

const createUserQuery = `
INSERT INTO users (id, username, email, password_hash, role, balance, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const getUserByIDQuery = `
SELECT id, username, email, password_hash, role, balance, created_at
FROM users
WHERE id = $1`

const getUserByUsernameQuery = `
SELECT id, username, email, password_hash, role, balance, created_at
FROM users
WHERE username = $1`

const listUsersQuery = `
SELECT id, username, email, password_hash, role, balance, created_at
FROM users
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

func (r *pgUserRepository) Create(ctx context.Context, querier interfaces.DBTX, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := querier.Exec(ctx, createUserQuery,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.Balance, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return models.ErrEmailAlreadyExists
			default:
				return models.ErrUserAlreadyExists
			}
		}
		r.logger.Error("Failed to create user", zap.Error(err), zap.String("username", user.Username))
		return err
	}
	return nil
}

func (r *pgUserRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.User, error) {
	return r.scanUser(querier.QueryRow(ctx, getUserByIDQuery, id))
}

func (r *pgUserRepository) GetByUsername(ctx context.Context, querier interfaces.DBTX, username string) (*models.User, error) {
	return r.scanUser(querier.QueryRow(ctx, getUserByUsernameQuery, username))
}

func (r *pgUserRepository) List(ctx context.Context, querier interfaces.DBTX, limit, offset int) ([]*models.User, error) {
	rows, err := querier.Query(ctx, listUsersQuery, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.Role, &user.Balance, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *pgUserRepository) scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.Balance, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to scan user", zap.Error(err))
		return nil, err
	}
	return user, nil
}
