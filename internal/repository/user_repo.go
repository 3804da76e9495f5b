package repository

import (
	"context"

	"github.com/senyabanana/funding-service/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const selectUser = `SELECT id, username, role, created_at FROM app_user`

// PostgresUserRepository - реализация UserRepository для базы данных.
type PostgresUserRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresUserRepository создает новый экземпляр PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser сохраняет нового пользователя.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	insertQuery := `INSERT INTO app_user (id, username, role, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.DB.Exec(ctx, insertQuery, user.ID, user.Username, user.Role, user.CreatedAt)
	if err != nil {
		return pgError("create user", err)
	}
	return nil
}

// GetUserByID возвращает пользователя по ID.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, userId string) (*models.User, error) {
	user, err := scanUser(r.DB.QueryRow(ctx, selectUser+` WHERE id = $1`, userId))
	if err != nil {
		return nil, pgError("get user", err)
	}
	return user, nil
}

// GetUserByUsername возвращает пользователя по username.
func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(r.DB.QueryRow(ctx, selectUser+` WHERE username = $1`, username))
	if err != nil {
		return nil, pgError("get user by username", err)
	}
	return user, nil
}

// DeleteUser удаляет пользователя.
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, userId string) (bool, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM app_user WHERE id = $1`, userId)
	if err != nil {
		return false, pgError("delete user", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
