// file: internal/repositories/user_repository.go
package repositories

import (
	"context"
	"fmt"

	"skillforge/internal/database"
	"skillforge/internal/models"

	"go.uber.org/zap"
)

// userRepository implements UserRepository over the mirrored users table.
type userRepository struct {
	*BaseRepository
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *database.Manager, logger *zap.Logger) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// GetByID returns the user's display fields, or nil when no such user exists.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, display_name, avatar_url, is_active, created_at, updated_at
		FROM users
		WHERE id = $1`

	var user models.User
	err := r.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.DisplayName, &user.AvatarURL,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Exists reports whether an active user with the given id exists.
func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND is_active = true)`

	var exists bool
	if err := r.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
