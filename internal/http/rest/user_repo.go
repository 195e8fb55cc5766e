package rest

import (
	"context"

	"github.com/ayilmaz/meetspot/internal/db"
	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// UserRepo reads and mutates user rows. The meeting core only reads users;
// mutation comes from the profile, avatar and token endpoints.
type UserRepo struct {
	DB *db.DB
}

const userColumns = `id, name, email, avatar_url, bio, fcm_token, created_at, updated_at`

const defaultAvatarURL = "default-avatar.jpg"

func scanUser(row pgx.Row, user *model.User) error {
	return row.Scan(
		&user.ID, &user.Name, &user.Email, &user.AvatarURL, &user.Bio,
		&user.FCMToken, &user.CreatedAt, &user.UpdatedAt,
	)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	err := scanUser(r.DB.Pool().QueryRow(ctx, `
        SELECT `+userColumns+` FROM users WHERE id = $1
    `, id), &user)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	return user, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := scanUser(r.DB.Pool().QueryRow(ctx, `
        SELECT `+userColumns+` FROM users WHERE email = $1
    `, email), &user)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	return user, err
}

// UpsertByEmail creates the user on first authentication and leaves an
// existing profile untouched apart from filling a missing name or avatar.
func (r *UserRepo) UpsertByEmail(ctx context.Context, email, name, avatarURL string) (model.User, error) {
	if avatarURL == "" {
		avatarURL = defaultAvatarURL
	}

	var user model.User
	err := scanUser(r.DB.Pool().QueryRow(ctx, `
        INSERT INTO users (id, name, email, avatar_url)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (email) DO UPDATE
        SET name = CASE WHEN users.name = '' THEN EXCLUDED.name ELSE users.name END,
            updated_at = NOW()
        RETURNING `+userColumns+`
    `, uuid.New(), name, email, avatarURL), &user)
	return user, err
}

func (r *UserRepo) GetSummary(ctx context.Context, id uuid.UUID) (model.UserSummary, error) {
	var summary model.UserSummary
	err := r.DB.Pool().QueryRow(ctx, `
        SELECT id, name, email, avatar_url, bio FROM users WHERE id = $1
    `, id).Scan(&summary.ID, &summary.Name, &summary.Email, &summary.AvatarURL, &summary.Bio)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.UserSummary{}, model.ErrUserNotFound
	}
	return summary, err
}

// FCMToken returns the user's push token, empty when never registered.
func (r *UserRepo) FCMToken(ctx context.Context, userID uuid.UUID) (string, error) {
	var token *string
	err := r.DB.Pool().QueryRow(ctx, `
        SELECT fcm_token FROM users WHERE id = $1
    `, userID).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", model.ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	if token == nil {
		return "", nil
	}
	return *token, nil
}

func (r *UserRepo) UpdateFCMToken(ctx context.Context, userID uuid.UUID, token string) error {
	_, err := r.DB.Pool().Exec(ctx, `
        UPDATE users SET fcm_token = $2, updated_at = NOW() WHERE id = $1
    `, userID, token)
	return err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, name string, bio *string) (model.User, error) {
	var user model.User
	err := scanUser(r.DB.Pool().QueryRow(ctx, `
        UPDATE users
        SET name = CASE WHEN $2 = '' THEN name ELSE $2 END,
            bio = COALESCE($3, bio),
            updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns+`
    `, userID, name, bio), &user)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	return user, err
}

func (r *UserRepo) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	_, err := r.DB.Pool().Exec(ctx, `
        UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1
    `, userID, avatarURL)
	return err
}
