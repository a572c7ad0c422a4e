package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subtrack/internal/models"
)

// UpsertUser создаёт пользователя по идентификатору провайдера или обновляет его email и имя.
func (s *Storage) UpsertUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (id, external_id, email, name)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (external_id) DO UPDATE
			  SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = NOW()
			  RETURNING id, external_id, email, name, created_at`
	row := s.DB.QueryRowContext(ctx, query,
		uuid.NewString(), identity.ExternalID, identity.Email, nullString(identity.Name))

	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByExternalID возвращает пользователя по идентификатору провайдера.
func (s *Storage) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	const op = "storage.GetUserByExternalID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, external_id, email, name, created_at
			  FROM users
			  WHERE external_id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// DeleteUserByExternalID удаляет пользователя вместе с его подписками.
func (s *Storage) DeleteUserByExternalID(ctx context.Context, externalID string) error {
	const op = "storage.DeleteUserByExternalID"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE external_id = $1`, externalID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u    models.User
		name sql.NullString
	)
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &name, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Name = name.String
	return &u, nil
}
