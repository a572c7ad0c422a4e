package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subtrack/internal/lib/billing"
	"github.com/magabrotheeeer/subtrack/internal/models"
)

const subscriptionColumns = `id, user_id, name, price, currency, billing_cycle, category,
	next_billing_date, notes, color, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateSubscription сохраняет новую подписку и возвращает её с присвоенным ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (id, user_id, name, price, currency, billing_cycle,
			      category, next_billing_date, notes, color)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + subscriptionColumns
	row := s.DB.QueryRowContext(ctx, query,
		uuid.NewString(), sub.UserID, sub.Name, sub.Price, sub.Currency, string(sub.BillingCycle),
		sub.Category, sub.NextBillingDate, nullString(sub.Notes), nullString(sub.Color))

	created, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetSubscription возвращает подписку пользователя userID по её ID.
func (s *Storage) GetSubscription(ctx context.Context, userID, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE id = $1 AND user_id = $2`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// UpdateSubscription перезаписывает поля подписки, принадлежащей sub.UserID.
func (s *Storage) UpdateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET name = $1, price = $2, currency = $3, billing_cycle = $4, category = $5,
			      next_billing_date = $6, notes = $7, color = $8, updated_at = NOW()
			  WHERE id = $9 AND user_id = $10
			  RETURNING ` + subscriptionColumns
	row := s.DB.QueryRowContext(ctx, query,
		sub.Name, sub.Price, sub.Currency, string(sub.BillingCycle), sub.Category,
		sub.NextBillingDate, nullString(sub.Notes), nullString(sub.Color), sub.ID, sub.UserID)

	updated, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteSubscription удаляет подписку пользователя userID.
func (s *Storage) DeleteSubscription(ctx context.Context, userID, id string) error {
	const op = "storage.DeleteSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1 AND user_id = $2`, id, userID)
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

// ListSubscriptions возвращает подписки пользователя в порядке ближайшего списания.
func (s *Storage) ListSubscriptions(ctx context.Context, userID string) ([]models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY next_billing_date, created_at`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub          models.Subscription
		billingCycle string
		notes, color sql.NullString
	)
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.Price, &sub.Currency, &billingCycle,
		&sub.Category, &sub.NextBillingDate, &notes, &color, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	sub.BillingCycle = billing.Cycle(billingCycle)
	sub.NextBillingDate = calendarDate(sub.NextBillingDate)
	sub.Notes = notes.String
	sub.Color = color.String
	return &sub, nil
}
