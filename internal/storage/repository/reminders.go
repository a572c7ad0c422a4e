package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/subtrack/internal/lib/billing"
	"github.com/magabrotheeeer/subtrack/internal/models"
)

// FindAllUsersWithSubscriptions возвращает всех пользователей вместе с их подписками.
// Выборка делается одним запросом, поэтому рассылка работает с согласованным снимком данных.
// Пользователи без подписок тоже попадают в результат.
func (s *Storage) FindAllUsersWithSubscriptions(ctx context.Context) ([]models.User, error) {
	const op = "storage.FindAllUsersWithSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.id, u.external_id, u.email, u.name, u.created_at,
			      s.id, s.name, s.price, s.currency, s.billing_cycle, s.category,
			      s.next_billing_date, s.notes, s.color, s.created_at, s.updated_at
			  FROM users u
			  LEFT JOIN subscriptions s ON s.user_id = u.id
			  ORDER BY u.created_at, u.id, s.next_billing_date, s.created_at`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	users := make([]models.User, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			u                         models.User
			userName                  sql.NullString
			subID, subName, currency  sql.NullString
			cycle, category           sql.NullString
			notes, color              sql.NullString
			price                     sql.NullFloat64
			nextBilling, created, upd sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.ExternalID, &u.Email, &userName, &u.CreatedAt,
			&subID, &subName, &price, &currency, &cycle, &category,
			&nextBilling, &notes, &color, &created, &upd); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		i, ok := index[u.ID]
		if !ok {
			u.Name = userName.String
			users = append(users, u)
			i = len(users) - 1
			index[u.ID] = i
		}
		if !subID.Valid {
			continue
		}
		users[i].Subscriptions = append(users[i].Subscriptions, models.Subscription{
			ID:              subID.String,
			UserID:          u.ID,
			Name:            subName.String,
			Price:           price.Float64,
			Currency:        currency.String,
			BillingCycle:    billing.Cycle(cycle.String),
			Category:        category.String,
			NextBillingDate: calendarDate(nextBilling.Time),
			Notes:           notes.String,
			Color:           color.String,
			CreatedAt:       created.Time,
			UpdatedAt:       upd.Time,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}
