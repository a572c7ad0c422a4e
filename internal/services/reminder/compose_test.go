package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subtrack/internal/lib/billing"
	"github.com/magabrotheeeer/subtrack/internal/models"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "Subscription Renewal Reminder - 1 subscription renewing soon", Subject(1))
	assert.Equal(t, "Subscription Renewal Reminder - 3 subscriptions renewing soon", Subject(3))
}

func TestLine(t *testing.T) {
	assert.Equal(t, "• Netflix - $15.49 (1 day)", Line(models.ReminderItem{Name: "Netflix", Price: "$15.49", DaysUntil: 1}))
	assert.Equal(t, "• Gym - €20.00 (5 days)", Line(models.ReminderItem{Name: "Gym", Price: "€20.00", DaysUntil: 5}))
}

func TestComposer_Compose(t *testing.T) {
	c := NewComposer("", "")
	netflix := subscription("Netflix", 15.49, billing.Monthly, 2)
	spotify := subscription("Spotify", 9.99, billing.Monthly, 5)
	spotify.Currency = "EUR"
	notion := subscription("Notion", 120, billing.Yearly, 30)
	user := models.User{
		ID:            "u-1",
		Email:         "ann@example.com",
		Subscriptions: []models.Subscription{netflix, spotify, notion},
	}

	r, err := c.Compose(user, []Due{
		{Subscription: netflix, DaysUntil: 2},
		{Subscription: spotify, DaysUntil: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", r.Email)
	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []models.ReminderItem{
		{Name: "Netflix", Price: "$15.49", DaysUntil: 2},
		{Name: "Spotify", Price: "€9.99", DaysUntil: 5},
	}, r.Items)
	// 15.49 + 9.99 + 120/12, все суммы в валюте сводки
	assert.Equal(t, "$35.48", r.MonthlyTotal)
}

func TestComposer_SummaryCurrency(t *testing.T) {
	c := NewComposer("GBP", "")
	sub := subscription("Netflix", 10, billing.Monthly, 2)

	r, err := c.Compose(models.User{Email: "a@example.com", Subscriptions: []models.Subscription{sub}},
		[]Due{{Subscription: sub, DaysUntil: 2}})
	require.NoError(t, err)
	assert.Equal(t, "£10.00", r.MonthlyTotal)
}

func TestComposer_ComposeUnregisteredCurrency(t *testing.T) {
	c := NewComposer("", "")
	sub := subscription("Odd", 10, billing.Monthly, 2)
	sub.Currency = "ZZZ"

	r, err := c.Compose(models.User{Subscriptions: []models.Subscription{sub}}, []Due{{Subscription: sub, DaysUntil: 2}})
	require.NoError(t, err)
	require.Len(t, r.Items, 1)
	assert.Equal(t, "ZZZ 10.00", r.Items[0].Price)
	assert.Equal(t, "$10.00", r.MonthlyTotal)
}

func TestComposer_ComposeMalformedCurrency(t *testing.T) {
	c := NewComposer("", "")
	sub := subscription("Odd", 10, billing.Monthly, 2)
	sub.Currency = "US"

	_, err := c.Compose(models.User{Subscriptions: []models.Subscription{sub}}, []Due{{Subscription: sub, DaysUntil: 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reminder.Compose")
}

func TestComposer_ComposeUnknownSummaryCurrency(t *testing.T) {
	c := NewComposer("ZZZ", "")
	sub := subscription("Netflix", 10, billing.Monthly, 2)

	_, err := c.Compose(models.User{Subscriptions: []models.Subscription{sub}}, []Due{{Subscription: sub, DaysUntil: 2}})
	require.Error(t, err)
}

func TestComposer_Render(t *testing.T) {
	c := NewComposer("USD", "https://subtrack.example.com/subscriptions")
	r := models.Reminder{
		Email:        "ann@example.com",
		Name:         "Ann <Lee>",
		Items:        []models.ReminderItem{{Name: "Netflix & Chill", Price: "$15.49", DaysUntil: 1}},
		MonthlyTotal: "$15.49",
	}

	email, err := c.Render(r)
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", email.To)
	assert.Equal(t, Subject(1), email.Subject)

	assert.Contains(t, email.HTML, "Hi Ann &lt;Lee&gt;,")
	assert.Contains(t, email.HTML, "<strong>Netflix &amp; Chill</strong> - $15.49")
	assert.Contains(t, email.HTML, "(1 day)")
	assert.Contains(t, email.HTML, "<strong>1</strong> subscription renewing")
	assert.Contains(t, email.HTML, `href="https://subtrack.example.com/subscriptions"`)
	assert.Contains(t, email.HTML, "Monthly Total: $15.49")

	assert.Contains(t, email.Text, "Hi Ann <Lee>,")
	assert.Contains(t, email.Text, "• Netflix & Chill - $15.49 (1 day)")
	assert.Contains(t, email.Text, "Manage your subscriptions at https://subtrack.example.com/subscriptions")
}

func TestComposer_RenderWithoutName(t *testing.T) {
	email, err := NewComposer("", "").Render(models.Reminder{
		Email:        "a@example.com",
		Items:        []models.ReminderItem{{Name: "A", Price: "$1.00", DaysUntil: 3}, {Name: "B", Price: "$2.00", DaysUntil: 4}},
		MonthlyTotal: "$3.00",
	})
	require.NoError(t, err)

	assert.Contains(t, email.HTML, "Hi,")
	assert.Contains(t, email.HTML, "<strong>2</strong> subscriptions renewing")
	assert.NotContains(t, email.HTML, "Manage your subscriptions")
	assert.Contains(t, email.Text, "Hi,\n")
	assert.Equal(t, Subject(2), email.Subject)
}
