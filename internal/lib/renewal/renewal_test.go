package renewal

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysUntilRenewal(t *testing.T) {
	today := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		next time.Time
		want int
	}{
		{name: "same instant", next: today, want: 0},
		{name: "later the same day", next: today.Add(5 * time.Hour), want: 0},
		{name: "earlier the same day", next: time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC), want: 0},
		{name: "tomorrow", next: today.AddDate(0, 0, 1), want: 1},
		{name: "yesterday is overdue", next: today.AddDate(0, 0, -1), want: -1},
		{name: "one week", next: today.AddDate(0, 0, 7), want: 7},
		{name: "across month end", next: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), want: 23},
		{name: "across leap day", next: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), want: -9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilRenewal(tt.next, today))
		})
	}
}

func TestDaysUntilRenewal_UsesTodayLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	today := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)     // 10 марта 02:00 UTC
	next := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC) // 11 марта 06:00 по UTC+10

	assert.Equal(t, 1, DaysUntilRenewal(next, today))
	assert.Equal(t, 0, DaysUntilRenewal(next, today.In(time.UTC)))
}

// Полночи в зоне с переходом на летнее время могут отстоять на 23 или 25 часов.
// Разница округляется вверх, поэтому 25-часовые сутки считаются за два дня.
func TestDaysUntilRenewal_DaylightSaving(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	at := func(month time.Month, day, hour int) time.Time {
		return time.Date(2024, month, day, hour, 0, 0, 0, ny)
	}

	tests := []struct {
		name  string
		today time.Time
		next  time.Time
		want  int
	}{
		{name: "day before fall back", today: at(time.November, 2, 10), next: at(time.November, 3, 0), want: 1},
		{name: "fall back day lasts 25 hours", today: at(time.November, 3, 10), next: at(time.November, 4, 0), want: 2},
		{name: "week across fall back", today: at(time.November, 1, 10), next: at(time.November, 8, 0), want: 8},
		{name: "spring forward day lasts 23 hours", today: at(time.March, 10, 10), next: at(time.March, 11, 0), want: 1},
		{name: "two days across spring forward", today: at(time.March, 9, 10), next: at(time.March, 11, 0), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilRenewal(tt.next, tt.today))
		})
	}
}

func TestWindow_Contains(t *testing.T) {
	assert.True(t, DashboardWindow.Contains(0))
	assert.True(t, DashboardWindow.Contains(7))
	assert.False(t, DashboardWindow.Contains(8))
	assert.False(t, DashboardWindow.Contains(-1))

	assert.False(t, ReminderWindow.Contains(0))
	assert.True(t, ReminderWindow.Contains(1))
	assert.True(t, ReminderWindow.Contains(7))
	assert.False(t, ReminderWindow.Contains(8))
}
