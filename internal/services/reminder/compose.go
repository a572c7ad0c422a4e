package reminder

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/magabrotheeeer/subtrack/internal/lib/billing"
	"github.com/magabrotheeeer/subtrack/internal/models"
)

const htmlTemplate = `<!DOCTYPE html>
<html>
  <body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #f4f4f5; background-color: #0a0a0f; padding: 20px;">
    <div style="max-width: 600px; margin: 0 auto; background: #13131a; border-radius: 12px; padding: 30px;">
      <h1>Subscription Renewal Reminder</h1>
      <p>Hi{{if .Name}} {{.Name}}{{end}},</p>
      <p>You have <strong>{{.Count}}</strong> {{plural .Count "subscription"}} renewing in the next 7 days:</p>
      <div style="background: #1a1a24; border-radius: 8px; padding: 20px;">
        {{- range .Items}}
        <div style="padding: 10px 0; border-bottom: 1px solid #27272a;">
          <strong>{{.Name}}</strong> - {{.Price}} <span style="color: #f59e0b;">({{.DaysUntil}} {{plural .DaysUntil "day"}})</span>
        </div>
        {{- end}}
      </div>
      <p style="font-size: 24px; font-weight: bold;">Monthly Total: {{.MonthlyTotal}}</p>
      {{- if .DashboardURL}}
      <p>Manage your subscriptions at <a href="{{.DashboardURL}}" style="color: #6366f1;">SubTrack Dashboard</a></p>
      {{- end}}
    </div>
  </body>
</html>
`

var funcs = template.FuncMap{
	"plural": plural,
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Composer собирает напоминание и письмо для одного пользователя.
type Composer struct {
	summaryCurrency string
	dashboardURL    string
	html            *template.Template
}

// NewComposer создаёт Composer. Итог за месяц форматируется в валюте summaryCurrency.
func NewComposer(summaryCurrency, dashboardURL string) *Composer {
	if summaryCurrency == "" {
		summaryCurrency = billing.DefaultCurrency
	}
	return &Composer{
		summaryCurrency: summaryCurrency,
		dashboardURL:    dashboardURL,
		html:            template.Must(template.New("reminder").Funcs(funcs).Parse(htmlTemplate)),
	}
}

// Compose строит напоминание по подпискам из окна due.
// Итог за месяц считается по всем подпискам пользователя, а не только по due.
func (c *Composer) Compose(user models.User, due []Due) (models.Reminder, error) {
	const op = "reminder.Compose"
	items := make([]models.ReminderItem, 0, len(due))
	for _, d := range due {
		price, err := billing.FormatPrice(d.Subscription.Price, d.Subscription.Currency)
		if err != nil {
			return models.Reminder{}, fmt.Errorf("%s: subscription %s: %w", op, d.Subscription.ID, err)
		}
		items = append(items, models.ReminderItem{
			Name:      d.Subscription.Name,
			Price:     price,
			DaysUntil: d.DaysUntil,
		})
	}

	var monthly float64
	for _, sub := range user.Subscriptions {
		monthly += sub.MonthlyAmount()
	}
	total, err := billing.FormatCurrency(monthly, c.summaryCurrency)
	if err != nil {
		return models.Reminder{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Reminder{
		Email:        user.Email,
		Name:         user.Name,
		Items:        items,
		MonthlyTotal: total,
	}, nil
}

// Render превращает напоминание в письмо с темой, HTML и текстовой версией.
func (c *Composer) Render(r models.Reminder) (models.Email, error) {
	const op = "reminder.Render"
	var html bytes.Buffer
	err := c.html.Execute(&html, struct {
		models.Reminder
		Count        int
		DashboardURL string
	}{Reminder: r, Count: r.Count(), DashboardURL: c.dashboardURL})
	if err != nil {
		return models.Email{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Email{
		To:      r.Email,
		Subject: Subject(r.Count()),
		HTML:    html.String(),
		Text:    c.text(r),
	}, nil
}

// Subject возвращает тему письма для count подписок.
func Subject(count int) string {
	return fmt.Sprintf("Subscription Renewal Reminder - %d %s renewing soon", count, plural(count, "subscription"))
}

// Line возвращает строку списка для одной подписки.
func Line(item models.ReminderItem) string {
	return fmt.Sprintf("• %s - %s (%d %s)", item.Name, item.Price, item.DaysUntil, plural(item.DaysUntil, "day"))
}

func (c *Composer) text(r models.Reminder) string {
	var b strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&b, "Hi %s,\n\n", r.Name)
	} else {
		b.WriteString("Hi,\n\n")
	}
	fmt.Fprintf(&b, "You have %d %s renewing in the next 7 days:\n\n", r.Count(), plural(r.Count(), "subscription"))
	for _, item := range r.Items {
		b.WriteString(Line(item))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nMonthly Total: %s\n", r.MonthlyTotal)
	if c.dashboardURL != "" {
		fmt.Fprintf(&b, "\nManage your subscriptions at %s\n", c.dashboardURL)
	}
	return b.String()
}
