// Package meta отдаёт справочники для форм клиента: категории, периоды списания и валюты.
package meta

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subtrack/internal/http/response"
	"github.com/magabrotheeeer/subtrack/internal/lib/billing"
	"github.com/magabrotheeeer/subtrack/internal/models"
)

// Cycle описывает период списания для отображения.
type Cycle struct {
	Value billing.Cycle `json:"value"`
	Label string        `json:"label"`
}

// Meta содержит справочники для клиента.
type Meta struct {
	Categories    []models.Category `json:"categories"`
	BillingCycles []Cycle           `json:"billing_cycles"`
	Currencies    []string          `json:"currencies"`
}

// Handler отдаёт справочники.
type Handler struct {
	meta Meta
}

// New создает новый Handler.
func New() *Handler {
	cycles := make([]Cycle, 0, len(billing.Cycles()))
	for _, c := range billing.Cycles() {
		cycles = append(cycles, Cycle{Value: c, Label: c.Label()})
	}
	return &Handler{meta: Meta{
		Categories:    models.Categories(),
		BillingCycles: cycles,
		Currencies:    billing.Currencies(),
	}}
}

// ServeHTTP godoc
// @Summary Справочники
// @Tags Meta
// @Produce  json
// @Success 200 {object} response.Response "Категории, периоды списания и валюты"
// @Router /meta [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(h.meta))
}
