package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/earn-portal/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Render.
const (
	PageIndex     = "index"
	PageLogin     = "login"
	PageRegister  = "register"
	PageDashboard = "dashboard"
	PageWithdraw  = "withdraw"
	PageAdmin     = "admin"
)

var pageNames = []string{PageIndex, PageLogin, PageRegister, PageDashboard, PageWithdraw, PageAdmin}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

// New parses every page once at startup.
func New(logger *zap.Logger) (*Renderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = clone
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes page with status. Output is buffered so a template error never yields a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown page", zap.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("render page", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Debug("write page", zap.String("page", page), zap.Error(err))
	}
}

// Templates exposes the raw template files, mostly for tests.
func Templates() fs.FS {
	return templateFS
}

var funcs = template.FuncMap{
	"money":       Money,
	"date":        Date,
	"percent":     Percent,
	"statusClass": StatusClass,
}

// Money formats a rouble amount with two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2) + " ₽"
}

// Date formats a service timestamp for tables.
func Date(t models.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006 15:04")
}

// Percent renders a commission rate without trailing zeros.
func Percent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

// StatusClass maps a withdrawal status onto a badge style.
func StatusClass(s models.WithdrawalStatus) string {
	switch s {
	case models.WithdrawalPending:
		return "badge-pending"
	case models.WithdrawalApproved:
		return "badge-approved"
	case models.WithdrawalRejected:
		return "badge-rejected"
	case models.WithdrawalCompleted:
		return "badge-completed"
	default:
		return "badge"
	}
}
