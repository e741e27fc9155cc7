package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/earn-portal/internal/http/respond"
	"github.com/hongminglow/earn-portal/internal/promo"
	"github.com/hongminglow/earn-portal/internal/session"
	"github.com/hongminglow/earn-portal/internal/view"
)

// PromoObserver counts promo code submissions.
type PromoObserver interface {
	ObservePromo(applied bool)
}

// Links are the external purchase URLs on the landing page.
type Links struct {
	Buy      string
	PromoBuy string
}

// LandingHandler serves the marketing page and its small JSON API.
type LandingHandler struct {
	counters *promo.Simulator
	observer PromoObserver
	sessions *session.Manager
	views    Renderer
	out      *respond.Writer
	links    Links
}

// NewLandingHandler constructs the handler.
func NewLandingHandler(counters *promo.Simulator, observer PromoObserver, sessions *session.Manager, views Renderer, out *respond.Writer, links Links) *LandingHandler {
	return &LandingHandler{counters: counters, observer: observer, sessions: sessions, views: views, out: out, links: links}
}

// Register attaches the page routes.
func (h *LandingHandler) Register(r chi.Router) {
	r.Get("/", h.showIndex)
	r.Post("/promo", h.handlePromoForm)
}

// RegisterAPI attaches the JSON routes used by the page script.
func (h *LandingHandler) RegisterAPI(r chi.Router) {
	r.Get("/social-proof", h.handleSocialProof)
	r.Post("/promo", h.handlePromoAPI)
}

func (h *LandingHandler) showIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, promo.NoDiscount(), "", false)
}

func (h *LandingHandler) handlePromoForm(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	code := r.PostFormValue("code")
	quote := promo.Apply(code)
	h.observer.ObservePromo(quote.Applied)
	h.render(w, r, quote, code, true)
}

func (h *LandingHandler) render(w http.ResponseWriter, r *http.Request, quote promo.Quote, code string, tried bool) {
	h.views.Render(w, http.StatusOK, view.PageIndex, view.IndexPage{
		Base:        pageBase(h.sessions, w, r, ""),
		Quote:       quote,
		PromoCode:   code,
		PromoTried:  tried,
		Counters:    h.counters.Snapshot(),
		BuyURL:      h.links.Buy,
		PromoBuyURL: h.links.PromoBuy,
		PromoLabel:  promo.Code,
		FullPrice:   promo.BasePrice,
		PromoPrice:  promo.DiscountedPrice,
	})
}

type promoRequest struct {
	Code string `json:"code"`
}

func (h *LandingHandler) handlePromoAPI(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if !h.out.Decode(w, r, &req) {
		return
	}
	quote := promo.Apply(req.Code)
	h.observer.ObservePromo(quote.Applied)
	if quote.Applied {
		h.out.JSON(w, r, http.StatusOK, "50% discount activated", quote)
		return
	}
	h.out.JSON(w, r, http.StatusOK, "unknown promo code", quote)
}

func (h *LandingHandler) handleSocialProof(w http.ResponseWriter, r *http.Request) {
	h.out.JSON(w, r, http.StatusOK, "ok", h.counters.Snapshot())
}
