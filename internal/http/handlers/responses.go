package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/hongminglow/earn-portal/internal/apiclient"
	"github.com/hongminglow/earn-portal/internal/models"
	"github.com/hongminglow/earn-portal/internal/models/dto"
	"github.com/hongminglow/earn-portal/internal/session"
	"github.com/hongminglow/earn-portal/internal/view"
)

// API is the subset of the remote services the pages call.
type API interface {
	Login(ctx context.Context, email, password string) (dto.AuthResponse, error)
	Register(ctx context.Context, email, username, password, referralCode string) (dto.AuthResponse, error)
	ReferralStats(ctx context.Context, userID int64) (models.ReferralStats, error)
	ListWithdrawals(ctx context.Context, userID int64) (dto.WithdrawalListResponse, error)
	CreateWithdrawal(ctx context.Context, userID int64, req dto.CreateWithdrawalRequest) (dto.MutationResponse, error)
	UpdateWithdrawal(ctx context.Context, adminID int64, req dto.UpdateWithdrawalRequest) (dto.MutationResponse, error)
}

// Renderer draws a page.
type Renderer interface {
	Render(w http.ResponseWriter, status int, page string, data any)
}

// pageBase pops the pending notification and attaches the signed-in user, if any.
func pageBase(sessions *session.Manager, w http.ResponseWriter, r *http.Request, title string) view.Base {
	base := view.Base{Title: title}
	if f, ok := sessions.PopFlash(w, r); ok {
		base.Flash = &f
	}
	s, ok := session.FromContext(r.Context())
	if !ok {
		s, ok = sessions.Load(r)
	}
	if ok {
		user := s.User
		base.User = &user
	}
	return base
}

func failure(title, description string) session.Flash {
	return session.Flash{Variant: session.FlashDestructive, Title: title, Description: description}
}

func success(title, description string) session.Flash {
	return session.Flash{Variant: session.FlashSuccess, Title: title, Description: description}
}

// failureStatus is the status of a page re-rendered after err.
func failureStatus(err error) int {
	if errors.Is(err, apiclient.ErrTransport) {
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
