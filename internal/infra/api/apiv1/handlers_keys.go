package apiv1

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/infra/metrics"

	"github.com/go-chi/chi/v5"
)

type redeemRequest struct {
	Code  string `json:"code" validate:"required,max=64"`
	Email string `json:"email" validate:"required,email"`
}

type redeemResponse struct {
	ProductKind model.ProductKind `json:"product_kind"`
	ProductID   string            `json:"product_id"`
	Activated   bool              `json:"activated"`
}

func (s *Server) redeemKey(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if !s.decode(w, r, &req) {
		metrics.IncRedemption("invalid")
		return
	}

	res, err := s.keys.Redeem(r.Context(), req.Code, req.Email)
	if err != nil {
		metrics.IncRedemption(redemptionOutcome(err))
		s.writeError(w, r, err)
		return
	}
	if res.Activated {
		metrics.IncRedemption("activated")
	} else {
		metrics.IncRedemption("replayed")
	}
	writeJSON(w, http.StatusOK, redeemResponse{
		ProductKind: res.Product.Kind,
		ProductID:   res.Product.ID,
		Activated:   res.Activated,
	})
}

func redemptionOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrKeyDeactivated):
		return "deactivated"
	case errors.Is(err, domain.ErrKeyAlreadyUsed):
		return "already_used"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid"
	default:
		return "error"
	}
}

func (s *Server) checkAccess(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email, courseID := q.Get("email"), q.Get("course_id")
	if err := s.validate.Var(email, "required,email"); err != nil || courseID == "" {
		writeCode(w, http.StatusBadRequest, "invalid_argument")
		return
	}

	ok, err := s.access.CheckAccess(r.Context(), email, courseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has_access": ok})
}

// ===== admin =====

type loginRequest struct {
	Key string `json:"key" validate:"required"`
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	if s.adminKey == "" {
		s.reqLog(r).Error().Msg("Admin API key is not configured")
		metrics.IncAdminLogin("unauthorized")
		writeCode(w, http.StatusForbidden, "forbidden")
		return
	}
	var req loginRequest
	if !s.decode(w, r, &req) {
		metrics.IncAdminLogin("unauthorized")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Key), []byte(s.adminKey)) != 1 {
		metrics.IncAdminLogin("unauthorized")
		writeCode(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	token, err := s.auth.StartAdminSession(w)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.IncAdminLogin("authorized")
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) adminLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

type issueKeysRequest struct {
	ProductKind string  `json:"product_kind" validate:"required,oneof=course addon"`
	ProductID   string  `json:"product_id" validate:"required,max=128"`
	Quantity    *int    `json:"quantity"`
	Notes       *string `json:"notes" validate:"omitempty,max=500"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0"`
}

type keyDTO struct {
	Code          string            `json:"code"`
	ProductKind   model.ProductKind `json:"product_kind"`
	ProductID     string            `json:"product_id"`
	State         model.KeyState    `json:"state"`
	BoundEmail    *string           `json:"bound_email,omitempty"`
	Price         *int64            `json:"price,omitempty"`
	Notes         *string           `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	ActivatedAt   *time.Time        `json:"activated_at,omitempty"`
	DeactivatedAt *time.Time        `json:"deactivated_at,omitempty"`
}

func toKeyDTO(k *model.RegistrationKey) keyDTO {
	return keyDTO{
		Code:          k.Code,
		ProductKind:   k.Product.Kind,
		ProductID:     k.Product.ID,
		State:         k.State,
		BoundEmail:    k.BoundEmail,
		Price:         k.Price,
		Notes:         k.Notes,
		CreatedAt:     k.CreatedAt,
		ActivatedAt:   k.ActivatedAt,
		DeactivatedAt: k.DeactivatedAt,
	}
}

func (s *Server) issueKeys(w http.ResponseWriter, r *http.Request) {
	var req issueKeysRequest
	if !s.decode(w, r, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	product := model.ProductRef{Kind: model.ProductKind(req.ProductKind), ID: req.ProductID}

	keys, err := s.keys.IssueMany(r.Context(), product, quantity, req.Notes, req.Price)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.AddKeysIssued(product.Kind, len(keys))

	out := make([]keyDTO, 0, len(keys))
	for _, k := range keys {
		out = append(out, toKeyDTO(k))
	}
	writeJSON(w, http.StatusCreated, map[string]any{"keys": out})
}

func (s *Server) listKeys(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	var product *model.ProductRef
	if kind, id := q.Get("product_kind"), q.Get("product_id"); kind != "" || id != "" {
		product = &model.ProductRef{Kind: model.ProductKind(kind), ID: id}
	}

	keys, err := s.keys.List(r.Context(), product, offset, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]keyDTO, 0, len(keys))
	for _, k := range keys {
		out = append(out, toKeyDTO(k))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) deactivateKey(w http.ResponseWriter, r *http.Request) {
	if err := s.keys.Deactivate(r.Context(), chi.URLParam(r, "code")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) keyStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.keys.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	byState := map[model.KeyState]int{
		model.KeyStateIssued:      counts[model.KeyStateIssued],
		model.KeyStateActivated:   counts[model.KeyStateActivated],
		model.KeyStateDeactivated: counts[model.KeyStateDeactivated],
	}
	writeJSON(w, http.StatusOK, map[string]any{"by_state": byState})
}
