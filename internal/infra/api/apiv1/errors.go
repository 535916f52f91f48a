package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"

	"course-progression/internal/domain"

	"github.com/go-playground/validator/v10"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// errorCode maps domain errors to a status and a stable machine-readable code.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrKeyDeactivated):
		return http.StatusConflict, "key_deactivated"
	case errors.Is(err, domain.ErrKeyAlreadyUsed):
		return http.StatusConflict, "key_already_used"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, domain.ErrCompletionNotEligible):
		return http.StatusUnprocessableEntity, "completion_not_eligible"
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden, "access_denied"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeCode(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

// writeError never exposes err itself; unexpected errors are logged by the
// caller's request logger.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorCode(err)
	if status == http.StatusInternalServerError {
		s.reqLog(r).Error().Err(err).Msg("request failed")
	}
	writeCode(w, status, code)
}

func writeValidation(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: "invalid_argument"}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			resp.Fields[fe.Field()] = fe.Tag()
		}
	}
	writeJSON(w, http.StatusBadRequest, resp)
}
