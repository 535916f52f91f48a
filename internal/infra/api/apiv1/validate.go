package apiv1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty body")

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. It writes the 400
// response itself and reports whether the handler may continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptyBody
		}
		s.reqLog(r).Debug().Err(err).Msg("bad request body")
		writeCode(w, http.StatusBadRequest, "invalid_argument")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeValidation(w, err)
		return false
	}
	return true
}
