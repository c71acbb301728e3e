package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
)

// maxLimit caps every ?limit= query parameter
const maxLimit = 100

// dateQuery reads an optional YYYY-MM-DD query parameter. The zero Date
// means it was absent.
func dateQuery(r *http.Request, name string) (domain.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return domain.Date{}, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, errors.Validation(map[string]string{name: "must be a date in YYYY-MM-DD format"})
	}
	return d, nil
}

// idParam reads a positive integer path parameter
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Validation(map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}
