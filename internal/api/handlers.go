package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/clinicware/clinic-appointment-service/internal/auth"
	"github.com/clinicware/clinic-appointment-service/internal/clinic"
	"github.com/clinicware/clinic-appointment-service/internal/notify"
)

type Handlers struct {
	svc       *clinic.Service
	publisher notify.Publisher
	validate  *validator.Validate
}

func NewHandlers(svc *clinic.Service, publisher notify.Publisher) *Handlers {
	return &Handlers{
		svc:       svc,
		publisher: publisher,
		validate:  validator.New(),
	}
}

func (h *Handlers) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: could not parse request body", clinic.ErrValidation)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", clinic.ErrValidation, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "gt", "gte":
		return fmt.Sprintf("%s must be at least %s", strings.ToLower(fe.Field()), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", strings.ToLower(fe.Field()), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
}

func identity(r *http.Request) auth.Identity {
	ident, _ := auth.IdentityFromContext(r.Context())
	return ident
}

func appointmentID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id must be a valid UUID", clinic.ErrValidation)
	}
	return id, nil
}

// statusFilter parses an optional comma-separated ?status= query param.
func statusFilter(r *http.Request) ([]clinic.Status, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, nil
	}

	var out []clinic.Status
	for _, part := range strings.Split(raw, ",") {
		status, ok := clinic.ParseStatus(strings.TrimSpace(part))
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", clinic.ErrValidation, part)
		}
		out = append(out, status)
	}
	return out, nil
}
