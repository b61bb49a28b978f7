package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"maswada-backend/interfaces/http/validation"
	"maswada-backend/pkg/auth"
	appErrors "maswada-backend/pkg/errors"
)

// Nullable distinguishes an absent JSON field from an explicit null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON is only called when the field is present.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// base carries what every handler needs.
type base struct {
	errs      *appErrors.ErrorHandler
	validator *validation.Validator
}

func (b base) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil || user.UserID == "" {
		b.errs.Handle(w, r, appErrors.NewUnauthorizedError(""))
		return "", false
	}
	return user.UserID, true
}

func (b base) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := b.validator.Decode(r, dst); err != nil {
		b.errs.Handle(w, r, err)
		return false
	}
	return true
}
