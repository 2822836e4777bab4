package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Tyrowin/chatrelay/internal/store"
)

// Kind classifies operation failures. Every kind is reported to the
// originating session only.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindStore          Kind = "store"
)

// Failure is an operation error carrying the reason shown to the client.
type Failure struct {
	Kind   Kind
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Reason, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(kind Kind, reason string, err error) *Failure {
	return &Failure{Kind: kind, Reason: reason, Err: err}
}

// classify turns any error into a Failure. Store sentinels keep their
// meaning; anything else is a store failure reported with fallback.
func classify(err error, fallback string) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(KindNotFound, fallback, err)
	case errors.Is(err, store.ErrNotOwner):
		return fail(KindAuthorization, fallback, err)
	default:
		return fail(KindStore, fallback, err)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var fieldLabels = map[string]string{
	"ConversationID": "Conversation ID",
	"MessageID":      "Message ID",
	"Emoji":          "Emoji",
	"Content":        "Content",
	"AttachmentRef":  "Attachment reference",
	"UserIDs":        "User IDs",
}

// decodePayload unmarshals and validates an inbound payload.
func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fail(KindValidation, "Malformed payload", err)
	}
	return validatePayload(v)
}

func validatePayload(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fail(KindValidation, "Invalid payload", err)
	}

	fe := fieldErrs[0]
	label, ok := fieldLabels[fe.StructField()]
	if !ok {
		label = fe.StructField()
	}
	switch fe.Tag() {
	case "required":
		return fail(KindValidation, label+" is required", err)
	case "max":
		return fail(KindValidation, label+" is too long", err)
	default:
		return fail(KindValidation, label+" is invalid", err)
	}
}

// lookupFailure reports a missing record as not found and anything else
// as a store failure.
func lookupFailure(err error, missing, failed string) *Failure {
	if errors.Is(err, store.ErrNotFound) {
		return fail(KindNotFound, missing, err)
	}
	return fail(KindStore, failed, err)
}
