// File: internal/common/errors.go
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError represents a standard structure for API errors.
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s", e.StatusCode, e.Code, e.Message)
}

func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// WithDetails returns a copy of the error carrying the given details, so the
// package-level sentinel values stay immutable.
func (e *APIError) WithDetails(details interface{}) *APIError {
	clone := *e
	clone.Details = details
	return &clone
}

// Validation errors (400, caller-fixable).
var (
	ErrInvalidInput    = NewAPIError(http.StatusBadRequest, "INVALID_INPUT", "Données d'entrée invalides")
	ErrInvalidDomain   = NewAPIError(http.StatusBadRequest, "INVALID_DOMAIN", "Format de domaine invalide")
	ErrInvalidSiteType = NewAPIError(http.StatusBadRequest, "INVALID_SITE_TYPE", "Type de site non valide")
	ErrSiteNameTooLong = NewAPIError(http.StatusBadRequest, "SITE_NAME_TOO_LONG", "Le nom du site ne doit pas dépasser 15 caractères")
	ErrMissingFields   = NewAPIError(http.StatusBadRequest, "MISSING_FIELDS", "Champs obligatoires manquants")
)

// Conflict and admission errors.
var (
	ErrSiteNameExists      = NewAPIError(http.StatusConflict, "SITE_NAME_EXISTS", "Un site avec ce nom existe déjà")
	ErrDomainAlreadyExists = NewAPIError(http.StatusConflict, "DOMAIN_ALREADY_EXISTS", "Ce domaine est déjà utilisé")
	ErrSiteQuotaExceeded   = NewAPIError(http.StatusForbidden, "SITE_QUOTA_EXCEEDED", "Quota de sites atteint pour ce compte")
)

// Authentication and generic errors.
var (
	ErrUnauthorized   = NewAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "Non autorisé")
	ErrForbidden      = NewAPIError(http.StatusForbidden, "FORBIDDEN", "Accès refusé")
	ErrNotFound       = NewAPIError(http.StatusNotFound, "NOT_FOUND", "Ressource introuvable")
	ErrConflict       = NewAPIError(http.StatusConflict, "CONFLICT", "Conflit avec l'état actuel de la ressource")
	ErrInternalServer = NewAPIError(http.StatusInternalServerError, "SERVER_ERROR", "Erreur serveur interne")
)

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func NewValidationAPIError(details interface{}) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_INPUT",
		Message:    "Données d'entrée invalides",
		Details:    details,
	}
}

// FormatValidationErrors converts validator.ValidationErrors into a map.
func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMap := make(map[string]string)
	for _, e := range errs {
		field := e.Field()
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("The %s field is required.", strings.ToLower(field))
		case "min":
			message = fmt.Sprintf("The %s field must be at least %s characters long.", strings.ToLower(field), e.Param())
		case "max":
			message = fmt.Sprintf("The %s field may not be greater than %s characters.", strings.ToLower(field), e.Param())
		case "oneof":
			message = fmt.Sprintf("The %s field must be one of the following values: %s.", strings.ToLower(field), e.Param())
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag.", field, e.Tag())
		}
		errorMap[field] = message
	}
	return errorMap
}
