// Package repository holds the postgres persistence for every aggregate.
// Queries are hand-written; not-found rows map to the package sentinels.
package repository

import (
	"lagimmo/api/internal/apperr"
)

var (
	ErrUserNotFound          = apperr.NotFound("user not found")
	ErrCredentialNotFound    = apperr.NotFound("credential not found")
	ErrSessionNotFound       = apperr.NotFound("session not found")
	ErrMediaNotFound         = apperr.NotFound("image not found")
	ErrPropertyNotFound      = apperr.NotFound("property not found")
	ErrAccompanimentNotFound = apperr.NotFound("accompaniment not found")
	ErrProductNotFound       = apperr.NotFound("product not found")
	ErrCategoryNotFound      = apperr.NotFound("category not found")
	ErrOrderNotFound         = apperr.NotFound("order not found")
	ErrRequestNotFound       = apperr.NotFound("request not found")
	ErrTicketNotFound        = apperr.NotFound("support ticket not found")
	ErrFAQNotFound           = apperr.NotFound("faq not found")
	ErrContactNotFound       = apperr.NotFound("contact not found")

	ErrEmailTaken       = apperr.Conflict("email already in use")
	ErrUserNameTaken    = apperr.Conflict("user name already in use")
	ErrCategoryExists   = apperr.Conflict("category already exists")
	ErrDuplicateRequest = apperr.Conflict("a pending request already exists for this contact")
)

var (
	ErrPositionsMismatch = apperr.Validation("image ids must match the current image set")
	ErrAlreadyAnswered   = apperr.Conflict("support ticket already answered")
)
