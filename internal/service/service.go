// Package service implements the posting domain on top of the repositories.
package service

import (
	"errors"

	"postboard/internal/models"
	"postboard/internal/observability"
)

// Messages returned to callers. They double as the user-facing text.
const (
	msgPostEmpty          = "Post cannot be empty."
	msgPostMissing        = "Post does not exist."
	msgPostForbidden      = "You do not have permission to delete this post."
	msgCommentEmpty       = "Comment cannot be empty."
	msgCommentMissing     = "Comment does not exist."
	msgCommentForbidden   = "You do not have permission to delete this comment."
	msgUsernameMissing    = "No user with that username exists."
	msgEmailTaken         = "Email is already in use."
	msgUsernameTaken      = "Username is already in use."
	msgFirstNameRequired  = "First Name is Required."
	msgLastNameRequired   = "Last Name is Required."
	msgUsernameRequired   = "Username is Required."
	msgUsernameReserved   = "Username is reserved."
	msgPasswordShort      = "Password is too short."
	msgPasswordLong       = "Password is too long."
	msgEmailInvalid       = "Email is invalid."
	msgRoleInvalid        = "User type must be user or admin."
	msgInvalidCredentials = "Invalid email or password."
)

// recordFailure counts a failed operation by its error code. Deferred with
// a pointer to the caller's named error result.
func recordFailure(operation string, err *error) {
	if err == nil || *err == nil {
		return
	}
	code := models.CodeInternal
	var appErr *models.AppError
	if errors.As(*err, &appErr) {
		code = appErr.Code
	}
	observability.DomainErrors.WithLabelValues(operation, code).Inc()
}
