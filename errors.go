package inventory

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeTooManyAttempts    = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeNotApproved        = "ACCOUNT_NOT_APPROVED"
	TextCodeWarehouseForbidden = "WAREHOUSE_FORBIDDEN"
	TextCodeInsufficientRole   = "INSUFFICIENT_ROLE"
	TextCodeSchemaNotReady     = "SCHEMA_NOT_READY"
	TextCodeImmutableAccount   = "IMMUTABLE_ACCOUNT"
	TextCodeAlreadyReturned    = "ASSIGNMENT_ALREADY_RETURNED"
	TextCodeDuplicateSKU       = "DUPLICATE_SKU"
	TextCodeDuplicateCategory  = "DUPLICATE_CATEGORY"
	TextCodeRateLimited        = "RATE_LIMITED"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned for any failed credential check.
var ErrMismatchedHashAndPassword = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrTooManyLoginAttempts is returned while an account is cooling down.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts, try again later", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrTokenExpired is returned for expired session tokens.
var ErrTokenExpired = goerrors.New("session token has expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that do not parse or verify.
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToFindSession is the error when our reequest has no session
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrNotApproved is returned when a pending or revoked account reaches a
// protected resource.
var ErrNotApproved = goerrors.New("account is waiting for administrator approval", goerrors.CategoryAuthz).
	WithTextCode(TextCodeNotApproved).
	WithCode(goerrors.CodeForbidden)

// ErrWarehouseForbidden is returned when a warehouse is outside the visible set.
var ErrWarehouseForbidden = goerrors.New("warehouse is not assigned to this account", goerrors.CategoryAuthz).
	WithTextCode(TextCodeWarehouseForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrInsufficientRole is returned when the role is below what the action needs.
var ErrInsufficientRole = goerrors.New("role does not allow this action", goerrors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole).
	WithCode(goerrors.CodeForbidden)

// ErrSchemaNotReady is returned when the database has not been migrated.
var ErrSchemaNotReady = goerrors.New("database initialization required, run `inventory migrate`", goerrors.CategoryInternal).
	WithTextCode(TextCodeSchemaNotReady).
	WithCode(goerrors.CodeInternal)

// ErrImmutableAccount is returned when trying to change the super admin.
var ErrImmutableAccount = goerrors.New("the super admin account cannot be modified", goerrors.CategoryConflict).
	WithTextCode(TextCodeImmutableAccount).
	WithCode(goerrors.CodeConflict)

// ErrAssignmentReturned is returned when returning stock twice.
var ErrAssignmentReturned = goerrors.New("assignment has already been returned", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyReturned).
	WithCode(goerrors.CodeConflict)

// ErrDuplicateSKU is returned when a SKU already exists in the warehouse.
var ErrDuplicateSKU = goerrors.New("a product with this SKU already exists in the warehouse", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateSKU).
	WithCode(goerrors.CodeConflict)

// ErrDuplicateCategory is returned when a category already exists in the warehouse.
var ErrDuplicateCategory = goerrors.New("category already exists in the warehouse", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateCategory).
	WithCode(goerrors.CodeConflict)

// ErrRateLimited is returned by rate limited endpoints.
var ErrRateLimited = goerrors.New("too many requests", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeRateLimited)

// ErrImmutableClaimMutation is returned when a claims decorator changes a
// protected claim.
var ErrImmutableClaimMutation = goerrors.New("immutable claim mutated", goerrors.CategoryInternal).
	WithTextCode("IMMUTABLE_CLAIM_MUTATION").
	WithCode(goerrors.CodeInternal)

// NewValidationError wraps a payload validation failure.
func NewValidationError(err error, msg string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, msg).
		WithCode(goerrors.CodeBadRequest)
}

// withMetadata clones a sentinel before attaching metadata.
func withMetadata(sentinel *goerrors.Error, meta map[string]any) *goerrors.Error {
	return sentinel.Clone().WithMetadata(meta)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsSchemaError reports whether err looks like a missing table or column.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "no such column") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		(strings.Contains(msg, "column") && strings.Contains(msg, "does not exist"))
}

// IsUniqueViolation reports whether err is a unique constraint failure in
// either supported database.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

// IsMalformedError reports whether err means the token could not be parsed or
// verified, as opposed to a valid but expired token.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeTokenMalformed || richErr.Message == ErrUnableToDecodeSession.Message
	}
	return false
}
