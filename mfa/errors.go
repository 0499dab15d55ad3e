package mfa

import "github.com/MrEthical07/goIdentity/domainerr"

const scope = "multifactor"

var (
	ErrAlreadyVerified      = domainerr.Business(scope, "ALREADY_VERIFIED", "multifactor method is already verified")
	ErrNotVerified          = domainerr.Business(scope, "NOT_VERIFIED", "multifactor method is not verified")
	ErrAlreadyActive        = domainerr.Business(scope, "ALREADY_ACTIVE", "multifactor method is already active")
	ErrNotActive            = domainerr.Business(scope, "NOT_ACTIVE", "multifactor method is not active")
	ErrNotInitialized       = domainerr.Business(scope, "NOT_INITIALIZED", "no multifactor code was issued")
	ErrExpiredCode          = domainerr.Business(scope, "EXPIRED_CODE", "multifactor code expired")
	ErrInvalidCode          = domainerr.Business(scope, "INVALID_CODE", "multifactor code does not match")
	ErrCodeInProgress       = domainerr.Business(scope, "CODE_IN_PROGRESS", "a multifactor code is still valid")
	ErrAlreadyAuthenticated = domainerr.Business(scope, "ALREADY_AUTHENTICATED", "multifactor challenge already passed")

	ErrUnsupportedMethod = domainerr.Validation(scope, "UNSUPPORTED_METHOD", "unsupported multifactor method")
	ErrInvalidContact    = domainerr.Validation(scope, "INVALID_CONTACT", "contact does not match the method format")
	ErrUnknownStatus     = domainerr.Validation(scope, "UNKNOWN_STATUS", "unknown multifactor status")
)
