package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rule errors
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrAccountDisabled       = errors.New("account is disabled")
	ErrTitleRequired         = errors.New("tournament title is required")
	ErrInvalidSchedule       = errors.New("tournament schedule must be in the future")
	ErrInvalidCapacity       = errors.New("tournament max players must be positive")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrBelowMinWithdrawal    = errors.New("amount is below the minimum withdrawal")
	ErrPartnerRequired       = errors.New("partner details are required for duo mode")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrTournamentNotOpen     = errors.New("tournament is not open for joining")
	ErrTournamentFull        = errors.New("tournament is full")
	ErrInvalidStatusChange   = errors.New("invalid tournament status transition")
	ErrResultsAlreadyExist   = errors.New("tournament results have already been calculated")
	ErrRoomNotAvailable      = errors.New("room details are not available")
	ErrRequestAlreadyDecided = errors.New("request has already been decided")

	// Conflict errors
	ErrEmailConflict = errors.New("email address is already in use")
	ErrFFIDConflict  = errors.New("free fire id is already in use")
	ErrAlreadyJoined = errors.New("user has already joined this tournament")

	// Authentication and authorization errors
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrInvalidAdminCode   = errors.New("invalid admin signup code")

	// Entity-specific not-found errors
	ErrUserNotFound        = errors.New("user not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrRequestNotFound     = errors.New("request not found")
	ErrNoticeNotFound      = errors.New("notice not found")
	ErrResultNotFound      = errors.New("tournament results not available yet")
)
