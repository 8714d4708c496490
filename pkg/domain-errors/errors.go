// Package domainerrors carries coded errors from the domain layer to the edges.
//
// Services return *Error values created with New or Wrap. Transports map the
// Code to a status via ToHTTPStatus; callers branch with HasCode.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies an error kind. Codes are stable strings exposed to clients.
type Code string

// Ledger error kinds.
const (
	CodeCapacityExceeded     Code = "capacity_exceeded"
	CodeAssetListFull        Code = "asset_list_full"
	CodeInsufficientBalance  Code = "insufficient_balance"
	CodeZeroAmount           Code = "zero_amount"
	CodeAmountBelowFee       Code = "amount_below_fee"
	CodeInvalidRecipient     Code = "invalid_recipient"
	CodeNotAuthorized        Code = "not_authorized"
	CodePriceInvalid         Code = "price_invalid"
	CodeOverflow             Code = "overflow"
	CodeRateLimitExceeded    Code = "rate_limit_exceeded"
	CodeInvalidSchemaVersion Code = "invalid_schema_version"
	CodeInvalidPhase         Code = "invalid_phase"
	CodeAllExpansionsCreated Code = "all_expansions_created"
	CodePreviousVaultNotFull Code = "previous_vault_not_full"
	CodeNoFeesToCollect      Code = "no_fees_to_collect"
)

// Escrow error kinds.
const (
	CodeAlreadyClaimed Code = "already_claimed"
	CodeStillLocked    Code = "still_locked"
	CodeLockExpired    Code = "lock_expired"
)

// General error kinds.
const (
	CodeInvalidInput      Code = "invalid_input"
	CodeBadRequest        Code = "bad_request"
	CodeUnauthorized      Code = "unauthorized"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeOracleUnavailable Code = "oracle_unavailable"
	CodeTransferFailed    Code = "transfer_failed"
	CodeTimeout           Code = "timeout"
	CodeInternal          Code = "internal_error"
)

// Error is a domain error with a client-facing code and message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Is reports whether err is a domain error.
func Is(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// CodeOf returns the outermost domain code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any domain error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// ToHTTPStatus maps a code to the status transports should respond with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest, CodeZeroAmount, CodeAmountBelowFee,
		CodeInvalidRecipient, CodeInvalidPhase:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotAuthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyClaimed:
		return http.StatusConflict
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeCapacityExceeded, CodeAssetListFull, CodeInsufficientBalance,
		CodeAllExpansionsCreated, CodePreviousVaultNotFull, CodeNoFeesToCollect,
		CodeStillLocked, CodeLockExpired, CodeOverflow:
		return http.StatusUnprocessableEntity
	case CodePriceInvalid, CodeOracleUnavailable, CodeTransferFailed:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeInvalidSchemaVersion:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
