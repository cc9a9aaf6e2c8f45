// Package apperr carries business-rule failures across service boundaries
// as a single structured error: HTTP status, machine-readable code, human
// message and optional details. Handlers serialize it verbatim.
package apperr

import (
	"errors"
	"net/http"
)

const (
	CodeNotFound                = "NOT_FOUND"
	CodeForbidden               = "FORBIDDEN"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeValidation              = "VALIDATION_ERROR"
	CodeInternal                = "INTERNAL_ERROR"
	CodeCartEmpty               = "CART_EMPTY"
	CodeCartInvalid             = "CART_INVALID"
	CodeInvalidQuantity         = "INVALID_QUANTITY"
	CodeInsufficientStock       = "INSUFFICIENT_STOCK"
	CodeProductUnavailable      = "PRODUCT_UNAVAILABLE"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeAlreadyCancelled        = "ALREADY_CANCELLED"
	CodeCannotCancelDelivered   = "CANNOT_CANCEL_DELIVERED"
	CodeSlugExists              = "SLUG_EXISTS"
	CodeSkuExists               = "SKU_EXISTS"
	CodeReviewExists            = "REVIEW_EXISTS"
	CodePurchaseRequired        = "PURCHASE_REQUIRED"
)

type Error struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *Error) Error() string { return e.Message }

// WithDetails returns a copy carrying structured details (e.g. a cart issue list).
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

func E(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func NotFound(message string) *Error {
	return E(http.StatusNotFound, CodeNotFound, message)
}

func Forbidden(message string) *Error {
	return E(http.StatusForbidden, CodeForbidden, message)
}

func BadRequest(code, message string) *Error {
	return E(http.StatusBadRequest, code, message)
}

func Conflict(code, message string) *Error {
	return E(http.StatusConflict, code, message)
}

// From extracts the structured error from an error chain, falling back to a
// generic 500 so internal failures propagate without leaking store details.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return E(http.StatusInternalServerError, CodeInternal, "internal server error")
}

// Is reports whether err is a structured error with the given code.
func Is(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
