package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes returned to API callers.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeItemNotFound      = "ITEM_NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeDuplicateName     = "DUPLICATE_NAME"
	CodePayment           = "PAYMENT_ERROR"
	CodeStorage           = "STORAGE_ERROR"
)

// Error is a structured application error with an HTTP status and an optional
// per-field detail map. Every operation returns either a success payload or
// exactly one of these.
type Error struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails attaches field-level details to the error.
func (e *Error) WithDetails(details map[string]string) *Error {
	e.Details = details
	return e
}

// WithDetail attaches a single field-level detail to the error.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates an Error with the given code, message and HTTP status.
func New(code, message string, httpStatus int) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Validation reports malformed input.
func Validation(message string) *Error {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// ValidationWithFields reports malformed input with one entry per violated field.
func ValidationWithFields(message string, fields map[string]string) *Error {
	return Validation(message).WithDetails(fields)
}

// NotFound reports an absent entity referenced by id.
func NotFound(resource string) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ItemNotFound reports a sale against an unknown item name.
func ItemNotFound(name string) *Error {
	return New(CodeItemNotFound, "item not found", http.StatusNotFound).WithDetail("item_name", name)
}

// InsufficientStock reports a sale that would overdraw inventory.
func InsufficientStock(name string) *Error {
	return New(CodeInsufficientStock, "not enough stock", http.StatusConflict).WithDetail("item_name", name)
}

// InvalidQuantity reports a non-positive or non-integer quantity.
func InvalidQuantity(message string) *Error {
	return New(CodeInvalidQuantity, message, http.StatusBadRequest)
}

// DuplicateName reports an inventory item name that already exists.
func DuplicateName(name string) *Error {
	return New(CodeDuplicateName, "item name already exists", http.StatusConflict).WithDetail("name", name)
}

// Payment reports a payment-provider failure.
func Payment(message string) *Error {
	return New(CodePayment, message, http.StatusBadRequest)
}

// Storage wraps an underlying persistence fault.
func Storage(err error) *Error {
	e := New(CodeStorage, "storage failure", http.StatusInternalServerError)
	e.Err = err
	return e
}

// From normalizes any error into an *Error, wrapping unknown errors as
// storage faults.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Storage(err)
}

// IsCode reports whether err carries the given application error code.
func IsCode(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
