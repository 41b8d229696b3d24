package models

import "fmt"

// Violation represents a standardized data-quality finding for one input row.
// Violations are collected during loading and snapshot building; they never
// abort the run.
type Violation struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Violation code constants
const (
	// Row shape and field errors
	CodeBadColumnCount = "BAD_COLUMN_COUNT"
	CodeMissingField   = "MISSING_FIELD"
	CodeInvalidNumber  = "INVALID_NUMBER"
	CodeInvalidDate    = "INVALID_DATE"
	CodeInvalidTime    = "INVALID_TIME"
	CodeDuplicateKey   = "DUPLICATE_KEY"

	// Domain constraint errors
	CodeInvalidSize         = "INVALID_SIZE"
	CodeNegativePrice       = "NEGATIVE_PRICE"
	CodeNonPositiveQuantity = "NON_POSITIVE_QUANTITY"

	// Referential integrity errors
	CodeUnknownOrder     = "UNKNOWN_ORDER"
	CodeUnknownPizza     = "UNKNOWN_PIZZA"
	CodeUnknownPizzaType = "UNKNOWN_PIZZA_TYPE"
)

// NewViolation creates a new violation with the given location and code
func NewViolation(file string, line int, field, code, value, message string) Violation {
	return Violation{
		File:    file,
		Line:    line,
		Field:   field,
		Code:    code,
		Value:   value,
		Message: message,
	}
}

// Error implements the error interface so a violation can travel as an error
func (v Violation) Error() string {
	if v.Field != "" {
		return fmt.Sprintf("%s:%d: %s (%s=%q): %s", v.File, v.Line, v.Code, v.Field, v.Value, v.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %s", v.File, v.Line, v.Code, v.Message)
}
