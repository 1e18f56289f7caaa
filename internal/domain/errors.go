package domain

import "errors"

// Sentinels raised by the persistence layer. Constraint sentinels are what
// unique and foreign-key violations are translated into.
var (
	ErrNoRecord           = errors.New("record not found")
	ErrActiveLoanExists   = errors.New("user already has an active loan")
	ErrBookOnLoan         = errors.New("book already has an active loan")
	ErrDuplicateBookCode  = errors.New("duplicate book code")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrDuplicateLibraryID = errors.New("duplicate library id")
	ErrBookReferenced     = errors.New("book is referenced by borrow records")
)

// ValidationError reports malformed input. Fields maps field name to message.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports a referenced entity that does not exist
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ConflictError reports a business rule violation
type ConflictError struct {
	Reason  string // stable machine-readable rule name
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// InternalError wraps a failure with no business interpretation
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.Op + ": internal error"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *InternalError) Unwrap() error { return e.Err }

// Conflict reasons surfaced by the loan workflow
const (
	ReasonActiveLoanExists = "active loan exists"
	ReasonBookNotAvailable = "book not available"
	ReasonNoActiveLoan     = "no active loan"
	ReasonDuplicate        = "duplicate"
	ReasonBookReferenced   = "book referenced"
	ReasonRoleNotAllowed   = "role not allowed"
)

// NewValidationError builds a ValidationError with per-field messages
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Message: "Validation failed", Fields: fields}
}

// NewConflict builds a ConflictError
func NewConflict(reason, message string) *ConflictError {
	return &ConflictError{Reason: reason, Message: message}
}

// Internal wraps err as an InternalError unless it already carries a kind
func Internal(op string, err error) error {
	if HasKind(err) {
		return err
	}
	return &InternalError{Op: op, Err: err}
}

// HasKind reports whether err already is one of the typed error kinds
func HasKind(err error) bool {
	var (
		v *ValidationError
		n *NotFoundError
		c *ConflictError
		i *InternalError
	)
	return errors.As(err, &v) || errors.As(err, &n) || errors.As(err, &c) || errors.As(err, &i)
}

// IsConflict reports whether err is a ConflictError with the given reason
func IsConflict(err error, reason string) bool {
	var c *ConflictError
	return errors.As(err, &c) && c.Reason == reason
}
