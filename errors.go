package permkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for ledger and registry operations.
var (
	// ErrPermissionSetExists is returned when a permission-set ID is already registered.
	ErrPermissionSetExists = errors.New("permkit: permission set already exists")

	// ErrPermissionSetNameTaken is returned when a permission-set name is already in use.
	ErrPermissionSetNameTaken = errors.New("permkit: permission set name already exists")

	// ErrPermissionSetNotFound is returned when removing a permission set that was never added.
	ErrPermissionSetNotFound = errors.New("permkit: permission set not existing")

	// ErrKeyNotFound is returned when querying the name of an unknown permission set.
	ErrKeyNotFound = errors.New("permkit: key not found")

	// ErrTokenAlreadyCreated is returned when creating a token that already exists.
	ErrTokenAlreadyCreated = errors.New("permkit: token already created")

	// ErrTokenNotCreated is returned when minting a token that hasn't been created yet.
	ErrTokenNotCreated = errors.New("permkit: token not created yet")

	// ErrTokenAlreadyHeld is returned when minting a token to an address that already holds it.
	ErrTokenAlreadyHeld = errors.New("permkit: token already exists for holder")

	// ErrMissingRole is returned when the caller lacks the role required to mint a token.
	ErrMissingRole = errors.New("permkit: missing role")

	// ErrAdminRoleRequired is returned when an operation needs the admin role for a scope.
	ErrAdminRoleRequired = errors.New("permkit: admin role required")

	// ErrAdminOrDeployerRequired is returned when a registry mutation lacks admin/deployer rights.
	ErrAdminOrDeployerRequired = errors.New("permkit: admin or deployer roles required")

	// ErrTransferNotAllowed is returned for any transfer attempt; tokens are soul-bound.
	ErrTransferNotAllowed = errors.New("permkit: transfer not allowed")

	// ErrNotOwnerNorApproved is returned when the caller is neither holder nor approved operator.
	ErrNotOwnerNorApproved = errors.New("permkit: caller is not token owner nor approved")

	// ErrInvalidAmount is returned when a burn amount differs from 1.
	ErrInvalidAmount = errors.New("permkit: invalid amount")

	// ErrLengthMismatch is returned when parallel batch arrays differ in length.
	ErrLengthMismatch = errors.New("permkit: parameters length mismatch")

	// ErrIndexOutOfRange is returned for an out-of-range holder or mapping index.
	ErrIndexOutOfRange = errors.New("permkit: index out of range")

	// ErrPermissionSetUnchanged is returned when re-setting an overwriter to its current set ID.
	ErrPermissionSetUnchanged = errors.New("permkit: permission set id was already set")

	// ErrInvalidRole is returned for a role ID that cannot be scoped or is reserved.
	ErrInvalidRole = errors.New("permkit: invalid role")

	// ErrNoOperator is returned when no operator identity is found in context.
	ErrNoOperator = errors.New("permkit: no operator in context")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("permkit: database error")
)

// Error wraps a sentinel error with structured context about the failed call.
type Error struct {
	Err      error  // Underlying sentinel error
	Message  string // Additional context
	TokenID  uint64 // Role token involved (if applicable)
	Required uint64 // Role token the caller would have needed (if applicable)
	SetID    uint64 // Permission set involved (if applicable)
	Name     string // Permission set name involved (if applicable)
	Address  string // Holder address involved (if applicable)
	Operator string // Caller that triggered the error (if applicable)
	Amount   uint64 // Amount involved (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithToken adds the role token to the error.
func (e *Error) WithToken(id uint64) *Error {
	e.TokenID = id
	return e
}

// WithRequired adds the role token the caller would have needed.
func (e *Error) WithRequired(id uint64) *Error {
	e.Required = id
	return e
}

// WithSet adds the permission set to the error.
func (e *Error) WithSet(setID uint64) *Error {
	e.SetID = setID
	return e
}

// WithName adds the permission set name to the error.
func (e *Error) WithName(name string) *Error {
	e.Name = name
	return e
}

// WithAddress adds the holder address to the error.
func (e *Error) WithAddress(addr string) *Error {
	e.Address = addr
	return e
}

// WithOperator adds the caller that triggered the error.
func (e *Error) WithOperator(operator string) *Error {
	e.Operator = operator
	return e
}

// WithAmount adds the offending amount to the error.
func (e *Error) WithAmount(amount uint64) *Error {
	e.Amount = amount
	return e
}

// IsNotFound checks if an error is a lookup failure (unknown set name or
// out-of-range index).
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound) || errors.Is(err, ErrIndexOutOfRange)
}

// IsConflict checks if an error is a uniqueness violation (duplicate set,
// duplicate token creation, duplicate mint to an existing holder).
func IsConflict(err error) bool {
	return errors.Is(err, ErrPermissionSetExists) ||
		errors.Is(err, ErrPermissionSetNameTaken) ||
		errors.Is(err, ErrTokenAlreadyCreated) ||
		errors.Is(err, ErrTokenAlreadyHeld)
}

// IsPreconditionFailed checks if an error is a state precondition failure.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrTokenNotCreated) ||
		errors.Is(err, ErrPermissionSetNotFound) ||
		errors.Is(err, ErrPermissionSetUnchanged)
}

// IsUnauthorized checks if an error is an authorization failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrMissingRole) ||
		errors.Is(err, ErrAdminRoleRequired) ||
		errors.Is(err, ErrAdminOrDeployerRequired) ||
		errors.Is(err, ErrTransferNotAllowed) ||
		errors.Is(err, ErrNotOwnerNorApproved)
}

// IsInvalidArgument checks if an error is a malformed argument failure.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrInvalidRole)
}

// IsMissingRole checks if an error is due to the caller lacking a role.
func IsMissingRole(err error) bool {
	return errors.Is(err, ErrMissingRole)
}
