package permkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorWrapping(t *testing.T) {
	err := NewError(ErrTokenAlreadyHeld, "address already holds this role token").
		WithToken(1008).
		WithAddress("alice")

	assert.ErrorIs(t, err, ErrTokenAlreadyHeld)
	assert.Equal(t, uint64(1008), err.TokenID)
	assert.Equal(t, "alice", err.Address)
	assert.Contains(t, err.Error(), "already exists for holder")
	assert.Contains(t, err.Error(), "address already holds this role token")
}

func TestErrorWithoutMessage(t *testing.T) {
	err := NewError(ErrTransferNotAllowed, "")
	assert.Equal(t, ErrTransferNotAllowed.Error(), err.Error())
}

func TestErrorUnwrap(t *testing.T) {
	err := NewError(ErrMissingRole, "missing").WithRequired(RoleAdmin)
	assert.Equal(t, ErrMissingRole, errors.Unwrap(err))

	wrapped := fmt.Errorf("mint failed: %w", err)
	var pkErr *Error
	assert.True(t, errors.As(wrapped, &pkErr))
	assert.Equal(t, RoleAdmin, pkErr.Required)
}

func TestErrorChainers(t *testing.T) {
	err := NewError(ErrPermissionSetNameTaken, "taken").
		WithSet(3).
		WithName("Hallo").
		WithOperator("deployer").
		WithAmount(1)

	assert.Equal(t, uint64(3), err.SetID)
	assert.Equal(t, "Hallo", err.Name)
	assert.Equal(t, "deployer", err.Operator)
	assert.Equal(t, uint64(1), err.Amount)
}

func TestErrorClassifiers(t *testing.T) {
	cases := []struct {
		err      error
		classify func(error) bool
	}{
		{ErrKeyNotFound, IsNotFound},
		{ErrIndexOutOfRange, IsNotFound},
		{ErrPermissionSetExists, IsConflict},
		{ErrPermissionSetNameTaken, IsConflict},
		{ErrTokenAlreadyCreated, IsConflict},
		{ErrTokenAlreadyHeld, IsConflict},
		{ErrTokenNotCreated, IsPreconditionFailed},
		{ErrPermissionSetNotFound, IsPreconditionFailed},
		{ErrPermissionSetUnchanged, IsPreconditionFailed},
		{ErrMissingRole, IsUnauthorized},
		{ErrAdminRoleRequired, IsUnauthorized},
		{ErrAdminOrDeployerRequired, IsUnauthorized},
		{ErrTransferNotAllowed, IsUnauthorized},
		{ErrNotOwnerNorApproved, IsUnauthorized},
		{ErrInvalidAmount, IsInvalidArgument},
		{ErrLengthMismatch, IsInvalidArgument},
		{ErrInvalidRole, IsInvalidArgument},
	}

	for _, c := range cases {
		assert.True(t, c.classify(c.err), "sentinel %v", c.err)
		assert.True(t, c.classify(NewError(c.err, "wrapped")), "wrapped %v", c.err)
	}

	assert.False(t, IsNotFound(ErrMissingRole))
	assert.False(t, IsConflict(ErrKeyNotFound))
	assert.False(t, IsUnauthorized(ErrInvalidAmount))
	assert.False(t, IsMissingRole(ErrAdminRoleRequired))
}
