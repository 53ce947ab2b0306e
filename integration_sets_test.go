package permkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPermissionSet(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}
	ledger := h.GetLedger()

	require.NoError(t, ledger.AddPermissionSet(h.Ctx(), 10, "Hallo"))

	name, err := ledger.PermissionSetName(h.GetContext(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Hallo", name)

	setID, err := ledger.PermissionSetID(h.GetContext(), "Hallo")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), setID)

	// IDs are unique
	err = ledger.AddPermissionSet(h.Ctx(), 10, "Other")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionSetExists)

	// and so are names
	err = ledger.AddPermissionSet(h.Ctx(), 11, "Hallo")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionSetNameTaken)
	assert.True(t, IsConflict(err))
}

func TestRenamePermissionSet(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}
	ledger := h.GetLedger()

	require.NoError(t, ledger.AddPermissionSet(h.Ctx(), 10, "Hallo"))

	// renaming means remove and re-add under the same ID
	require.NoError(t, ledger.RemovePermissionSet(h.Ctx(), 10))
	require.NoError(t, ledger.AddPermissionSet(h.Ctx(), 10, "Hello"))

	name, err := ledger.PermissionSetName(h.GetContext(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Hello", name)

	// the old name is free again
	require.NoError(t, ledger.AddPermissionSet(h.Ctx(), 11, "Hallo"))
}

func TestRegisterPermissionSet(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}
	ledger := h.GetLedger()

	next, err := ledger.NextPermissionSetID(h.GetContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)

	id, err := ledger.RegisterPermissionSet(h.Ctx(), "first")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	id, err = ledger.RegisterPermissionSet(h.Ctx(), "second")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)

	next, err = ledger.NextPermissionSetID(h.GetContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), next)

	// removal never frees an auto ID
	require.NoError(t, ledger.RemovePermissionSet(h.Ctx(), 2))
	id, err = ledger.RegisterPermissionSet(h.Ctx(), "third")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)
}

func TestRemovePermissionSet(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}
	ledger := h.GetLedger()

	err := ledger.RemovePermissionSet(h.Ctx(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionSetNotFound)
	assert.True(t, IsPreconditionFailed(err))

	require.NoError(t, ledger.AddPermissionSet(h.Ctx(), 10, "a"))
	require.NoError(t, ledger.AddPermissionSet(h.Ctx(), 11, "b"))
	require.NoError(t, ledger.AddPermissionSet(h.Ctx(), 12, "c"))

	// removing a middle entry swaps the last into its slot
	require.NoError(t, ledger.RemovePermissionSet(h.Ctx(), 10))
	ids, err := ledger.PermissionSetIDs(h.GetContext())
	require.NoError(t, err)
	assert.Equal(t, []uint64{12, 11}, ids)

	count, err := ledger.PermissionSetCount(h.GetContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	// lookups for the removed set now fail
	_, err = ledger.PermissionSetName(h.GetContext(), 10)
	assert.True(t, IsNotFound(err))
	_, err = ledger.PermissionSetID(h.GetContext(), "a")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRegistryAuthorization(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}
	ledger := h.GetLedger()
	stranger := h.NewAddress("stranger")
	deployer2 := h.NewAddress("second-deployer")

	err := ledger.AddPermissionSet(h.As(stranger), 10, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAdminOrDeployerRequired)

	_, err = ledger.RegisterPermissionSet(h.As(stranger), "nope")
	assert.ErrorIs(t, err, ErrAdminOrDeployerRequired)

	err = ledger.RemovePermissionSet(h.As(stranger), 10)
	assert.ErrorIs(t, err, ErrAdminOrDeployerRequired)

	// the deployer role is enough for registry work
	h.Grant(deployer2, RoleDeployer)
	require.NoError(t, ledger.AddPermissionSet(h.As(deployer2), 10, "ok"))
	require.NoError(t, ledger.RemovePermissionSet(h.As(deployer2), 10))
}

func TestPermissionSets(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}
	ledger := h.GetLedger()

	require.NoError(t, ledger.AddPermissionSet(h.Ctx(), 10, "a"))
	require.NoError(t, ledger.AddPermissionSet(h.Ctx(), 11, "b"))

	sets, err := ledger.PermissionSets(h.GetContext())
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, uint64(10), sets[0].SetID)
	assert.Equal(t, "a", sets[0].Name)
	assert.Equal(t, uint64(11), sets[1].SetID)
}
