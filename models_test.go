package permkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleHoldings(t *testing.T) {
	rh := NewRoleHoldings("alice", []uint64{RoleAdmin, 1008, 2003})

	assert.Equal(t, "alice", rh.Address)
	assert.False(t, rh.IsEmpty())

	assert.True(t, rh.HasToken(RoleAdmin))
	assert.True(t, rh.HasToken(1008))
	assert.False(t, rh.HasToken(RoleDeployer))
}

func TestRoleHoldingsHasBaseRole(t *testing.T) {
	rh := NewRoleHoldings("alice", []uint64{1008, 2003})

	assert.True(t, rh.HasBaseRole(1, RoleIsWhitelisted))
	assert.True(t, rh.HasBaseRole(2, RoleWhitelistAdmin))
	assert.False(t, rh.HasBaseRole(2, RoleIsWhitelisted))
	assert.False(t, rh.HasBaseRole(0, RoleAdmin))

	// invalid base roles never match
	assert.False(t, rh.HasBaseRole(1, 1008))
}

func TestRoleHoldingsEmpty(t *testing.T) {
	rh := NewRoleHoldings("bob", nil)
	assert.True(t, rh.IsEmpty())
	assert.False(t, rh.HasToken(RoleAdmin))
}

func TestTransferSingleEventShape(t *testing.T) {
	cc := CallContext{Operator: "deployer", RequestID: "req-1"}

	mint := transferSingleEvent(cc, "", "alice", 1008)
	assert.Equal(t, EventTransferSingle, mint.Kind)
	assert.Equal(t, "deployer", mint.Operator)
	assert.Equal(t, "", mint.From)
	assert.Equal(t, "alice", mint.To)
	assert.Equal(t, uint64(1008), mint.TokenID)
	assert.Equal(t, uint64(1), mint.Amount)
	assert.Equal(t, "req-1", mint.RequestID)

	burn := transferSingleEvent(cc, "alice", "", 1008)
	assert.Equal(t, "alice", burn.From)
	assert.Equal(t, "", burn.To)
}
