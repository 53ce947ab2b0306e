package permkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogTransfers(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}
	ledger := h.GetLedger()
	alice := h.NewAddress("alice")

	require.NoError(t, ledger.Create(h.Ctx(), alice, RoleMinter, ""))
	require.NoError(t, ledger.Burn(h.As(alice), alice, RoleMinter, 1))

	events, err := ledger.Events(h.GetContext(),
		NewEventFilter().WithKind(EventTransferSingle).WithToken(RoleMinter))
	require.NoError(t, err)
	require.Len(t, events, 2)

	// mints use the empty string as from, burns as to
	mint := events[0]
	assert.Equal(t, h.Deployer(), mint.Operator)
	assert.Equal(t, "", mint.From)
	assert.Equal(t, alice, mint.To)
	assert.Equal(t, uint64(1), mint.Amount)

	burn := events[1]
	assert.Equal(t, alice, burn.Operator)
	assert.Equal(t, alice, burn.From)
	assert.Equal(t, "", burn.To)

	assert.Less(t, mint.Seq, burn.Seq)
}

func TestEventLogFilters(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}
	ledger := h.GetLedger()
	alice := h.NewAddress("alice")

	require.NoError(t, ledger.AddPermissionSet(h.Ctx(), 10, "sale"))
	require.NoError(t, ledger.Create(h.Ctx(), alice, RoleMinter, ""))
	require.NoError(t, ledger.SetTokenURI(h.Ctx(), RoleMinter, "ipfs://new.json"))

	added, err := ledger.Events(h.GetContext(), NewEventFilter().WithKind(EventPermissionSetAdded))
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, uint64(10), added[0].SetID)
	assert.Equal(t, "sale", added[0].SetName)

	uriChanges, err := ledger.Events(h.GetContext(), NewEventFilter().WithKind(EventTokenUriChanged))
	require.NoError(t, err)
	require.Len(t, uriChanges, 1)
	assert.Equal(t, "", uriChanges[0].OldURI)
	assert.Equal(t, "ipfs://new.json", uriChanges[0].NewURI)

	byAddress, err := ledger.Events(h.GetContext(), NewEventFilter().WithAddress(alice))
	require.NoError(t, err)
	require.Len(t, byAddress, 1)
	assert.Equal(t, EventTransferSingle, byAddress[0].Kind)

	byOperator, err := ledger.CountEvents(h.GetContext(), NewEventFilter().WithOperator(h.Deployer()))
	require.NoError(t, err)
	// setup mint, set added, create mint, uri change
	assert.Equal(t, 4, byOperator)
}

func TestEventLogPagination(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}
	ledger := h.GetLedger()

	for i := uint64(0); i < 3; i++ {
		require.NoError(t, ledger.Create(h.Ctx(), h.NewAddress("holder"), 100+i, ""))
	}

	page, err := ledger.Events(h.GetContext(),
		NewEventFilter().WithKind(EventTransferSingle).WithPagination(2, 0))
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := ledger.Events(h.GetContext(),
		NewEventFilter().WithKind(EventTransferSingle).WithPagination(10, 2))
	require.NoError(t, err)
	// setup mint plus three creates, minus the first page
	assert.Len(t, rest, 2)
}

func TestEventLogCarriesRequestMetadata(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}
	ledger := h.GetLedger()

	ctx := h.Ctx()
	ctx = WithIPAddress(ctx, "10.0.0.1")
	ctx = WithUserAgent(ctx, "permkit-test")
	ctx = WithRequestID(ctx, "req-42")

	require.NoError(t, ledger.Create(ctx, h.NewAddress("alice"), RoleMinter, ""))

	events, err := ledger.Events(h.GetContext(),
		NewEventFilter().WithKind(EventTransferSingle).WithToken(RoleMinter))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "10.0.0.1", events[0].IPAddress)
	assert.Equal(t, "permkit-test", events[0].UserAgent)
	assert.Equal(t, "req-42", events[0].RequestID)
}

func TestFailedMutationLeavesNoEvents(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}
	ledger := h.GetLedger()

	err := ledger.Create(h.As(h.NewAddress("stranger")), h.NewAddress("alice"), RoleMinter, "")
	require.Error(t, err)

	count, err := ledger.CountEvents(h.GetContext(),
		NewEventFilter().WithKind(EventTransferSingle).WithToken(RoleMinter))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
