package registry

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/rpc-checker/internal/rpc"
	"yqhp/rpc-checker/pkg/logger"
	"yqhp/rpc-checker/pkg/types"
)

type stubSlots struct {
	slot uint64
	err  error
	hits int
}

func (s *stubSlots) LatestSlot(context.Context) (uint64, error) {
	s.hits++
	return s.slot, s.err
}

func TestMethods_FixedOrder(t *testing.T) {
	want := types.AllMethods()

	got := make([]types.Method, 0, len(want))
	for _, d := range Methods() {
		got = append(got, d.Method)
	}
	assert.Equal(t, want, got)
}

func TestMethods_ReturnsCopy(t *testing.T) {
	m := Methods()
	m[0].Method = "mutated"

	assert.Equal(t, types.MethodGetHealth, Methods()[0].Method)
}

func TestLookup(t *testing.T) {
	d, ok := Lookup(types.MethodGetBalance)
	require.True(t, ok)
	assert.Equal(t, types.MethodGetBalance, d.Method)

	_, ok = Lookup("eth_blockNumber")
	assert.False(t, ok)
}

func TestRequest_NoParams(t *testing.T) {
	for _, m := range []types.Method{types.MethodGetHealth, types.MethodGetSlot, types.MethodGetLatestBlockhash} {
		d, ok := Lookup(m)
		require.True(t, ok)
		req := d.Request(context.Background(), DefaultProbe())
		assert.Nil(t, req.Params, m)
	}
}

func TestRequest_AccountParams(t *testing.T) {
	probe := DefaultProbe()
	probe.Account = "acct"
	probe.Owner = "owner"

	d, _ := Lookup(types.MethodGetBalance)
	assert.Equal(t, []any{"acct"}, d.Request(context.Background(), probe).Params)

	d, _ = Lookup(types.MethodGetAccountInfo)
	params := d.Request(context.Background(), probe).Params
	require.Len(t, params, 2)
	assert.Equal(t, "acct", params[0])
	assert.Equal(t, "base64", params[1].(map[string]any)["encoding"])

	d, _ = Lookup(types.MethodGetTokenAccountsByOwner)
	params = d.Request(context.Background(), probe).Params
	require.Len(t, params, 3)
	assert.Equal(t, "owner", params[0])
	assert.Equal(t, DefaultTokenProgram, params[1].(map[string]any)["programId"])
	assert.Equal(t, "jsonParsed", params[2].(map[string]any)["encoding"])
}

func TestGetBlock_UsesLatestSlotMinusLag(t *testing.T) {
	slots := &stubSlots{slot: 1000}
	probe := DefaultProbe()
	probe.Slots = slots

	d, _ := Lookup(types.MethodGetBlock)
	params := d.Request(context.Background(), probe).Params

	require.Len(t, params, 2)
	assert.Equal(t, uint64(990), params[0])
	assert.Equal(t, 1, slots.hits)
}

func TestGetBlock_FallsBackWhenGetSlotFails(t *testing.T) {
	probe := DefaultProbe()
	probe.FallbackSlot = 12345
	probe.Slots = &stubSlots{err: errors.New("connection refused")}

	d, _ := Lookup(types.MethodGetBlock)
	params := d.Request(context.Background(), probe).Params

	assert.Equal(t, uint64(12345), params[0])
}

func TestResolveSlot(t *testing.T) {
	probe := DefaultProbe()
	assert.Equal(t, DefaultFallbackSlot, probe.ResolveSlot(context.Background()), "no slot source")

	probe.Slots = &stubSlots{slot: 5}
	assert.Equal(t, uint64(0), probe.ResolveSlot(context.Background()), "floored at zero")
}

func TestGetHealth_Check(t *testing.T) {
	d, _ := Lookup(types.MethodGetHealth)
	require.NotNil(t, d.Check)

	assert.NoError(t, d.Check("ok"))
	assert.EqualError(t, d.Check("behind"), "unexpected result: behind")
	assert.Error(t, d.Check(nil))
}

func TestResolveSlot_LogsFallbackReason(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"timeout", rpc.NewTimeoutError(time.Second, nil), `"reason":"timeout"`},
		{"rpc error", rpc.NewRPCError(-32005, "Node is behind"), `"reason":"rejected by node"`},
		{"transport", errors.New("connection refused"), `"reason":"request failed"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger.Init(&logger.Config{Level: "warn", Format: "json", Writer: &buf})
			defer logger.Init(nil)

			probe := DefaultProbe()
			probe.Slots = &stubSlots{err: tt.err}
			assert.Equal(t, DefaultFallbackSlot, probe.ResolveSlot(context.Background()))

			logger.Sync()
			assert.Contains(t, buf.String(), tt.reason)
			assert.Contains(t, buf.String(), `"fallback_slot":300000000`)
		})
	}
}
