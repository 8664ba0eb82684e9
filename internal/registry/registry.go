// Package registry 定义被测试的 JSON-RPC 方法及其参数构造方式。
package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"yqhp/rpc-checker/internal/rpc"
	"yqhp/rpc-checker/pkg/logger"
	"yqhp/rpc-checker/pkg/types"
)

const (
	// DefaultAccount 默认查询的示例账户（Vote 程序）
	DefaultAccount = "Vote111111111111111111111111111111111111111"
	// DefaultTokenProgram SPL Token 程序 ID
	DefaultTokenProgram = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	// DefaultFallbackSlot getSlot 失败时 getBlock 使用的已知 slot
	DefaultFallbackSlot uint64 = 300000000
	// DefaultSlotLag getBlock 相对最新 slot 的回退量，确保区块已可查询
	DefaultSlotLag uint64 = 10
)

// SlotSource 提供最新 slot，*rpc.Client 实现了该接口。
type SlotSource interface {
	LatestSlot(ctx context.Context) (uint64, error)
}

// Probe 保存构造参数所需的示例数据。
type Probe struct {
	Account      string
	Owner        string
	TokenProgram string
	FallbackSlot uint64
	SlotLag      uint64
	Slots        SlotSource
}

// DefaultProbe 返回默认示例数据。
func DefaultProbe() *Probe {
	return &Probe{
		Account:      DefaultAccount,
		Owner:        DefaultAccount,
		TokenProgram: DefaultTokenProgram,
		FallbackSlot: DefaultFallbackSlot,
		SlotLag:      DefaultSlotLag,
	}
}

// ParamsFunc 为一次尝试构造 JSON-RPC 参数列表。
type ParamsFunc func(ctx context.Context, p *Probe) []any

// Descriptor 描述一个被测试的方法。
type Descriptor struct {
	Method types.Method
	// Params 为 nil 表示不带参数
	Params ParamsFunc
	// Check 为 nil 表示接受任何非错误结果
	Check rpc.ResultCheck
	// Usage 是参数的可读描述
	Usage string
}

// Request 构造一次尝试的请求。
func (d Descriptor) Request(ctx context.Context, p *Probe) rpc.Request {
	req := rpc.Request{Method: d.Method, Check: d.Check}
	if d.Params != nil {
		if p == nil {
			p = DefaultProbe()
		}
		req.Params = d.Params(ctx, p)
	}
	return req
}

// descriptors 固定顺序的方法表，报告按此顺序输出
var descriptors = []Descriptor{
	{
		Method: types.MethodGetHealth,
		Check:  expectOK,
		Usage:  "none",
	},
	{
		Method: types.MethodGetSlot,
		Usage:  "none",
	},
	{
		Method: types.MethodGetLatestBlockhash,
		Usage:  "none",
	},
	{
		Method: types.MethodGetBalance,
		Params: func(_ context.Context, p *Probe) []any {
			return []any{p.Account}
		},
		Usage: "example account",
	},
	{
		Method: types.MethodGetAccountInfo,
		Params: func(_ context.Context, p *Probe) []any {
			return []any{p.Account, map[string]any{
				"encoding":   "base64",
				"commitment": "confirmed",
			}}
		},
		Usage: "example account, {encoding: base64, commitment: confirmed}",
	},
	{
		Method: types.MethodGetTokenAccountsByOwner,
		Params: func(_ context.Context, p *Probe) []any {
			return []any{
				p.Owner,
				map[string]any{"programId": p.TokenProgram},
				map[string]any{"encoding": "jsonParsed"},
			}
		},
		Usage: "example owner, {programId: token program}, {encoding: jsonParsed}",
	},
	{
		Method: types.MethodGetBlock,
		Params: blockParams,
		Usage:  "latest slot minus lag (fallback slot if getSlot fails), {encoding: base64, maxSupportedTransactionVersion: 0}",
	},
}

// Methods 返回方法表的副本。
func Methods() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Lookup 按方法名查找描述。
func Lookup(method types.Method) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Method == method {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ResolveSlot 返回 getBlock 使用的 slot。
// getSlot 失败时退回到 FallbackSlot，不会中止本次尝试。
func (p *Probe) ResolveSlot(ctx context.Context) uint64 {
	if p.Slots == nil {
		return p.FallbackSlot
	}
	latest, err := p.Slots.LatestSlot(ctx)
	if err != nil {
		reason := "request failed"
		switch {
		case rpc.IsTimeoutError(err):
			reason = "timeout"
		case rpc.IsRPCError(err):
			reason = "rejected by node"
		}
		logger.Warn("getSlot failed, getBlock falls back to a known slot",
			zap.String("reason", reason),
			zap.Uint64("fallback_slot", p.FallbackSlot),
			zap.Error(err),
		)
		return p.FallbackSlot
	}
	if latest <= p.SlotLag {
		return 0
	}
	return latest - p.SlotLag
}

func blockParams(ctx context.Context, p *Probe) []any {
	return []any{p.ResolveSlot(ctx), map[string]any{
		"encoding":                       "base64",
		"maxSupportedTransactionVersion": 0,
		"transactionDetails":             "none",
		"rewards":                        false,
	}}
}

func expectOK(result any) error {
	if s, ok := result.(string); ok && s == "ok" {
		return nil
	}
	return fmt.Errorf("unexpected result: %v", result)
}
