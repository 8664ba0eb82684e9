package types

// Method is the name of a benchmarked JSON-RPC method.
type Method string

const (
	MethodGetHealth               Method = "getHealth"
	MethodGetSlot                 Method = "getSlot"
	MethodGetLatestBlockhash      Method = "getLatestBlockhash"
	MethodGetBalance              Method = "getBalance"
	MethodGetAccountInfo          Method = "getAccountInfo"
	MethodGetTokenAccountsByOwner Method = "getTokenAccountsByOwner"
	MethodGetBlock                Method = "getBlock"
)

// String 返回方法名。
func (m Method) String() string {
	return string(m)
}

// AllMethods 按报告顺序返回全部被测方法。
func AllMethods() []Method {
	return []Method{
		MethodGetHealth,
		MethodGetSlot,
		MethodGetLatestBlockhash,
		MethodGetBalance,
		MethodGetAccountInfo,
		MethodGetTokenAccountsByOwner,
		MethodGetBlock,
	}
}
