// Command rpc-checker 测试 Solana JSON-RPC 节点的延迟与可靠性。
package main

import (
	"os"

	"yqhp/rpc-checker/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
