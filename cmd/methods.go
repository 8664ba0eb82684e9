package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"yqhp/rpc-checker/internal/registry"
)

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "列出被测试的 RPC 方法及其参数",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"#", "Method", "Parameters"})
			for i, d := range registry.Methods() {
				tw.AppendRow(table.Row{i + 1, d.Method.String(), d.Usage})
			}
			tw.Render()
		},
	}
}
