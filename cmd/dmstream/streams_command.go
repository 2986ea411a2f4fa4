package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newStreamsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "streams <imdb-id>",
		Short: "解析单个 id 的全部流条目，以 JSON 输出到 stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.newService()
			if err != nil {
				return err
			}
			resp := svc.GetStreams(cmd.Context(), args[0])
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
}
