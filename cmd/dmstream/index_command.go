package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/dmstream/internal/catalog"
	"github.com/John-Robertt/dmstream/internal/infra/logx"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "目录索引维护",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "抓取列表页第一页，把新条目插到索引最前面",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hc, err := ctx.pageClient()
			if err != nil {
				return err
			}
			res, err := catalog.Updater{
				Client:     hc,
				ListingURL: ctx.config.ListingURL,
				IndexPath:  ctx.config.IndexPath,
				Log:        logx.WithComponent("catalog"),
			}.Update(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]int{
				"scraped": res.Scraped,
				"added":   res.Added,
				"total":   res.Total,
			})
		},
	})
	return cmd
}
