package main

import (
	"github.com/spf13/cobra"

	"github.com/John-Robertt/dmstream/internal/infra/logx"
	"github.com/John-Robertt/dmstream/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 插件服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.newService()
			if err != nil {
				return err
			}
			s := server.New(server.Config{
				Listen:    ctx.config.Listen,
				RateLimit: ctx.config.RateLimit,
				Manifest:  server.DefaultManifest(),
				Streams:   svc,
				Log:       logx.WithComponent("http"),
			})
			return s.Run(cmd.Context())
		},
	}
	cmd.Flags().String("listen", "", "监听地址（默认 :7003；环境变量 PORT 次之）")
	return cmd
}
