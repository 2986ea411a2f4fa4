package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag   string
		logLevelFlag string
		indexFlag    string
	)
	ctx := newCommandContext(&configFlag, &logLevelFlag, &indexFlag)

	rootCmd := &cobra.Command{
		Use:           "dmstream",
		Short:         "DesireMovies 多画质直链流插件",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "配置文件路径（默认 ./dmstream.json，可选）")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "日志级别：trace|debug|info|warn|error|disabled")
	rootCmd.PersistentFlags().StringVar(&indexFlag, "index", "", "目录索引文件路径（默认 myIndex.json）")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newStreamsCommand(ctx))
	rootCmd.AddCommand(newMatchCommand(ctx))
	rootCmd.AddCommand(newIndexCommand(ctx))

	return rootCmd
}
