package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/dmstream/internal/infra/logx"
	"github.com/John-Robertt/dmstream/internal/match"
)

// matchOutput 是 match 命令的 stdout JSON。
type matchOutput struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Score int    `json:"score"`
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match <title> <year>",
		Short: "在目录索引中为 title/year 选出条目（不访问网络）",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := ctx.loadIndex(logx.WithComponent("catalog"))
			if err != nil {
				return err
			}
			e, ok := match.Match(index, args[0], args[1])
			if !ok {
				return fmt.Errorf("索引中没有匹配 %q (%s) 的条目", args[0], args[1])
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(matchOutput{
				Title: e.Title,
				Link:  e.Link,
				Score: match.Score(e.Title),
			})
		},
	}
}
