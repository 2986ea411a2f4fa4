package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/dmstream/internal/catalog"
	"github.com/John-Robertt/dmstream/internal/chain"
	"github.com/John-Robertt/dmstream/internal/config"
	"github.com/John-Robertt/dmstream/internal/domain"
	"github.com/John-Robertt/dmstream/internal/infra/httpx"
	"github.com/John-Robertt/dmstream/internal/infra/logx"
	"github.com/John-Robertt/dmstream/internal/metadata"
	"github.com/John-Robertt/dmstream/internal/streams"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	indexFlag    *string

	configOnce sync.Once
	config     config.EffectiveConfig
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag, indexFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		indexFlag:    indexFlag,
	}
}

// ensureConfig 只加载一次配置，并据此配置全局 logger。
// 日志统一写 stderr：stdout 只留给命令的 JSON 输出。
func (c *commandContext) ensureConfig(cmd *cobra.Command) (config.EffectiveConfig, error) {
	c.configOnce.Do(func() {
		cwd, err := os.Getwd()
		if err != nil {
			c.configErr = fmt.Errorf("读取当前目录失败：%w", err)
			return
		}

		cli := config.CLIArgs{
			ConfigPath:   strings.TrimSpace(*c.configFlag),
			LogLevel:     *c.logLevelFlag,
			LogLevelSet:  cmd.Flags().Changed("log-level"),
			IndexPath:    *c.indexFlag,
			IndexPathSet: cmd.Flags().Changed("index"),
		}
		if f := cmd.Flags().Lookup("listen"); f != nil && f.Changed {
			cli.Listen = f.Value.String()
			cli.ListenSet = true
		}

		eff, err := config.LoadEffective(cwd, cli, nil)
		if err != nil {
			c.configErr = err
			return
		}
		logx.Configure(logx.Config{Level: eff.LogLevel, Output: cmd.ErrOrStderr()})
		c.config = eff
	})
	return c.config, c.configErr
}

// pageClient 构造抓取页面用的 client（IMDb、详情页、跳转链、列表页共用）。
func (c *commandContext) pageClient() (*http.Client, error) {
	hc, err := httpx.NewClient(httpx.Options{
		ProxyURL: c.config.ProxyURL,
		Timeout:  c.config.RequestTimeout,
		Header:   httpx.BrowserHeader(),
	})
	if err != nil {
		return nil, &config.Error{Code: config.ErrCodeInvalid, Path: c.config.ConfigPath, Err: err}
	}
	return hc, nil
}

func (c *commandContext) loadIndex(log zerolog.Logger) ([]domain.CatalogEntry, error) {
	index, err := catalog.Load(c.config.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("读取目录索引 %q 失败：%w", c.config.IndexPath, err)
	}
	log.Info().Str("path", c.config.IndexPath).Int("entries", len(index)).Msg("目录索引已加载")
	return index, nil
}

// newService 按最终配置组装完整的 getStreams 流程。
func (c *commandContext) newService() (*streams.Service, error) {
	hc, err := c.pageClient()
	if err != nil {
		return nil, err
	}
	index, err := c.loadIndex(logx.WithComponent("catalog"))
	if err != nil {
		return nil, err
	}

	return &streams.Service{
		Metadata: metadata.NewResolver(metadata.IMDb{Client: hc}, c.config.MetadataCacheTTL, logx.WithComponent("metadata")),
		Index:    index,
		Client:   hc,
		Assembler: &streams.Assembler{
			Chain:    chain.New(hc, logx.WithComponent("chain")),
			Observer: streams.LogObserver{Log: logx.WithComponent("streams")},
			Limit:    c.config.Concurrency,
		},
		Log: logx.WithComponent("streams"),
	}, nil
}
