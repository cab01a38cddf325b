package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/John-Robertt/aptekar/internal/app/dispatch"
	"github.com/John-Robertt/aptekar/internal/config"
	"github.com/John-Robertt/aptekar/internal/infra/httpx"
	"github.com/John-Robertt/aptekar/internal/infra/logx"
	"github.com/John-Robertt/aptekar/internal/source"
)

// cli 持有一次进程运行的共享状态（配置、logger、输出流）。
type cli struct {
	stdout io.Writer
	stderr io.Writer

	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	log     zerolog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr, v: config.New()}

	root := &cobra.Command{
		Use:           "aptekar",
		Short:         "药房报价聚合：搜索六个药房站点并输出统一的 JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "配置文件路径（默认在当前目录查找 aptekar.yaml / aptekar.json）")
	pf.Bool("debug", false, "输出 debug 日志")
	pf.String("proxy", "", "抓取时使用的 HTTP 代理，例如 http://127.0.0.1:3128")
	pf.Duration("timeout", config.DefaultTimeout, "单次调用的总超时")
	_ = c.v.BindPFlag("debug", pf.Lookup("debug"))
	_ = c.v.BindPFlag("proxy_url", pf.Lookup("proxy"))
	_ = c.v.BindPFlag("timeout", pf.Lookup("timeout"))

	root.AddCommand(
		newServeCmd(c),
		newSearchCmd(c),
		newItemCmd(c),
		newVersionCmd(c),
	)
	return root
}

func (c *cli) init() error {
	cfg, err := config.Load(c.v, loadOptions(c.cfgFile))
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = logx.New(logx.Options{Debug: cfg.Debug, Console: isTTY(c.stderr), Out: c.stderr})
	return nil
}

// loadOptions：指定 --config 时在其所在目录查找 .env，否则用 cwd。
func loadOptions(cfgFile string) config.Options {
	opts := config.Options{File: cfgFile}
	if strings.TrimSpace(cfgFile) != "" {
		opts.Dir = filepath.Dir(cfgFile)
	}
	return opts
}

// service 用当前配置组装 dispatch；obs 可为 nil。
func (c *cli) service(obs source.Observer, req dispatch.RequestObserver) (*dispatch.Service, error) {
	reg, err := dispatch.DefaultRegistry()
	if err != nil {
		return nil, err
	}
	return &dispatch.Service{
		Registry:  reg,
		NewClient: httpx.Factory(httpx.Options{ProxyURL: c.cfg.ProxyURL, Timeout: c.cfg.Timeout}),
		Observer:  obs,
		Requests:  req,
	}, nil
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
