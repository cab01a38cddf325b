package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/aptekar/internal/api"
	"github.com/John-Robertt/aptekar/internal/domain"
	"github.com/John-Robertt/aptekar/internal/infra/metrics"
	"github.com/John-Robertt/aptekar/internal/source"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			svc, err := c.service(m, m)
			if err != nil {
				return err
			}
			router := api.NewRouter(svc, api.Options{
				Version:     c.cfg.Version,
				CORSOrigins: c.cfg.CORSOrigins,
				Metrics:     metrics.Handler(reg),
				Logger:      c.log,
				Debug:       c.cfg.Debug,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = c.log.WithContext(ctx)
			return api.Serve(ctx, c.cfg.Addr, router)
		},
	}
	cmd.Flags().String("addr", "", "监听地址（默认 :8000）")
	_ = c.v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func newSearchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "search <pharmacy-id> [term]",
		Short: "在一个药房中搜索（stdout 非 TTY 时只输出 JSON）",
		Long:  "药房编号：" + pharmacyList(),
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			term := ""
			if len(args) == 2 {
				term = args[1]
			}

			var obs source.Observer
			if isTTY(c.stderr) {
				obs = newProgressUI(c.stderr)
			}
			svc, err := c.service(obs, nil)
			if err != nil {
				return err
			}

			ctx := c.log.WithContext(cmd.Context())
			resp := svc.Search(ctx, id, term)
			emitSearch(c, resp)
			if !resp.OK() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}

func newItemCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "item <pharmacy-id> <ref>",
		Short: "解析商品详情页（ref 为 slug 或完整 URL）",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := c.service(nil, nil)
			if err != nil {
				return err
			}

			ctx := c.log.WithContext(cmd.Context())
			resp := svc.Resolve(ctx, id, args[1])
			emitItem(c, resp)
			if !resp.OK() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "输出服务状态与版本（与 GET / 相同）",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return json.NewEncoder(c.stdout).Encode(map[string]any{"status": "available", "version": c.cfg.Version})
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("药房编号必须是整数：%q", s)
	}
	return id, nil
}

func pharmacyList() string {
	parts := make([]string, 0, 6)
	for _, p := range domain.Pharmacies() {
		parts = append(parts, fmt.Sprintf("%d=%s", int(p), p))
	}
	return strings.Join(parts, " ")
}
