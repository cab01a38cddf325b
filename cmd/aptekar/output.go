package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/John-Robertt/aptekar/internal/domain"
)

// emitSearch 输出搜索结果。
//
// 约束：stdout 非 TTY 时 stdout 必须且仅输出一个 JSON 信封（摘要走 stderr）。
func emitSearch(c *cli, resp domain.SearchResponse) {
	if !isTTY(c.stdout) {
		_ = json.NewEncoder(c.stdout).Encode(resp)
		if resp.OK() {
			fmt.Fprintf(c.stderr, "完成：offers=%d\n", len(resp.Offers))
		} else {
			fmt.Fprintf(c.stderr, "失败（%s）：%s\n", resp.Kind, resp.Description)
		}
		return
	}

	if !resp.OK() {
		fmt.Fprintf(c.stderr, "失败（%s）：%s\n", resp.Kind, resp.Description)
		return
	}
	for _, o := range resp.Offers {
		title := o.Title
		if o.Variant != nil && *o.Variant != "" {
			title += " [" + *o.Variant + "]"
		}
		fmt.Fprintf(c.stdout, "%-10s %s\n           %s\n", formatPrice(o.Price), truncate(title, 100), o.Link)
	}
	fmt.Fprintf(c.stdout, "完成：offers=%d\n", len(resp.Offers))
}

func emitItem(c *cli, resp domain.ItemResponse) {
	if !isTTY(c.stdout) {
		_ = json.NewEncoder(c.stdout).Encode(resp)
		if !resp.OK() {
			fmt.Fprintf(c.stderr, "失败（%s）：%s\n", resp.Kind, resp.Description)
		}
		return
	}

	if !resp.OK() {
		fmt.Fprintf(c.stderr, "失败（%s）：%s\n", resp.Kind, resp.Description)
		return
	}
	it := resp.Item
	fmt.Fprintf(c.stdout, "%s\n  价格：%s\n  链接：%s\n", it.Title, formatPrice(it.Price), it.Link)
	if it.Description != nil && *it.Description != "" {
		fmt.Fprintf(c.stdout, "  描述：%s\n", truncate(*it.Description, 200))
	}
	for _, k := range it.Additions.Keys() {
		v, _ := it.Additions.Get(k)
		fmt.Fprintf(c.stdout, "  %s：%s\n", k, v)
	}
}

func formatPrice(p domain.Price) string {
	if !p.Known {
		return "—"
	}
	return strconv.FormatFloat(p.Value, 'f', 2, 64)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
