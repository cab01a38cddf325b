package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/John-Robertt/aptekar/internal/source"
)

var _ source.Observer = (*progressUI)(nil)

// progressUI 在交互终端上逐页输出抓取进度。
//
// 约束：
// - 只写 stderr（或调用方给的 writer），不污染 stdout 的 JSON 输出契约
// - 事件驱动：分页驱动只发事件，CLI 决定如何展示
type progressUI struct {
	w io.Writer

	mu     sync.Mutex
	pages  int
	offers int
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnPage(src string, page, offers int, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages++
	p.offers += offers
	fmt.Fprintf(p.w, "[%s] %s 第 %d 页：%d 条（%s，累计 %d）\n",
		time.Now().Format("15:04:05"), src, page, offers, dur.Round(time.Millisecond), p.offers)
}

func (p *progressUI) OnSearchDone(src string, offers, pages int, err error, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		fmt.Fprintf(p.w, "[%s] %s 失败（%s，已请求 %d 页）：%v\n",
			time.Now().Format("15:04:05"), src, source.KindOf(err), pages, err)
		return
	}
	fmt.Fprintf(p.w, "[%s] %s 完成：%d 条，%d 页，用时 %s\n",
		time.Now().Format("15:04:05"), src, offers, pages, dur.Round(time.Millisecond))
}
