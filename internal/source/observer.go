package source

import "time"

// Observer 把“每页抓取 / 每次搜索结束”的事件从驱动中解耦出来（指标、调试日志等）。
//
// 约束：实现必须并发安全，多个搜索可能同时进行。
type Observer interface {
	// OnPage 在一页成功解析后调用。
	OnPage(source string, page, offers int, dur time.Duration)
	// OnSearchDone 在一次搜索结束时调用；err 非 nil 表示整次搜索失败。
	OnSearchDone(source string, offers int, pages int, err error, dur time.Duration)
}

type nopObserver struct{}

func (nopObserver) OnPage(string, int, int, time.Duration) {}

func (nopObserver) OnSearchDone(string, int, int, error, time.Duration) {}
