package source

import (
	"context"
	"net/http"

	"github.com/John-Robertt/aptekar/internal/domain"
)

// Adapter 把“某个药房站点的协议细节”限制在各自子包内部；驱动只依赖这个接口。
//
// 约束：
// - NewRequest 只构造请求，不发起网络 IO（IO 由 Search 统一执行，便于测试与观测）
// - ParsePage 必须是纯函数：相同 body => 相同 Page
// - Adapter 本身是只读值，可被并发调用
type Adapter interface {
	ID() domain.PharmacyID
	Name() string
	Pagination() Pagination
	NewRequest(ctx context.Context, term string, page int) (*http.Request, error)
	ParsePage(body []byte) (Page, error)
}

// ItemResolver 由支持详情页解析的 Adapter 额外实现。
type ItemResolver interface {
	ResolveItem(ctx context.Context, ref string, c *http.Client) (domain.ItemDetail, error)
}

// Page 是单页解析结果。
type Page struct {
	Offers []domain.Offer
	// Items 是页面上的原始条目数（过滤/展开之前），0 表示结果已到尾页。
	Items int
	// Stop 表示源站显式给出了“没有更多结果”的信号（例如 currentCount=0 或 error 字段）。
	Stop bool
}

// PageBound 是页码游标的硬上界（不含）：无论源站是否给出结束信号，页码都不会到达该值。
const PageBound = 100

// Mode 描述一个源站的分页策略。
type Mode int

const (
	// Paged：从 First 开始逐页请求，直到空页/结束信号/PageBound。
	Paged Mode = iota
	// Single：只请求一页（源站自己聚合结果）。
	Single
)

type Pagination struct {
	Mode  Mode
	First int
}

// MaxFetches 返回该策略下单次搜索最多发出的请求数。
func (p Pagination) MaxFetches() int {
	if p.Mode == Single {
		return 1
	}
	if p.First >= PageBound {
		return 0
	}
	return PageBound - p.First
}
