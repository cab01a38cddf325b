package source

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/John-Robertt/aptekar/internal/domain"
)

// Search 按 adapter 的分页策略顺序抓取并解析，返回源站原始顺序的 Offer 列表。
//
// 约束：
// - 页与页严格串行（结果顺序依赖分页顺序）
// - 不重试、不降级：任何一页失败都会丢弃已累积的结果并返回 *Error
// - 空页 / 显式结束信号不是错误，返回已累积的结果
// - 页码不会到达 PageBound，保证对异常源站也能终止
func Search(ctx context.Context, a Adapter, term string, c *http.Client, obs Observer) ([]domain.Offer, error) {
	if a == nil {
		return nil, errors.New("adapter 不能为空")
	}
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	if obs == nil {
		obs = nopObserver{}
	}

	started := time.Now()
	name := a.Name()
	pol := a.Pagination()

	out := make([]domain.Offer, 0, 64)
	fetched := 0
	page := pol.First
	for fetched < pol.MaxFetches() {
		pageStarted := time.Now()
		p, err := fetchPage(ctx, a, term, page, c)
		fetched++
		if err != nil {
			err = &Error{Source: name, Page: page, Err: err}
			obs.OnSearchDone(name, 0, fetched, err, time.Since(started))
			return nil, err
		}
		obs.OnPage(name, page, len(p.Offers), time.Since(pageStarted))

		if p.Stop || p.Items == 0 {
			break
		}
		out = append(out, p.Offers...)
		if pol.Mode == Single {
			break
		}
		page++
	}

	obs.OnSearchDone(name, len(out), fetched, nil, time.Since(started))
	return out, nil
}

func fetchPage(ctx context.Context, a Adapter, term string, page int, c *http.Client) (Page, error) {
	req, err := a.NewRequest(ctx, term, page)
	if err != nil {
		return Page{}, err
	}
	body, statusErr := Fetch(c, req)
	if body == nil && statusErr != nil {
		return Page{}, statusErr
	}
	p, err := a.ParsePage(body)
	if err = Decide(statusErr, err); err != nil {
		return Page{}, err
	}
	for i := range p.Offers {
		if !p.Offers[i].Price.Valid() {
			return Page{}, &CoercionError{Field: "price", Value: "invalid"}
		}
	}
	return p, nil
}
