package gosapteka

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/aptekar/internal/domain"
	"github.com/John-Robertt/aptekar/internal/source"
)

const defaultBaseURL = "https://gosaptekavl.ru"

// sortCookie 让目录按名称升序返回；不带时结果顺序不稳定。
var sortCookie = &http.Cookie{Name: "ga-catalog-sort-search-name", Value: "au"}

// Adapter 实现「Госаптека」的目录搜索（HTML）。
//
// 约束：
// - 页码从 1 开始；页面上没有 div.el 即结束
// - 价格取 div.el-price 的 pr 属性，不解析可见文本
type Adapter struct {
	BaseURL string
}

func (Adapter) ID() domain.PharmacyID { return domain.Gosapteka }

func (Adapter) Name() string { return "gosapteka" }

func (Adapter) Pagination() source.Pagination {
	return source.Pagination{Mode: source.Paged, First: 1}
}

func (a Adapter) baseURL() string {
	if u := strings.TrimSpace(a.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return defaultBaseURL
}

func (a Adapter) NewRequest(ctx context.Context, term string, page int) (*http.Request, error) {
	q := url.Values{}
	q.Set("w", term)
	q.Set("page", strconv.Itoa(page))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL()+"/catalog/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.AddCookie(sortCookie)
	return req, nil
}

func (a Adapter) ParsePage(body []byte) (source.Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return source.Page{}, &source.ParseError{Anchor: "html", Err: err}
	}

	els := doc.Find("div.el")
	page := source.Page{Items: els.Length(), Offers: make([]domain.Offer, 0, els.Length())}
	var perr error
	els.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		o, err := a.parseEl(s)
		if err != nil {
			perr = err
			return false
		}
		page.Offers = append(page.Offers, o)
		return true
	})
	if perr != nil {
		return source.Page{}, perr
	}
	return page, nil
}

func (a Adapter) parseEl(s *goquery.Selection) (domain.Offer, error) {
	name := s.Find("div.el-name a").First()
	if name.Length() == 0 {
		return domain.Offer{}, &source.ParseError{Anchor: "div.el-name a"}
	}

	pr, ok := s.Find("div.el-price").First().Attr("pr")
	if !ok {
		return domain.Offer{}, &source.ParseError{Anchor: "div.el-price[pr]"}
	}
	price, err := source.ParsePrice("price", pr)
	if err != nil {
		return domain.Offer{}, err
	}

	// 第一个 <a> 是商品图：orig 为大图地址，href 为详情页。
	link := s.Find("a").First()
	href, ok := link.Attr("href")
	if !ok {
		return domain.Offer{}, &source.ParseError{Anchor: "div.el a[href]"}
	}

	o := domain.Offer{
		Title: name.Text(),
		Price: price,
		Link:  source.JoinURL(a.baseURL(), href),
	}
	if orig, ok := link.Attr("orig"); ok {
		o.Image = domain.Str(source.JoinURL(a.baseURL(), orig))
	}
	if footer := s.Find("div.el-footer").First(); footer.Length() > 0 {
		o.Description = domain.Str(footer.Text())
	}
	return o, nil
}
