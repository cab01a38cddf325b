package ovita

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

const (
	defaultBaseURL = "https://ovita.ru"
	perPage        = "120"
	sortBy         = "nameup"
)

// Adapter 实现「Овита」的站内搜索（HTML）。
//
// 约束：
// - 页码从 1 开始；没有 div.product 即结束
// - 价格文本中的空格是千位分隔符，解析前去掉
type Adapter struct {
	BaseURL string
}

func (Adapter) ID() domain.PharmacyID { return domain.Ovita }

func (Adapter) Name() string { return "ovita" }

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
	q.Set("word", term)
	q.Set("count", perPage)
	q.Set("page", strconv.Itoa(page))
	q.Set("sort", sortBy)
	return http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL()+"/search/?"+q.Encode(), nil)
}

func (a Adapter) ParsePage(body []byte) (source.Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return source.Page{}, &source.ParseError{Anchor: "html", Err: err}
	}

	products := doc.Find("div.product")
	page := source.Page{Items: products.Length(), Offers: make([]domain.Offer, 0, products.Length())}
	var perr error
	products.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		o, err := a.parseProduct(s)
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

func (a Adapter) parseProduct(s *goquery.Selection) (domain.Offer, error) {
	img, ok := s.Find(`meta[itemprop="image"]`).First().Attr("content")
	if !ok {
		return domain.Offer{}, &source.ParseError{Anchor: `meta[itemprop="image"][content]`}
	}

	name := s.Find("div.product-description-name a").First()
	if name.Length() == 0 {
		return domain.Offer{}, &source.ParseError{Anchor: "div.product-description-name a"}
	}
	href, ok := name.Attr("href")
	if !ok {
		return domain.Offer{}, &source.ParseError{Anchor: "div.product-description-name a[href]"}
	}

	desc := s.Find("div.product-description-text").First()
	if desc.Length() == 0 {
		return domain.Offer{}, &source.ParseError{Anchor: "div.product-description-text"}
	}

	priceSel := s.Find("div.product-price-number").First()
	if priceSel.Length() == 0 {
		return domain.Offer{}, &source.ParseError{Anchor: "div.product-price-number"}
	}
	price, err := source.ParsePrice("price", strings.ReplaceAll(priceSel.Text(), " ", ""))
	if err != nil {
		return domain.Offer{}, err
	}

	return domain.Offer{
		Title:       name.Text(),
		Image:       domain.Str(source.JoinURL(a.baseURL(), img)),
		Description: domain.Str(desc.Text()),
		Price:       price,
		Link:        source.JoinURL(a.baseURL(), href),
	}, nil
}
