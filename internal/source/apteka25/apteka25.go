package apteka25

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"

	"github.com/John-Robertt/aptekar/internal/domain"
	"github.com/John-Robertt/aptekar/internal/source"
)

// siteURL 是对外链接使用的 origin（保留西里尔域名，与源站链接逐字一致）。
const siteURL = "https://аптека25.рф"

// Adapter 实现「Аптека25.рф」的 JSON 接口。
//
// 约束：
// - 页码从 1 开始；响应体出现 error 字段即结束
// - 每个商品取 offers[0]（该接口按“商品 -> 报价列表”组织）
// - 请求 host 用 punycode，链接保留 Unicode 形式
type Adapter struct {
	// APIURL 覆盖接口 origin（测试用）；为空时使用 siteURL 的 punycode 形式。
	APIURL string
}

func (Adapter) ID() domain.PharmacyID { return domain.Apteka25 }

func (Adapter) Name() string { return "apteka25" }

func (Adapter) Pagination() source.Pagination {
	return source.Pagination{Mode: source.Paged, First: 1}
}

func (a Adapter) apiURL() (string, error) {
	if u := strings.TrimSpace(a.APIURL); u != "" {
		return strings.TrimRight(u, "/"), nil
	}
	return asciiOrigin(siteURL)
}

// asciiOrigin 把 IDN origin 转为 ASCII（xn--...），避免依赖 net/http 内部的隐式转换。
func asciiOrigin(origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", err
	}
	host, err := idna.Lookup.ToASCII(u.Hostname())
	if err != nil {
		return "", fmt.Errorf("域名转换失败 %q：%w", u.Hostname(), err)
	}
	if p := u.Port(); p != "" {
		host += ":" + p
	}
	return u.Scheme + "://" + host, nil
}

func (a Adapter) NewRequest(ctx context.Context, term string, page int) (*http.Request, error) {
	base, err := a.apiURL()
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("allow_suggested_products", "false")
	q.Set("order_by", "alphabetically")
	q.Set("page", strconv.Itoa(page))
	q.Set("format", "json")
	q.Set("city", "1")
	q.Set("query", term)
	return http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/v1/products/short?"+q.Encode(), nil)
}

type response struct {
	Error   json.RawMessage `json:"error"`
	Results *[]product      `json:"results"`
}

type product struct {
	Name   string  `json:"name"`
	Offers []offer `json:"offers"`
}

type offer struct {
	Code  string        `json:"code"`
	Image *string       `json:"image"`
	Price source.Number `json:"price"`
}

func (Adapter) ParsePage(body []byte) (source.Page, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return source.Page{}, &source.ParseError{Anchor: "json", Err: err}
	}
	// 只要 key 存在（哪怕值为 null）就视为结束信号。
	if resp.Error != nil {
		return source.Page{Stop: true}, nil
	}

	if resp.Results == nil {
		return source.Page{}, &source.ParseError{Anchor: "results"}
	}

	results := *resp.Results
	page := source.Page{Items: len(results), Offers: make([]domain.Offer, 0, len(results))}
	for _, p := range results {
		if len(p.Offers) == 0 {
			return source.Page{}, &source.ParseError{Anchor: "results[].offers[0]"}
		}
		first := p.Offers[0]
		price, err := first.Price.Price("price")
		if err != nil {
			return source.Page{}, err
		}
		page.Offers = append(page.Offers, domain.Offer{
			ID:    domain.Str(first.Code),
			Title: p.Name,
			Image: first.Image,
			Price: price,
			Link:  siteURL + "/product/" + first.Code,
		})
	}
	return page, nil
}
