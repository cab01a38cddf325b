package monastirev

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/aptekar/internal/domain"
	"github.com/John-Robertt/aptekar/internal/source"
)

const (
	defaultBaseURL = "https://monastirev.ru"
	perPage        = "100"
	sortBy         = "name-asc"
)

// Adapter 实现「Монастырёв」的列表搜索与详情解析（HTML）。
//
// 约束：
// - 页码从 1 开始；列表容器 div.listing 缺失视为站点改版（ParseError）
// - 链接 = origin + 相对 href（逐字拼接）
type Adapter struct {
	// BaseURL 为空时使用 https://monastirev.ru；测试时指向本地服务。
	BaseURL string
}

func (Adapter) ID() domain.PharmacyID { return domain.Monastirev }

func (Adapter) Name() string { return "monastirev" }

func (Adapter) Pagination() source.Pagination {
	return source.Pagination{Mode: source.Paged, First: 1}
}

func (a Adapter) baseURL() string {
	u := strings.TrimSpace(a.BaseURL)
	if u == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

// NewRequest: GET /search?term=<term>&page=<n>&perPage=100&sortBy=name-asc
func (a Adapter) NewRequest(ctx context.Context, term string, page int) (*http.Request, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", perPage)
	q.Set("sortBy", sortBy)
	return http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL()+"/search?"+q.Encode(), nil)
}

func (a Adapter) ParsePage(body []byte) (source.Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return source.Page{}, &source.ParseError{Anchor: "html", Err: err}
	}

	listing := doc.Find("div.listing").First()
	if listing.Length() == 0 {
		return source.Page{}, &source.ParseError{Anchor: "div.listing"}
	}

	units := listing.Find("div.js-assortment-unit-show")
	page := source.Page{Items: units.Length(), Offers: make([]domain.Offer, 0, units.Length())}

	var perr error
	units.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		o, err := a.parseUnit(s)
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

func (a Adapter) parseUnit(s *goquery.Selection) (domain.Offer, error) {
	name, ok := s.Attr("data-name")
	if !ok {
		return domain.Offer{}, &source.ParseError{Anchor: "div.js-assortment-unit-show[data-name]"}
	}

	priceSel := s.Find("div.offer__price-current").First()
	if priceSel.Length() == 0 {
		return domain.Offer{}, &source.ParseError{Anchor: "div.offer__price-current"}
	}
	// 价格节点形如 "123.50\n₽"：只取第一行。
	priceText := strings.TrimSpace(priceSel.Text())
	price, err := source.ParsePrice("price", strings.Split(priceText, "\n")[0])
	if err != nil {
		return domain.Offer{}, err
	}

	href, ok := s.Find("a.offer__link").First().Attr("href")
	if !ok {
		return domain.Offer{}, &source.ParseError{Anchor: "a.offer__link[href]"}
	}

	o := domain.Offer{
		Title: strings.TrimSpace(name),
		Price: price,
		Link:  source.JoinURL(a.baseURL(), href),
	}
	if img, ok := s.Attr("data-image-url"); ok {
		o.Image = domain.Str(img)
	}
	if v, ok := s.Attr("data-variant"); ok {
		o.Variant = domain.Str(v)
	}
	if d := s.Find("div.offer__description").First(); d.Length() > 0 {
		o.Description = domain.Str(strings.TrimSpace(d.Text()))
	}
	return o, nil
}

// ItemURL 把 ref 规范化为详情页 URL：已包含站点域名的原样使用，否则视为 slug 拼到固定模板上。
func (a Adapter) ItemURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.Contains(ref, siteHost(a.baseURL())) {
		return ref
	}
	return a.baseURL() + "/offer/vladivostok/" + ref
}

func siteHost(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "monastirev.ru"
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// ResolveItem 抓取并解析商品详情页。
func (a Adapter) ResolveItem(ctx context.Context, ref string, c *http.Client) (domain.ItemDetail, error) {
	if strings.TrimSpace(ref) == "" {
		return domain.ItemDetail{}, errors.New("item 不能为空")
	}
	pageURL := a.ItemURL(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.ItemDetail{}, &source.TransportError{URL: pageURL, Err: err}
	}
	body, statusErr := source.Fetch(c, req)
	if body == nil && statusErr != nil {
		return domain.ItemDetail{}, statusErr
	}
	// 下架商品常以 404 页面返回：仍按页面内容判定 not_found。
	d, err := ParseItem(body, pageURL)
	if err = source.Decide(statusErr, err); err != nil {
		return domain.ItemDetail{}, err
	}
	return d, nil
}

// ParseItem 是详情页的纯解析部分（便于用 fixture 测试）。
func ParseItem(body []byte, pageURL string) (domain.ItemDetail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.ItemDetail{}, &source.ParseError{Anchor: "html", Err: err}
	}

	// 先校验“是不是商品详情页”：没有商品名就当作不存在。
	h1 := doc.Find("h1.product-page__name").First()
	if h1.Length() == 0 {
		return domain.ItemDetail{}, &source.NotFoundError{URL: pageURL}
	}

	item := domain.ItemDetail{
		Title: h1.Text(),
		Link:  pageURL,
		Price: domain.UnknownPrice(),
	}
	if href, ok := doc.Find("a.magnifier-hover-image").First().Attr("href"); ok {
		item.Image = domain.Str(href)
	}
	if d := doc.Find("div.product-page__name-description").First(); d.Length() > 0 {
		item.Description = domain.Str(d.Text())
	}
	if p := doc.Find("div.offer__price-current").First(); p.Length() > 0 {
		price, err := source.ParsePrice("price", p.Text())
		if err != nil {
			return domain.ItemDetail{}, err
		}
		item.Price = price
	}

	// 属性表：class 必须精确等于 "grid__col-tablet-4 grid__col-12"（与源站标记一致，不做 token 匹配）。
	doc.Find(`div[class="grid__col-tablet-4 grid__col-12"]`).Each(func(_ int, s *goquery.Selection) {
		title := s.Find("div.product-page__description-title").First()
		if title.Length() == 0 {
			return
		}
		value := s.Find("div.product-page__description-value").First()
		item.Additions.Set(title.Text(), strings.TrimSpace(value.Text()))
	})
	return item, nil
}
