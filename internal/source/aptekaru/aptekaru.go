package aptekaru

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/aptekar/internal/domain"
	"github.com/John-Robertt/aptekar/internal/source"
)

const (
	defaultAPIURL  = "https://api.apteka.ru"
	defaultSiteURL = "https://apteka.ru"
	pageSize       = "50"

	// API 对非浏览器 UA 返回空结果，这里固定为 Safari。
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15 "
)

// Adapter 实现「Аптека.ру」的 JSON 搜索接口。
//
// 约束：
// - 页码从 0 开始；currentCount 为 0/null 即结束，缺失 currentCount 是解析错误
// - humanableUrl 为 null 的条目没有详情页，整条跳过（含变体）
// - 有 itemVariantsInfo 时每个变体展开为一条 Offer
type Adapter struct {
	APIURL  string
	SiteURL string
}

func (Adapter) ID() domain.PharmacyID { return domain.AptekaRu }

func (Adapter) Name() string { return "aptekaru" }

func (Adapter) Pagination() source.Pagination {
	return source.Pagination{Mode: source.Paged, First: 0}
}

func (a Adapter) apiURL() string { return orDefault(a.APIURL, defaultAPIURL) }

func (a Adapter) siteURL() string { return orDefault(a.SiteURL, defaultSiteURL) }

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return strings.TrimRight(s, "/")
}

func (a Adapter) NewRequest(ctx context.Context, term string, page int) (*http.Request, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", pageSize)
	q.Set("withprice", "true")
	q.Set("phrase", term)
	q.Set("sort", "byname")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiURL()+"/Search/ByPhrase?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

type response struct {
	// RawMessage 区分 key 缺失（nil）与显式 null。
	CurrentCount json.RawMessage `json:"currentCount"`
	Result       *[]item         `json:"result"`
}

type item struct {
	TradeName        string        `json:"tradeName"`
	HumanableURL     *string       `json:"humanableUrl"`
	NoDiscPrice      source.Number `json:"noDiscPrice"`
	Photos           []photo       `json:"photos"`
	ItemVariantsInfo []variant     `json:"itemVariantsInfo"`
	UniqueItemInfo   *uniqueItem   `json:"uniqueItemInfo"`
}

type photo struct {
	Original *string `json:"original"`
}

type variant struct {
	ID   source.ID `json:"id"`
	Name string    `json:"name"`
}

type uniqueItem struct {
	ID source.ID `json:"id"`
}

var emReplacer = strings.NewReplacer("<em>", "", "</em>", "")

func (a Adapter) ParsePage(body []byte) (source.Page, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return source.Page{}, &source.ParseError{Anchor: "json", Err: err}
	}
	if resp.CurrentCount == nil {
		return source.Page{}, &source.ParseError{Anchor: "currentCount"}
	}
	var count *float64
	if err := json.Unmarshal(resp.CurrentCount, &count); err != nil {
		return source.Page{}, &source.ParseError{Anchor: "currentCount", Err: err}
	}
	if count == nil || *count == 0 {
		return source.Page{Stop: true}, nil
	}
	if resp.Result == nil {
		return source.Page{}, &source.ParseError{Anchor: "result"}
	}

	items := *resp.Result
	page := source.Page{Items: len(items), Offers: make([]domain.Offer, 0, len(items))}
	for _, it := range items {
		if it.HumanableURL == nil {
			continue
		}
		if it.ItemVariantsInfo != nil && len(it.ItemVariantsInfo) == 0 {
			continue
		}

		base := domain.Offer{
			Title: emReplacer.Replace(it.TradeName),
			Link:  a.siteURL() + "/product/" + *it.HumanableURL,
		}
		price, err := it.NoDiscPrice.Price("noDiscPrice")
		if err != nil {
			return source.Page{}, err
		}
		base.Price = price
		if len(it.Photos) > 0 && it.Photos[0].Original != nil {
			base.Image = domain.Str(*it.Photos[0].Original)
		}

		if it.ItemVariantsInfo != nil {
			for _, v := range it.ItemVariantsInfo {
				o := base
				o.ID = v.ID.Ptr()
				o.Variant = domain.Str(v.Name)
				page.Offers = append(page.Offers, o)
			}
			continue
		}

		if it.UniqueItemInfo == nil {
			return source.Page{}, &source.ParseError{Anchor: "uniqueItemInfo"}
		}
		o := base
		o.ID = it.UniqueItemInfo.ID.Ptr()
		page.Offers = append(page.Offers, o)
	}
	return page, nil
}
