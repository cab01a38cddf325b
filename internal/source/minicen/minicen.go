package minicen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/aptekar/internal/domain"
	"github.com/John-Robertt/aptekar/internal/source"
)

const (
	defaultAPIURL = "https://api.minicen.ru"
	linkPrefix    = "https://minicen.ru/#!Tovar/"
	tradePoint    = "17798"
)

// Adapter 实现「Миницен」的搜索接口。
//
// 约束：
// - 单次请求（接口自身聚合结果，Page/PerPage 固定为 1）
// - Price 为 null 表示价格未知，不是错误
type Adapter struct {
	APIURL string
}

func (Adapter) ID() domain.PharmacyID { return domain.Minicen }

func (Adapter) Name() string { return "minicen" }

func (Adapter) Pagination() source.Pagination {
	return source.Pagination{Mode: source.Single, First: 1}
}

func (a Adapter) apiURL() string {
	if u := strings.TrimSpace(a.APIURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return defaultAPIURL
}

// NewRequest 忽略 page：该接口只请求一次。
func (a Adapter) NewRequest(ctx context.Context, term string, _ int) (*http.Request, error) {
	q := url.Values{}
	q.Set("idTradePoint", tradePoint)
	q.Set("Request", term)
	q.Set("SearchType", "2")
	q.Set("Sorting", "3")
	q.Set("Page", "1")
	q.Set("PerPage", "1")
	q.Set("dontUseMix", "0")
	q.Set("ApiVersion", "3")
	return http.NewRequestWithContext(ctx, http.MethodGet, a.apiURL()+"/search/main?"+q.Encode(), nil)
}

type response struct {
	Data *struct {
		Tovar *[]tovar `json:"tovar"`
	} `json:"Data"`
}

type tovar struct {
	IDRecord          source.ID     `json:"idRecord"`
	ImageOriginalPath *string       `json:"ImageOriginalPath"`
	TovarName         string        `json:"TovarName"`
	Price             source.Number `json:"Price"`
}

func (Adapter) ParsePage(body []byte) (source.Page, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return source.Page{}, &source.ParseError{Anchor: "json", Err: err}
	}
	if resp.Data == nil {
		return source.Page{}, &source.ParseError{Anchor: "Data"}
	}
	if resp.Data.Tovar == nil {
		return source.Page{}, &source.ParseError{Anchor: "Data.tovar"}
	}

	items := *resp.Data.Tovar
	page := source.Page{Items: len(items), Offers: make([]domain.Offer, 0, len(items))}
	for _, t := range items {
		if !t.IDRecord.Valid {
			return source.Page{}, &source.ParseError{Anchor: "Data.tovar[].idRecord"}
		}
		price := domain.UnknownPrice()
		if t.Price.Valid {
			p, err := source.ParsePrice("Price", t.Price.Raw)
			if err != nil {
				return source.Page{}, err
			}
			price = p
		}
		page.Offers = append(page.Offers, domain.Offer{
			ID:    t.IDRecord.Ptr(),
			Title: t.TovarName,
			Image: t.ImageOriginalPath,
			Price: price,
			Link:  linkPrefix + t.IDRecord.Value,
		})
	}
	return page, nil
}
