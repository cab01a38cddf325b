package monastirev

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/aptekar/internal/source"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("读取 fixture 失败：%v", err)
	}
	return b
}

func TestSearch_PaginatesUntilEmptyListing(t *testing.T) {
	page1 := readFixture(t, "search_page1.html")
	empty := readFixture(t, "search_empty.html")

	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/search" || q.Get("term") != "парацетамол" || q.Get("perPage") != "100" || q.Get("sortBy") != "name-asc" {
			t.Errorf("请求不符合预期：%s", r.URL.String())
		}
		pages = append(pages, q.Get("page"))
		if q.Get("page") == "1" {
			_, _ = w.Write(page1)
			return
		}
		_, _ = w.Write(empty)
	}))
	defer srv.Close()

	a := Adapter{BaseURL: srv.URL}
	offers, err := source.Search(context.Background(), a, "парацетамол", srv.Client(), nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(pages) != 2 || pages[0] != "1" || pages[1] != "2" {
		t.Fatalf("页码序列不符合预期：%v", pages)
	}
	if len(offers) != 2 {
		t.Fatalf("期望 2 条 offer，实际 %d", len(offers))
	}

	o := offers[0]
	if o.Title != "Парацетамол таб. 500мг №20" {
		t.Fatalf("title 未去除首尾空白：%q", o.Title)
	}
	if o.Price.Value != 45.5 || !o.Price.Known {
		t.Fatalf("price 解析错误：%+v", o.Price)
	}
	if o.Link != srv.URL+"/offer/vladivostok/paracetamol-500-20" {
		t.Fatalf("link 拼接错误：%q", o.Link)
	}
	if o.Image == nil || *o.Image != "https://cdn.monastirev.ru/img/1.jpg" {
		t.Fatalf("image 错误：%v", o.Image)
	}
	if o.Variant == nil || *o.Variant != "таблетки" {
		t.Fatalf("variant 错误：%v", o.Variant)
	}
	if o.Description == nil || *o.Description != "Фармстандарт, Россия" {
		t.Fatalf("description 错误：%v", o.Description)
	}
	if o.ID != nil {
		t.Fatalf("monastirev 不提供 id")
	}

	o2 := offers[1]
	if o2.Image != nil || o2.Variant != nil || o2.Description != nil {
		t.Fatalf("缺失字段应为 nil：%+v", o2)
	}
	if o2.Price.Value != 1200 {
		t.Fatalf("price 错误：%+v", o2.Price)
	}
}

func TestParsePage_DefaultOriginLinks(t *testing.T) {
	p, err := Adapter{}.ParsePage(readFixture(t, "search_page1.html"))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if p.Items != 2 || p.Offers[1].Link != "https://monastirev.ru/offer/vladivostok/paracetamol-syrup" {
		t.Fatalf("默认 origin 拼接错误：%+v", p.Offers[1])
	}
}

func TestParsePage_MissingListingIsParseError(t *testing.T) {
	_, err := Adapter{}.ParsePage([]byte("<html><body><div class=\"other\"></div></body></html>"))
	var pe *source.ParseError
	if !errors.As(err, &pe) || pe.Anchor != "div.listing" {
		t.Fatalf("期望 div.listing 的 ParseError，实际 %v", err)
	}
}

func TestParsePage_CommaPriceIsCoercionError(t *testing.T) {
	_, err := Adapter{}.ParsePage(readFixture(t, "search_bad_price.html"))
	if source.KindOf(err) != source.KindCoercion {
		t.Fatalf("期望 coercion，实际 %v", err)
	}
}

func TestItemURL(t *testing.T) {
	a := Adapter{}
	if got := a.ItemURL("paracetamol-500-20"); got != "https://monastirev.ru/offer/vladivostok/paracetamol-500-20" {
		t.Fatalf("slug 拼接错误：%q", got)
	}
	full := "https://monastirev.ru/offer/khabarovsk/x-1"
	if got := a.ItemURL(full); got != full {
		t.Fatalf("完整 URL 不应改写：%q", got)
	}
}

func TestResolveItem_BareSlugUsesTemplate(t *testing.T) {
	item := readFixture(t, "item.html")
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write(item)
	}))
	defer srv.Close()

	a := Adapter{BaseURL: srv.URL}
	d, err := a.ResolveItem(context.Background(), "paracetamol-500-20", srv.Client())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if gotPath != "/offer/vladivostok/paracetamol-500-20" {
		t.Fatalf("请求路径不符合模板：%q", gotPath)
	}
	if d.Link != srv.URL+"/offer/vladivostok/paracetamol-500-20" {
		t.Fatalf("link 应为模板 URL：%q", d.Link)
	}
	if d.Title != "Парацетамол таб. 500мг №20" {
		t.Fatalf("title 错误：%q", d.Title)
	}
	if d.Price.Value != 45.5 {
		t.Fatalf("price 错误：%+v", d.Price)
	}
	if d.Image == nil || *d.Image != "https://cdn.monastirev.ru/img/1-big.jpg" {
		t.Fatalf("image 错误：%v", d.Image)
	}
	keys := d.Additions.Keys()
	if len(keys) != 2 || keys[0] != "Действующее вещество" || keys[1] != "Форма выпуска" {
		t.Fatalf("additions 顺序错误：%v", keys)
	}
	if v, _ := d.Additions.Get("Действующее вещество"); v != "Paracetamol" {
		t.Fatalf("重复 label 应覆盖为最后一次：%q", v)
	}
}

func TestResolveItem_FullURLUsedAsIs(t *testing.T) {
	item := readFixture(t, "item.html")
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write(item)
	}))
	defer srv.Close()

	a := Adapter{BaseURL: srv.URL}
	if _, err := a.ResolveItem(context.Background(), srv.URL+"/offer/khabarovsk/x-1", srv.Client()); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if gotPath != "/offer/khabarovsk/x-1" {
		t.Fatalf("完整 URL 不应改写：%q", gotPath)
	}
}

func TestParseItem_MissingAnchorIsNotFound(t *testing.T) {
	_, err := ParseItem(readFixture(t, "item_missing.html"), "https://monastirev.ru/offer/vladivostok/nope")
	if source.KindOf(err) != source.KindNotFound {
		t.Fatalf("期望 not_found，实际 %v", err)
	}
}

func TestSearch_EmptyFirstPageReturnsEmpty(t *testing.T) {
	empty := readFixture(t, "search_empty.html")
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write(empty)
	}))
	defer srv.Close()

	offers, err := source.Search(context.Background(), Adapter{BaseURL: srv.URL}, "нет-такого", srv.Client(), nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if offers == nil || len(offers) != 0 {
		t.Fatalf("期望非 nil 的空结果，实际 %#v", offers)
	}
	if calls != 1 {
		t.Fatalf("首页为空时只应请求 1 次，实际 %d", calls)
	}
}

func TestResolveItem_NotFoundStatusPageIsNotFound(t *testing.T) {
	missing := readFixture(t, "item_missing.html")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write(missing)
	}))
	defer srv.Close()

	_, err := Adapter{BaseURL: srv.URL}.ResolveItem(context.Background(), "nope", srv.Client())
	if source.KindOf(err) != source.KindNotFound {
		t.Fatalf("404 的下架页面应为 not_found，实际 %v", err)
	}
}
