package gosapteka

import (
	"context"
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

func TestSearch_CookieAndFields(t *testing.T) {
	page1 := readFixture(t, "page1.html")
	empty := readFixture(t, "empty.html")

	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("ga-catalog-sort-search-name")
		if err != nil || c.Value != "au" {
			t.Errorf("缺少排序 cookie：%v", err)
		}
		if r.URL.Path != "/catalog/" || r.URL.Query().Get("w") != "аспирин" {
			t.Errorf("请求不符合预期：%s", r.URL.String())
		}
		p := r.URL.Query().Get("page")
		pages = append(pages, p)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if p == "1" {
			_, _ = w.Write(page1)
			return
		}
		_, _ = w.Write(empty)
	}))
	defer srv.Close()

	offers, err := source.Search(context.Background(), Adapter{BaseURL: srv.URL}, "аспирин", srv.Client(), nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(pages) != 2 || pages[0] != "1" || pages[1] != "2" {
		t.Fatalf("页码序列错误：%v", pages)
	}
	if len(offers) != 2 {
		t.Fatalf("期望 2 条 offer，实际 %d", len(offers))
	}

	o := offers[0]
	if o.Title != "Аспирин таб. 500мг №10" || o.Price.Value != 215.5 {
		t.Fatalf("字段错误：%+v", o)
	}
	if o.Link != srv.URL+"/catalog/item/1001/" {
		t.Fatalf("link 错误：%q", o.Link)
	}
	if o.Image == nil || *o.Image != srv.URL+"/upload/img/1001.jpg" {
		t.Fatalf("image 错误：%v", o.Image)
	}
	if o.Description == nil || *o.Description != "Байер" {
		t.Fatalf("description 应来自 div.el-footer：%v", o.Description)
	}

	if offers[1].Image != nil || offers[1].Description != nil {
		t.Fatalf("缺失的可选字段应为 nil：%+v", offers[1])
	}
}

func TestParsePage_MissingPriceAttrIsParseError(t *testing.T) {
	html := `<div class="el"><a href="/x/"></a><div class="el-name"><a>x</a></div><div class="el-price">10 ₽</div></div>`
	_, err := Adapter{}.ParsePage([]byte(html))
	if source.KindOf(err) != source.KindParse {
		t.Fatalf("期望 parse，实际 %v", err)
	}
}

func TestParsePage_BadPriceIsCoercionError(t *testing.T) {
	html := `<div class="el"><a href="/x/"></a><div class="el-name"><a>x</a></div><div class="el-price" pr="10,5"></div></div>`
	_, err := Adapter{}.ParsePage([]byte(html))
	if source.KindOf(err) != source.KindCoercion {
		t.Fatalf("期望 coercion，实际 %v", err)
	}
}

func TestNewRequest_DefaultOrigin(t *testing.T) {
	req, err := Adapter{}.NewRequest(context.Background(), "x", 4)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if req.URL.Host != "gosaptekavl.ru" || req.URL.Query().Get("page") != "4" {
		t.Fatalf("请求 URL 错误：%s", req.URL.String())
	}
}

func TestSearch_EmptyFirstPageReturnsEmpty(t *testing.T) {
	empty := readFixture(t, "empty.html")
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
