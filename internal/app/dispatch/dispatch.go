// Package dispatch 是对外边界：按药房编号选择 adapter，执行一次搜索或详情解析，
// 并把结果或错误转换为对外的响应信封。
package dispatch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/aptekar/internal/domain"
	"github.com/John-Robertt/aptekar/internal/infra/logx"
	"github.com/John-Robertt/aptekar/internal/source"
	"github.com/John-Robertt/aptekar/internal/source/apteka25"
	"github.com/John-Robertt/aptekar/internal/source/aptekaru"
	"github.com/John-Robertt/aptekar/internal/source/gosapteka"
	"github.com/John-Robertt/aptekar/internal/source/minicen"
	"github.com/John-Robertt/aptekar/internal/source/monastirev"
	"github.com/John-Robertt/aptekar/internal/source/ovita"
)

const (
	OpSearch = "search"
	OpItem   = "item"
)

// RequestObserver 接收每次 dispatch 调用的结果（指标用）。实现必须并发安全。
type RequestObserver interface {
	ObserveRequest(op, pharmacy string, err error)
}

// Service 持有只读的注册表与 client 工厂，可被多个请求并发使用。
//
// 约束：
// - 未知药房编号直接返回错误信封，不创建 client、不发请求
// - 其余每次调用都新建 client，并在所有返回路径上释放空闲连接
// - 不会 panic 到调用方：所有错误都变成 status=error
type Service struct {
	Registry  source.Registry
	NewClient func() (*http.Client, error)
	Observer  source.Observer
	Requests  RequestObserver
}

// DefaultRegistry 注册全部六个药房（生产 origin）。
func DefaultRegistry() (source.Registry, error) {
	return source.NewRegistry(
		monastirev.Adapter{},
		aptekaru.Adapter{},
		apteka25.Adapter{},
		minicen.Adapter{},
		gosapteka.Adapter{},
		ovita.Adapter{},
	)
}

// Search 执行一次列表搜索。term 原样作为查询参数发送（缺省为空串）。
func (s *Service) Search(ctx context.Context, id int, term string) domain.SearchResponse {
	started := time.Now()
	log := logx.From(ctx).With().Str("op", OpSearch).Int("pharmacy_id", id).Logger()

	offers, name, err := s.search(ctx, id, term)
	s.finish(log, OpSearch, name, len(offers), err, time.Since(started))
	if err != nil {
		return domain.SearchResponse{Status: domain.StatusError, Description: err.Error(), Kind: string(source.KindOf(err))}
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	return domain.SearchResponse{Status: domain.StatusOK, Offers: offers}
}

func (s *Service) search(ctx context.Context, id int, term string) ([]domain.Offer, string, error) {
	pid, ok := domain.ParsePharmacyID(id)
	if !ok {
		return nil, "", source.ErrUnknownPharmacy
	}
	a, ok := s.Registry.Get(pid)
	if !ok {
		return nil, "", source.ErrUnknownPharmacy
	}

	c, err := s.client()
	if err != nil {
		return nil, a.Name(), err
	}
	defer c.CloseIdleConnections()

	offers, err := source.Search(ctx, a, term, c, s.Observer)
	return offers, a.Name(), err
}

// Resolve 解析一个商品详情页。只有实现了 source.ItemResolver 的药房支持。
func (s *Service) Resolve(ctx context.Context, id int, ref string) domain.ItemResponse {
	started := time.Now()
	log := logx.From(ctx).With().Str("op", OpItem).Int("pharmacy_id", id).Logger()

	item, name, err := s.resolve(ctx, id, ref)
	n := 0
	if err == nil {
		n = 1
	}
	s.finish(log, OpItem, name, n, err, time.Since(started))
	if err != nil {
		return domain.ItemResponse{Status: domain.StatusError, Description: err.Error(), Kind: string(source.KindOf(err))}
	}
	return domain.ItemResponse{Status: domain.StatusOK, Item: &item}
}

func (s *Service) resolve(ctx context.Context, id int, ref string) (domain.ItemDetail, string, error) {
	pid, ok := domain.ParsePharmacyID(id)
	if !ok {
		return domain.ItemDetail{}, "", source.ErrUnknownPharmacy
	}
	r, ok := s.Registry.Resolver(pid)
	if !ok {
		return domain.ItemDetail{}, pid.String(), source.ErrUnknownPharmacy
	}

	c, err := s.client()
	if err != nil {
		return domain.ItemDetail{}, pid.String(), err
	}
	defer c.CloseIdleConnections()

	item, err := r.ResolveItem(ctx, ref, c)
	return item, pid.String(), err
}

func (s *Service) client() (*http.Client, error) {
	if s.NewClient == nil {
		return nil, errors.New("dispatch: 未配置 http client 工厂")
	}
	c, err := s.NewClient()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.New("dispatch: http client 工厂返回 nil")
	}
	return c, nil
}

func (s *Service) finish(log zerolog.Logger, op, name string, n int, err error, dur time.Duration) {
	label := name
	if label == "" {
		label = "unknown"
	}
	if s.Requests != nil {
		s.Requests.ObserveRequest(op, label, err)
	}

	if err != nil {
		log.Warn().Err(err).Str("pharmacy", label).Str("kind", string(source.KindOf(err))).Dur("dur", dur).Msg("dispatch 失败")
		return
	}
	log.Info().Str("pharmacy", label).Int("results", n).Dur("dur", dur).Msg("dispatch 完成")
}
