package source

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/aptekar/internal/domain"
)

// Registry 是 adapter 的只读注册表（按药房编号索引）。
// 药房数量极小，用 map 保持简单即可。
type Registry struct {
	byID map[domain.PharmacyID]Adapter
}

func NewRegistry(adapters ...Adapter) (Registry, error) {
	byID := make(map[domain.PharmacyID]Adapter, len(adapters))
	for _, a := range adapters {
		if a == nil {
			return Registry{}, fmt.Errorf("adapter 不能为空")
		}
		if strings.TrimSpace(a.Name()) == "" {
			return Registry{}, fmt.Errorf("adapter.Name 不能为空")
		}
		id, ok := domain.ParsePharmacyID(int(a.ID()))
		if !ok {
			return Registry{}, fmt.Errorf("adapter %q 的药房编号非法：%d", a.Name(), int(a.ID()))
		}
		if prev, ok := byID[id]; ok {
			return Registry{}, fmt.Errorf("重复的药房编号 %d：%q 与 %q", int(id), prev.Name(), a.Name())
		}
		byID[id] = a
	}
	return Registry{byID: byID}, nil
}

func (r Registry) Get(id domain.PharmacyID) (Adapter, bool) {
	if r.byID == nil {
		return nil, false
	}
	a, ok := r.byID[id]
	return a, ok
}

// Resolver 返回支持详情解析的 adapter；未注册或未实现 ItemResolver 时 ok=false。
func (r Registry) Resolver(id domain.PharmacyID) (ItemResolver, bool) {
	a, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	ir, ok := a.(ItemResolver)
	return ir, ok
}

func (r Registry) Len() int { return len(r.byID) }
