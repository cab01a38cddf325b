package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Offer 是所有 source 统一输出的商品条目。
//
// 约束：
// - 可选字段用指针表示：nil = 源站未提供；非 nil 的 "" = 源站给了空值
// - Link 必须是绝对 URL
// - Price 要么是非负有限数，要么是显式的“未知”
type Offer struct {
	Title       string  `json:"title"`
	Image       *string `json:"image,omitempty"`
	Variant     *string `json:"variant,omitempty"`
	Price       Price   `json:"price"`
	Description *string `json:"description,omitempty"`
	Link        string  `json:"link"`
	ID          *string `json:"id,omitempty"`
}

// Price 区分“价格未知”与“价格为 0”。JSON 中未知价格输出为 null。
type Price struct {
	Value float64
	Known bool
}

// KnownPrice 构造一个已知价格；调用方负责保证 v 已通过校验（非负、有限）。
func KnownPrice(v float64) Price { return Price{Value: v, Known: true} }

// UnknownPrice 表示源站明确没有给出价格。
func UnknownPrice() Price { return Price{} }

// Valid 报告价格是否满足输出契约。
func (p Price) Valid() bool {
	if !p.Known {
		return true
	}
	return p.Value >= 0 && !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, p.Value, 'f', -1, 64), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = Price{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = KnownPrice(v)
	return nil
}

// Str 返回 s 的指针；用于填充可选字符串字段。
func Str(s string) *string { return &s }
