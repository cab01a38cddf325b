package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/John-Robertt/aptekar/internal/domain"
)

// ParsePrice 把源站价格文本转换为已知价格。
//
// 约束：
// - 只接受小数点（不接受逗号小数）；各源站自己的清洗（去换行 / 去空格）在调用前完成
// - 负数 / NaN / Inf 一律视为转换失败
func ParsePrice(field, s string) (domain.Price, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Price{}, &CoercionError{Field: field, Value: raw, Err: errors.New("空字符串")}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Price{}, &CoercionError{Field: field, Value: raw, Err: err}
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.Price{}, &CoercionError{Field: field, Value: raw, Err: errors.New("价格必须是非负有限数")}
	}
	return domain.KnownPrice(v), nil
}

// JoinURL 用源站 origin 拼出绝对链接：相对路径按字符串直接拼接（与源站链接格式逐字一致），
// 已是绝对 URL 的保持不变。
func JoinURL(origin, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return strings.TrimRight(origin, "/") + href
}

func NormSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

// Number 接受 JSON 数字、数字字符串或 null。
// Valid=false 表示 null / 字段缺失；Raw 保留原始文本用于错误信息。
type Number struct {
	Raw   string
	Valid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*n = Number{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number{Raw: s, Valid: true}
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = Number{Raw: num.String(), Valid: true}
	return nil
}

// Price 把 Number 转成价格；null 视为转换失败（需要“未知价格”语义的源站自行判断 Valid）。
func (n Number) Price(field string) (domain.Price, error) {
	if !n.Valid {
		return domain.Price{}, &CoercionError{Field: field, Value: "null", Err: errors.New("价格为空")}
	}
	return ParsePrice(field, n.Raw)
}

// ID 接受 JSON 字符串或数字形式的标识符，统一为字符串。
type ID struct {
	Value string
	Valid bool
}

func (id *ID) UnmarshalJSON(b []byte) error {
	var n Number
	if err := n.UnmarshalJSON(b); err != nil {
		return err
	}
	*id = ID{Value: n.Raw, Valid: n.Valid}
	return nil
}

// Ptr 返回可选字段指针：无效时为 nil。
func (id ID) Ptr() *string {
	if !id.Valid {
		return nil
	}
	return domain.Str(id.Value)
}
