package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ItemDetail 是单个商品详情页解析结果：核心字段 + 详情页上的属性表。
type ItemDetail struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Image       *string   `json:"image,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       Price     `json:"price"`
	Additions   Additions `json:"additions"`
}

// Additions 是有序的 label -> value 映射。
//
// 约束：重复 label 覆盖旧值，但保留首次出现的位置（与源站标记顺序一致）。
type Additions struct {
	keys   []string
	values map[string]string
}

func (a *Additions) Set(label, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, ok := a.values[label]; !ok {
		a.keys = append(a.keys, label)
	}
	a.values[label] = value
}

func (a Additions) Get(label string) (string, bool) {
	v, ok := a.values[label]
	return v, ok
}

func (a Additions) Len() int { return len(a.keys) }

// Keys 返回按插入顺序排列的 label（副本）。
func (a Additions) Keys() []string { return append([]string(nil), a.keys...) }

func (a Additions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *Additions) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*a = Additions{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("additions 必须是 JSON 对象")
	}
	out := Additions{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		var v string
		if err := dec.Decode(&v); err != nil {
			return err
		}
		out.Set(kt.(string), v)
	}
	*a = out
	return nil
}
