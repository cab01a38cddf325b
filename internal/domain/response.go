package domain

import "encoding/json"

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// SearchResponse 是一次列表搜索的对外结果（HTTP / CLI 直接序列化）。
//
// 约束：Status=ok 时输出 offers（空结果为 []）；Status=error 时只输出 description。
type SearchResponse struct {
	Status      string  `json:"status"`
	Offers      []Offer `json:"offers,omitempty"`
	Description string  `json:"description,omitempty"`

	// Kind 保留错误类别供日志/指标使用，不进入 JSON 契约。
	Kind string `json:"-"`
}

// ItemResponse 是一次详情解析的对外结果。
type ItemResponse struct {
	Status      string      `json:"status"`
	Item        *ItemDetail `json:"item,omitempty"`
	Description string      `json:"description,omitempty"`

	Kind string `json:"-"`
}

func (r SearchResponse) OK() bool { return r.Status == StatusOK }

func (r ItemResponse) OK() bool { return r.Status == StatusOK }

// MarshalJSON 按 status 固定输出形状，避免空 offers 被 omitempty 吞掉。
func (r SearchResponse) MarshalJSON() ([]byte, error) {
	if r.Status != StatusOK {
		return marshalError(r.Status, r.Description)
	}
	offers := r.Offers
	if offers == nil {
		offers = []Offer{}
	}
	return json.Marshal(struct {
		Status string  `json:"status"`
		Offers []Offer `json:"offers"`
	}{r.Status, offers})
}

func (r ItemResponse) MarshalJSON() ([]byte, error) {
	if r.Status != StatusOK {
		return marshalError(r.Status, r.Description)
	}
	return json.Marshal(struct {
		Status string      `json:"status"`
		Item   *ItemDetail `json:"item"`
	}{r.Status, r.Item})
}

func marshalError(status, desc string) ([]byte, error) {
	return json.Marshal(struct {
		Status      string `json:"status"`
		Description string `json:"description"`
	}{status, desc})
}
