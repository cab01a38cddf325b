// Package api 是 dispatch 之上的 HTTP 外壳：解析路径/查询参数，原样输出响应信封。
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/aptekar/internal/domain"
)

// Dispatcher 是 API 依赖的核心边界（由 dispatch.Service 实现）。
type Dispatcher interface {
	Search(ctx context.Context, id int, term string) domain.SearchResponse
	Resolve(ctx context.Context, id int, ref string) domain.ItemResponse
}

// Options 是路由需要的外围配置。
type Options struct {
	// Version 为 nil 时版本接口输出 "version": null。
	Version     *string
	CORSOrigins []string
	// Metrics 非 nil 时挂载到 GET /metrics。
	Metrics http.Handler
	Logger  zerolog.Logger
	Debug   bool
}

// NewRouter 组装全部路由与中间件。
func NewRouter(d Dispatcher, opts Options) *gin.Engine {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(requestLogger(opts.Logger), recovery(), cors(opts.CORSOrigins))

	h := handlers{d: d, version: opts.Version}
	r.GET("/", h.status)
	r.GET("/get_pharmacies/:pharmacy_id", h.search)
	r.GET("/get_pharmacy_item/:pharmacy_id", h.item)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	return r
}

type handlers struct {
	d       Dispatcher
	version *string
}

func (h handlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "available", "version": h.version})
}

// search: GET /get_pharmacies/{id}?query=...；缺省 query 视为空串。
func (h handlers) search(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.d.Search(c.Request.Context(), id, c.Query("query")))
}

// item: GET /get_pharmacy_item/{id}?item=...；item 必填。
func (h handlers) item(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ref, ok := c.GetQuery("item")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, validationError("query", "item", "field required", "value_error.missing"))
		return
	}
	c.JSON(http.StatusOK, h.d.Resolve(c.Request.Context(), id, ref))
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("pharmacy_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, validationError("path", "pharmacy_id", "value is not a valid integer", "type_error.integer"))
		return 0, false
	}
	return id, true
}

type validationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// validationError 构造 422 响应体：detail 列表描述出错参数的位置与原因。
func validationError(in, name, msg, typ string) gin.H {
	return gin.H{"detail": []validationDetail{{Loc: []string{in, name}, Msg: msg, Type: typ}}}
}
