package response

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/ratelimit/errors"
)

const (
	// 成功响应常量
	defaultSuccessMessage = "success"
	successCode           = http.StatusOK

	// 错误响应常量
	defaultErrorMessage = "service temporarily unavailable"
	defaultErrorCode    = http.StatusServiceUnavailable
)

type Response struct {
	Code     int               `json:"code"`               // 业务逻辑代码
	Data     any               `json:"data,omitempty"`     // 响应数据，为nil时省略
	Message  string            `json:"message,omitempty"`  // 响应消息，为空时省略
	Metadata map[string]string `json:"metadata,omitempty"` // 错误元数据
}

func (r *Response) reset() {
	*r = Response{}
}

// 对象池用于复用Response实例
var responsePool = sync.Pool{
	New: func() any {
		return &Response{}
	},
}

func acquireResponse() *Response {
	return responsePool.Get().(*Response)
}

func releaseResponse(r *Response) {
	r.reset()
	responsePool.Put(r)
}

// GinJSON 写入成功的JSON响应
func GinJSON(c *gin.Context, data any) {
	if c == nil {
		return
	}

	resp := acquireResponse()
	defer releaseResponse(resp)

	resp.Code = successCode
	resp.Message = defaultSuccessMessage
	resp.Data = data
	c.JSON(successCode, resp)
}

// GinJSONE 写入错误响应并中止后续处理。HTTP 状态码取自错误码，
// 不在 4xx/5xx 范围内时为 500；nil 错误按 503 处理。
func GinJSONE(c *gin.Context, err error) {
	if c == nil {
		return
	}

	resp := acquireResponse()
	defer releaseResponse(resp)

	status := defaultErrorCode
	if err == nil {
		resp.Code = defaultErrorCode
		resp.Message = defaultErrorMessage
	} else {
		e := errors.FromError(err)
		status = errors.HTTPStatus(e)
		resp.Code = e.Code
		resp.Message = e.Message
		resp.Metadata = e.Metadata
	}

	c.AbortWithStatusJSON(status, resp)
}
