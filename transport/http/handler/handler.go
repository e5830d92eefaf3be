// Package handler exposes policy evaluation over HTTP.
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/ratelimit/core/policy"
	"github.com/kochabx/ratelimit/core/rule"
	"github.com/kochabx/ratelimit/errors"
	"github.com/kochabx/ratelimit/transport/http/response"
)

// Engine 由 *policy.Engine 实现
type Engine interface {
	Policies() []string
	Check(ctx context.Context, policy string, id rule.Identifier) (policy.Decision, error)
	CheckBatch(ctx context.Context, policy string, ids []rule.Identifier) ([]policy.Decision, error)
}

type Handler struct {
	engine Engine
}

func New(engine Engine) *Handler {
	return &Handler{engine: engine}
}

// Register 注册路由：
//
//	GET  /policies
//	GET  /check/:policy/:key
//	POST /check/:policy   {"keys": ["a", "b"]}
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/policies", h.Policies)
	r.GET("/check/:policy/:key", h.Check)
	r.POST("/check/:policy", h.CheckBatch)
}

func (h *Handler) Policies(c *gin.Context) {
	response.GinJSON(c, gin.H{"policies": h.engine.Policies()})
}

// Check 评估单个主体。被拒绝时仍返回 200，由 allowed 字段表示结果。
func (h *Handler) Check(c *gin.Context) {
	d, err := h.engine.Check(c.Request.Context(), c.Param("policy"), rule.Key(c.Param("key")))
	if err != nil {
		response.GinJSONE(c, errors.FromError(err))
		return
	}
	response.GinJSON(c, newResult(d))
}

type batchRequest struct {
	Keys []string `json:"keys" binding:"required,min=1,max=1000,dive,required"`
}

func (h *Handler) CheckBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.GinJSONE(c, errors.BadRequest("invalid request body").WithCause(err))
		return
	}

	ids := make([]rule.Identifier, len(req.Keys))
	for i, k := range req.Keys {
		ids[i] = rule.Key(k)
	}

	// 单个主体的规则错误记录在对应结果中，只有策略不存在等整体错误才失败
	decisions, err := h.engine.CheckBatch(c.Request.Context(), c.Param("policy"), ids)
	if decisions == nil {
		response.GinJSONE(c, errors.FromError(err))
		return
	}

	results := make([]result, len(decisions))
	for i, d := range decisions {
		results[i] = newResult(d)
	}
	response.GinJSON(c, gin.H{"policy": c.Param("policy"), "results": results})
}

type result struct {
	Policy   string `json:"policy"`
	Key      string `json:"key"`
	Allowed  bool   `json:"allowed"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

func newResult(d policy.Decision) result {
	r := result{
		Policy:   d.Policy,
		Key:      d.Key,
		Allowed:  d.Allowed,
		Duration: d.Duration.String(),
	}
	if d.Err != nil {
		r.Error = d.Err.Error()
	}
	return r
}
