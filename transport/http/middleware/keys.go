package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kochabx/ratelimit/core/rule"
	"github.com/kochabx/ratelimit/errors"
)

// KeyFunc 从请求中提取限流主体
type KeyFunc func(c *gin.Context) (rule.Identifier, error)

var (
	ErrMissingKey   = errors.BadRequest("rate limit key missing")
	ErrMissingToken = errors.Unauthorized("bearer token missing")
	ErrInvalidToken = errors.Unauthorized("invalid token")
)

// ClientIP 使用 gin 解析的客户端 IP，受 gin 的可信代理设置影响
func ClientIP() KeyFunc {
	return func(c *gin.Context) (rule.Identifier, error) {
		ip := c.ClientIP()
		if ip == "" {
			return nil, ErrMissingKey
		}
		return rule.Key(ip), nil
	}
}

// Header 使用请求头的值，例如 API key
func Header(name string) KeyFunc {
	return func(c *gin.Context) (rule.Identifier, error) {
		v := c.GetHeader(name)
		if v == "" {
			return nil, ErrMissingKey.WithMetadata(map[string]string{"header": name})
		}
		return rule.Key(v), nil
	}
}

// Param 使用路由参数
func Param(name string) KeyFunc {
	return func(c *gin.Context) (rule.Identifier, error) {
		v := c.Param(name)
		if v == "" {
			return nil, ErrMissingKey.WithMetadata(map[string]string{"param": name})
		}
		return rule.Key(v), nil
	}
}

// JWTSubject 校验 Authorization 中的 HS256 bearer token，使用其 sub 作为主体
func JWTSubject(secret []byte) KeyFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(c *gin.Context) (rule.Identifier, error) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || strings.TrimSpace(raw) == "" {
			return nil, ErrMissingToken
		}

		claims := &jwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, keyFunc); err != nil {
			return nil, ErrInvalidToken.WithCause(err)
		}
		if claims.Subject == "" {
			return nil, ErrInvalidToken.WithMetadata(map[string]string{"claim": "sub"})
		}
		return rule.Key(claims.Subject), nil
	}
}

// bearerToken 认证方案名不区分大小写 (RFC 6750)
func bearerToken(header string) (string, bool) {
	const scheme = "Bearer "
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	return header[len(scheme):], true
}

// FirstOf 依次尝试，返回第一个成功提取的主体；全部失败时返回最后一个错误
func FirstOf(fns ...KeyFunc) KeyFunc {
	return func(c *gin.Context) (rule.Identifier, error) {
		err := error(ErrMissingKey)
		for _, fn := range fns {
			var id rule.Identifier
			if id, err = fn(c); err == nil {
				return id, nil
			}
		}
		return nil, err
	}
}
