package middleware

import (
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// PathMatcher 路径匹配器，支持三种模式：
//   - 精确匹配："/health" 只匹配 "/health"
//   - 前缀匹配："/debug/**" 匹配 "/debug" 及其所有子路径
//   - Glob 模式："/v1/*/keys" 使用 path.Match 进行匹配
type PathMatcher struct {
	exact    map[string]struct{}
	prefixes []string
	patterns []string
}

func NewPathMatcher(paths []string) *PathMatcher {
	pm := &PathMatcher{exact: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		switch prefix, ok := strings.CutSuffix(p, "/**"); {
		case ok:
			pm.prefixes = append(pm.prefixes, prefix)
		case strings.ContainsAny(p, "*?["):
			pm.patterns = append(pm.patterns, p)
		default:
			pm.exact[p] = struct{}{}
		}
	}
	return pm
}

// Match 检查路径是否匹配，nil 匹配器不匹配任何路径
func (pm *PathMatcher) Match(urlPath string) bool {
	if pm == nil {
		return false
	}

	if _, ok := pm.exact[urlPath]; ok {
		return true
	}

	for _, prefix := range pm.prefixes {
		if rest, ok := strings.CutPrefix(urlPath, prefix); ok && (rest == "" || rest[0] == '/') {
			return true
		}
	}

	for _, pattern := range pm.patterns {
		if matched, _ := path.Match(pattern, urlPath); matched {
			return true
		}
	}
	return false
}

// Skipper 跳过判断：自定义函数优先，其次路径匹配
type Skipper struct {
	matcher *PathMatcher
	fn      func(*gin.Context) bool
}

func NewSkipper(paths []string, fn func(*gin.Context) bool) Skipper {
	return Skipper{matcher: NewPathMatcher(paths), fn: fn}
}

// Skip 检查请求是否应跳过处理
func (s Skipper) Skip(c *gin.Context) bool {
	if s.fn != nil && s.fn(c) {
		return true
	}
	return s.matcher.Match(c.Request.URL.Path)
}
