package policy

import (
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/ratelimit/core/rate"
	"github.com/kochabx/ratelimit/core/rule"
	"github.com/kochabx/ratelimit/errors"
	"github.com/kochabx/ratelimit/metrics"
)

// Builder 将 Definition 构建为规则树
type Builder struct {
	client      redis.UniversalClient
	prefix      string
	metrics     *metrics.RuleMetrics
	rateOptions []rate.Option
}

type BuilderOption func(*Builder)

// WithRedis 设置存储客户端和键前缀，限流叶子节点必须
func WithRedis(client redis.UniversalClient, prefix string) BuilderOption {
	return func(b *Builder) {
		b.client = client
		b.prefix = prefix
	}
}

// WithMetrics 为每个节点记录评估指标
func WithMetrics(m *metrics.RuleMetrics) BuilderOption {
	return func(b *Builder) {
		b.metrics = m
	}
}

// WithRateOptions 传递给限流叶子节点的选项
func WithRateOptions(opts ...rate.Option) BuilderOption {
	return func(b *Builder) {
		b.rateOptions = append(b.rateOptions, opts...)
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build 构建名为 policy 的规则树。节点 id 由策略名和路径组成，
// 命名节点使用自身名称，例如 "api/burst"、"api/1"。
// 限流计数键使用相同的 id。兄弟节点名称唯一且不是纯数字，策略名和节点名
// 都不含分隔符，因此不同叶子不会共享计数。
func (b *Builder) Build(policy string, def Definition) (rule.Rule, error) {
	if policy == "" {
		return nil, errors.BadRequest("policy name is empty")
	}
	if strings.ContainsAny(policy, reservedNameChars) {
		return nil, errors.BadRequest("policy name %q must not contain any of %q", policy, reservedNameChars)
	}
	if err := def.Validate(); err != nil {
		return nil, errors.Wrap(err, 400, "policy %s", policy)
	}
	return b.build(policy, def)
}

func (b *Builder) build(id string, def Definition) (rule.Rule, error) {
	var (
		r   rule.Rule
		err error
	)

	switch def.Type {
	case TypeAllow:
		r = rule.Allow
	case TypeDeny:
		r = rule.Deny
	case TypeAnd, TypeOr, TypeNot:
		children := make([]rule.Rule, len(def.Rules))
		for i, child := range def.Rules {
			if children[i], err = b.build(childID(id, i, child), child); err != nil {
				return nil, err
			}
		}
		switch def.Type {
		case TypeAnd:
			r = rule.NewAnd(children...)
		case TypeOr:
			r = rule.NewOr(children...)
		default:
			r = rule.NewNot(children[0])
		}
	case TypeTokenBucket:
		if b.client == nil {
			return nil, errors.BadRequest("%s: token_bucket requires redis", id)
		}
		r = rate.NewTokenBucket(b.client, b.key(id), def.Capacity, def.Rate, b.rateOptions...)
	case TypeSlidingWindow:
		if b.client == nil {
			return nil, errors.BadRequest("%s: sliding_window requires redis", id)
		}
		r = rate.NewSlidingWindow(b.client, b.key(id), int(def.Window.Seconds()), def.Limit, b.rateOptions...)
	default:
		return nil, errors.BadRequest("%s: unknown rule type %q", id, def.Type)
	}

	if b.metrics != nil {
		r = b.metrics.Instrument(id, r)
	}
	if def.Name != "" {
		r = rule.Named(def.Name, r)
	}
	return r, nil
}

func (b *Builder) key(id string) string {
	if b.prefix == "" {
		return id
	}
	return b.prefix + ":" + id
}

func childID(parent string, i int, def Definition) string {
	name := def.Name
	if name == "" {
		name = strconv.Itoa(i)
	}
	return strings.Join([]string{parent, name}, "/")
}
