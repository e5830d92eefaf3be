package policy

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kochabx/ratelimit/core/rule"
	"github.com/kochabx/ratelimit/errors"
	"github.com/kochabx/ratelimit/log"
)

const defaultConcurrency = 64

// Decision 一次策略评估的结果
type Decision struct {
	Policy   string        `json:"policy"`
	Key      string        `json:"key"`
	Allowed  bool          `json:"allowed"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Engine 按名称保存策略规则树并执行评估。策略集合整体原子替换，
// 评估过程中不加锁。
type Engine struct {
	builder  *Builder
	policies atomic.Pointer[map[string]rule.Rule]
	pool     *ants.Pool
	logger   *log.Logger
}

type EngineOption func(*engineOptions)

type engineOptions struct {
	concurrency int
	logger      *log.Logger
}

// WithConcurrency 批量评估的协程池大小
func WithConcurrency(n int) EngineOption {
	return func(o *engineOptions) {
		o.concurrency = n
	}
}

func WithLogger(logger *log.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

func NewEngine(builder *Builder, opts ...EngineOption) (*Engine, error) {
	o := engineOptions{concurrency: defaultConcurrency, logger: log.G}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency <= 0 {
		o.concurrency = defaultConcurrency
	}
	if builder == nil {
		builder = NewBuilder()
	}

	pool, err := ants.NewPool(o.concurrency)
	if err != nil {
		return nil, errors.Wrap(err, 500, "create batch pool")
	}

	e := &Engine{
		builder: builder,
		pool:    pool,
		logger:  o.logger,
	}
	e.policies.Store(&map[string]rule.Rule{})
	return e, nil
}

// Load 构建全部策略并整体替换当前策略集合。任一策略构建失败时保持原集合不变。
func (e *Engine) Load(defs map[string]Definition) error {
	policies := make(map[string]rule.Rule, len(defs))
	for _, name := range slices.Sorted(maps.Keys(defs)) {
		r, err := e.builder.Build(name, defs[name])
		if err != nil {
			return err
		}
		policies[name] = r
	}

	e.policies.Store(&policies)
	e.logger.Info().Int("count", len(policies)).Strs("policies", slices.Sorted(maps.Keys(policies))).Msg("policies loaded")
	return nil
}

// Policies 返回已加载的策略名，按字典序
func (e *Engine) Policies() []string {
	return slices.Sorted(maps.Keys(*e.policies.Load()))
}

// Rule 返回指定策略的规则树
func (e *Engine) Rule(policy string) (rule.Rule, bool) {
	r, ok := (*e.policies.Load())[policy]
	return r, ok
}

// Check 使用策略评估 id。策略不存在时返回 404 错误；规则错误原样返回，
// 此时 Decision.Allowed 为 false。
func (e *Engine) Check(ctx context.Context, policy string, id rule.Identifier) (Decision, error) {
	r, ok := e.Rule(policy)
	if !ok {
		return Decision{Policy: policy, Key: id.Key()}, errors.NotFound("policy %s not found", policy)
	}
	d := e.evaluate(ctx, policy, r, id)
	return d, d.Err
}

// CheckBatch 在协程池中并发评估多个 id，结果顺序与 ids 一致。
// 各 id 的规则错误记录在对应的 Decision.Err，并合并返回。
// ctx 取消后不再提交新的评估，未评估的 id 记录 ctx.Err()。
func (e *Engine) CheckBatch(ctx context.Context, policy string, ids []rule.Identifier) ([]Decision, error) {
	r, ok := e.Rule(policy)
	if !ok {
		return nil, errors.NotFound("policy %s not found", policy)
	}

	decisions := make([]Decision, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			decisions[i] = Decision{Policy: policy, Key: id.Key(), Err: err}
			continue
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			decisions[i] = e.evaluate(ctx, policy, r, id)
		}
		if err := e.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	var errs []error
	for _, d := range decisions {
		if d.Err != nil {
			errs = append(errs, d.Err)
		}
	}
	return decisions, errors.Join(errs...)
}

func (e *Engine) evaluate(ctx context.Context, policy string, r rule.Rule, id rule.Identifier) Decision {
	start := time.Now()
	allowed, err := r.Check(ctx, id)
	d := Decision{
		Policy:   policy,
		Key:      id.Key(),
		Allowed:  allowed && err == nil,
		Duration: time.Since(start),
		Err:      err,
	}

	switch {
	case err != nil:
		e.logger.Warn().Err(err).Str("policy", policy).Str("key", d.Key).Msg("rule check failed")
	case !allowed:
		e.logger.Debug().Str("policy", policy).Str("key", d.Key).Dur("duration", d.Duration).Msg("request denied")
	}
	return d
}

// Close 释放协程池
func (e *Engine) Close() error {
	e.pool.Release()
	return nil
}
