package executor

import (
	"context"

	"go.uber.org/zap"
)

// Next invokes the next stage of an interceptor chain (or the driver call,
// for the innermost stage).
type Next func(ctx context.Context, sql string, params []any) (ExecutionPayload, error)

// Interceptor observes, transforms, or short-circuits one statement. It may
// call next zero times (short-circuit), once (the common case), or more
// than once (retry) — the pipeline itself imposes no constraint.
type Interceptor func(ctx context.Context, sql string, params []any, next Next) (ExecutionPayload, error)

// Chain wraps an Executor with the caller-supplied interceptors (logging
// only when LoggingInterceptor is among them), innermost call landing on
// the driver.
type Chain struct {
	base         Executor
	interceptors []Interceptor
}

// NewChain wraps base with interceptors, outermost first.
func NewChain(base Executor, interceptors ...Interceptor) *Chain {
	return &Chain{base: base, interceptors: interceptors}
}

// LoggingInterceptor logs every statement at debug level, and errors at
// warn, without altering behavior. It runs only where a caller passes it to
// NewChain; nothing in the module installs it. A nil logger is a legal no-op, matching
// the teacher's optional-logger convention (util.NewLogger's caller may
// always pass nil).
func LoggingInterceptor(logger *zap.Logger) Interceptor {
	return func(ctx context.Context, sql string, params []any, next Next) (ExecutionPayload, error) {
		payload, err := next(ctx, sql, params)
		if logger == nil {
			return payload, err
		}
		if err != nil {
			logger.Warn("executor: statement failed", zap.String("sql", sql), zap.Error(err))
		} else {
			logger.Debug("executor: statement ok", zap.String("sql", sql), zap.Int("rows", len(payload.Values)))
		}
		return payload, err
	}
}

func (c *Chain) Capabilities() Capability { return c.base.Capabilities() }

func (c *Chain) ExecuteSQL(ctx context.Context, sql string, params []any) (ExecutionPayload, error) {
	terminal := func(ctx context.Context, sql string, params []any) (ExecutionPayload, error) {
		return c.base.ExecuteSQL(ctx, sql, params)
	}
	next := terminal
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		interceptor := c.interceptors[i]
		prev := next
		next = func(ctx context.Context, sql string, params []any) (ExecutionPayload, error) {
			return interceptor(ctx, sql, params, prev)
		}
	}
	return next(ctx, sql, params)
}

func (c *Chain) BeginTransaction(ctx context.Context) (Executor, error) {
	inner, err := c.base.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return &Chain{base: inner, interceptors: c.interceptors}, nil
}

func (c *Chain) CommitTransaction(ctx context.Context) error   { return c.base.CommitTransaction(ctx) }
func (c *Chain) RollbackTransaction(ctx context.Context) error { return c.base.RollbackTransaction(ctx) }
func (c *Chain) Dispose(ctx context.Context) error             { return c.base.Dispose(ctx) }
