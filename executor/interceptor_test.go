package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainRunsInterceptorsOutermostFirst(t *testing.T) {
	base := &fakeExecutor{payload: ExecutionPayload{Columns: []string{"id"}}}
	var order []string
	outer := func(ctx context.Context, sql string, params []any, next Next) (ExecutionPayload, error) {
		order = append(order, "outer-before")
		p, err := next(ctx, sql, params)
		order = append(order, "outer-after")
		return p, err
	}
	inner := func(ctx context.Context, sql string, params []any, next Next) (ExecutionPayload, error) {
		order = append(order, "inner-before")
		p, err := next(ctx, sql, params)
		order = append(order, "inner-after")
		return p, err
	}

	chain := NewChain(base, outer, inner)
	payload, err := chain.ExecuteSQL(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, payload.Columns)
	assert.Equal(t, []string{"outer-before", "inner-before", "inner-after", "outer-after"}, order)
	assert.Equal(t, []string{"SELECT 1"}, base.calls)
}

func TestChainInterceptorCanShortCircuit(t *testing.T) {
	base := &fakeExecutor{}
	shortCircuit := func(ctx context.Context, sql string, params []any, next Next) (ExecutionPayload, error) {
		return ExecutionPayload{Columns: []string{"short"}}, nil
	}
	chain := NewChain(base, shortCircuit)
	payload, err := chain.ExecuteSQL(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"short"}, payload.Columns)
	assert.Empty(t, base.calls)
}

func TestChainPropagatesExecutorError(t *testing.T) {
	base := &fakeExecutor{execErr: errors.New("boom")}
	chain := NewChain(base)
	_, err := chain.ExecuteSQL(context.Background(), "SELECT 1", nil)
	require.Error(t, err)
}

func TestChainBeginTransactionWrapsInnerExecutor(t *testing.T) {
	base := &fakeExecutor{caps: CapBeginTransaction}
	chain := NewChain(base)
	txExecutor, err := chain.BeginTransaction(context.Background())
	require.NoError(t, err)

	txChain, ok := txExecutor.(*Chain)
	require.True(t, ok)
	assert.Same(t, base.begun, txChain.base)
}

func TestLoggingInterceptorNilLoggerIsNoOp(t *testing.T) {
	interceptor := LoggingInterceptor(nil)
	called := false
	next := func(ctx context.Context, sql string, params []any) (ExecutionPayload, error) {
		called = true
		return ExecutionPayload{}, nil
	}
	_, err := interceptor(context.Background(), "SELECT 1", nil, next)
	require.NoError(t, err)
	assert.True(t, called)
}
