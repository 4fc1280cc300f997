package schema

import "context"

// HookPoint is the closed set of lifecycle hook points a table can register,
// matching spec §4.F's "Hooks beforeInsert/afterInsert/... run around each
// operation".
type HookPoint int

const (
	BeforeInsert HookPoint = iota
	AfterInsert
	BeforeUpdate
	AfterUpdate
	BeforeDelete
	AfterDelete
)

// HookFunc observes (and may veto, by returning an error) a single row
// transition. row holds the column values about to be written (Before*) or
// just written (After*).
type HookFunc func(ctx context.Context, row map[string]any) error

// Hooks groups every registered hook by point. Multiple hooks per point run
// in registration order.
type Hooks struct {
	byPoint map[HookPoint][]HookFunc
}

func NewHooks() *Hooks {
	return &Hooks{byPoint: map[HookPoint][]HookFunc{}}
}

func (h *Hooks) On(point HookPoint, fn HookFunc) *Hooks {
	h.byPoint[point] = append(h.byPoint[point], fn)
	return h
}

func (h *Hooks) Run(ctx context.Context, point HookPoint, row map[string]any) error {
	if h == nil {
		return nil
	}
	for _, fn := range h.byPoint[point] {
		if err := fn(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
