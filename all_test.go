package concord

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAll(t *testing.T) {
	t.Run("Collects Every Raw Result In Order", func(t *testing.T) {
		group := NewAll("collect",
			resultMiddleware(t, "X", nil),
			resultMiddleware(t, Ignore, nil),
		)
		defer group.Close()

		result, err := group.Run(context.Background(), NewContext(nil), Args{}, terminalReturning(OK))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		results, ok := result.([]any)
		if !ok {
			t.Fatalf("expected []any result, got %T", result)
		}
		if len(results) != 2 || results[0] != "X" || results[1] != Ignore {
			t.Errorf("expected [X ignore], got %v", results)
		}
	})

	t.Run("Own Result Is Always Successful", func(t *testing.T) {
		group := NewAll("successful",
			resultMiddleware(t, Ignore, nil),
			resultMiddleware(t, Ignore, nil),
		)
		defer group.Close()

		result, err := group.Run(context.Background(), NewContext(nil), Args{}, terminalReturning(OK))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !IsSuccessful(result) {
			t.Error("expected the group's own result to count as successful")
		}
	})

	t.Run("Empty Group Returns Empty Slice", func(t *testing.T) {
		group := NewAll("empty")
		defer group.Close()

		result, err := group.Run(context.Background(), NewContext(nil), Args{}, terminalReturning(OK))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		results, ok := result.([]any)
		if !ok {
			t.Fatalf("expected []any result, got %T", result)
		}
		if len(results) != 0 {
			t.Errorf("expected empty results, got %v", results)
		}
		if !IsSuccessful(result) {
			t.Error("expected the empty group's result to count as successful")
		}
	})

	t.Run("Members Receive Original Terminal", func(t *testing.T) {
		terminalCalls := 0
		terminal := func(_ context.Context, _ *Context, _ Args) (any, error) {
			terminalCalls++
			return terminalCalls, nil
		}

		delegating, err := AsMiddleware(func(ctx context.Context, ec *Context, args Args, next Next) (any, error) {
			return next(ctx, ec, args)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		group := NewAll("terminal", delegating, delegating)
		defer group.Close()

		result, err := group.Run(context.Background(), NewContext(nil), Args{}, terminal)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		results, ok := result.([]any)
		if !ok {
			t.Fatalf("expected []any result, got %T", result)
		}
		if len(results) != 2 || results[0] != 1 || results[1] != 2 {
			t.Errorf("expected [1 2], got %v", results)
		}
	})

	t.Run("Member Error Aborts Remaining Members", func(t *testing.T) {
		boom := errors.New("boom")
		failing, err := AsMiddleware(func(_ context.Context, _ *Context, _ Args, _ Next) (any, error) {
			return nil, boom
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var lastRan bool

		group := NewAll("failing",
			resultMiddleware(t, "X", nil),
			failing,
			resultMiddleware(t, "Y", &lastRan),
		)
		defer group.Close()

		_, err = group.Run(context.Background(), NewContext(nil), Args{}, terminalReturning(OK))
		if !errors.Is(err, boom) {
			t.Errorf("expected the member's error, got %v", err)
		}
		if lastRan {
			t.Error("expected members after the failure to be skipped")
		}
	})

	t.Run("Add Rejects Nil", func(t *testing.T) {
		group := NewAll("reject")
		defer group.Close()

		if _, err := group.Add(nil); !errors.Is(err, ErrNotMiddleware) {
			t.Errorf("expected ErrNotMiddleware, got %v", err)
		}
		var f *Func
		if _, err := group.Add(f); !errors.Is(err, ErrNotMiddleware) {
			t.Errorf("expected ErrNotMiddleware for a typed nil, got %v", err)
		}
		if group.Len() != 0 {
			t.Errorf("expected no members, got %d", group.Len())
		}
	})

	t.Run("Hook Events", func(t *testing.T) {
		group := NewAll("hooked",
			resultMiddleware(t, "X", nil),
			resultMiddleware(t, Ignore, nil),
		)
		defer group.Close()

		var memberEvents []AllEvent
		var runEvents []AllEvent
		var mu sync.Mutex

		if err := group.OnMemberComplete(func(_ context.Context, event AllEvent) error {
			mu.Lock()
			memberEvents = append(memberEvents, event)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := group.OnRunComplete(func(_ context.Context, event AllEvent) error {
			mu.Lock()
			runEvents = append(runEvents, event)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := group.Run(context.Background(), NewContext(nil), Args{}, terminalReturning(OK)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Wait for async hooks to fire
		time.Sleep(50 * time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		if len(memberEvents) != 2 {
			t.Errorf("expected 2 member events, got %d", len(memberEvents))
		}
		if len(runEvents) != 1 {
			t.Fatalf("expected 1 run event, got %d", len(runEvents))
		}
		if runEvents[0].Name != "hooked" || runEvents[0].Successful != 1 || runEvents[0].Members != 2 {
			t.Errorf("unexpected run event: %+v", runEvents[0])
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		group := NewAll("metrics",
			resultMiddleware(t, "X", nil),
			resultMiddleware(t, Ignore, nil),
		)
		defer group.Close()

		if _, err := group.Run(context.Background(), NewContext(nil), Args{}, terminalReturning(OK)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if runs := group.Metrics().Counter(AllRunsTotal).Value(); runs != 1 {
			t.Errorf("expected 1 run, got %f", runs)
		}
		if successful := group.Metrics().Gauge(AllSuccessfulLast).Value(); successful != 1 {
			t.Errorf("expected 1 successful member result, got %f", successful)
		}
		if members := group.Metrics().Gauge(AllMembersTotal).Value(); members != 2 {
			t.Errorf("expected member gauge 2, got %f", members)
		}
	})
}
