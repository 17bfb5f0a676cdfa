package workerpool

import (
	"context"
	"errors"
	"testing"
)

func TestProcessOrdered(t *testing.T) {
	t.Run("preserves input order", func(t *testing.T) {
		items := []int{5, 1, 4, 2, 3}
		results := ProcessOrdered(context.Background(), 3, items, func(_ context.Context, v int) (int, error) {
			return v * 10, nil
		})
		if len(results) != len(items) {
			t.Fatalf("expected %d results, got %d", len(items), len(results))
		}
		for i, r := range results {
			if r.Item != items[i] {
				t.Fatalf("result %d: item = %v, want %v", i, r.Item, items[i])
			}
			if r.Value != items[i]*10 {
				t.Fatalf("result %d: value = %v, want %v", i, r.Value, items[i]*10)
			}
			if r.Err != nil {
				t.Fatalf("result %d: unexpected error %v", i, r.Err)
			}
		}
	})

	t.Run("a failing item does not prevent its siblings from completing", func(t *testing.T) {
		items := []int{1, 2, 3}
		results := ProcessOrdered(context.Background(), 3, items, func(_ context.Context, v int) (int, error) {
			if v == 2 {
				return 0, errors.New("boom")
			}
			return v, nil
		})
		if results[0].Err != nil || results[0].Value != 1 {
			t.Fatalf("item 0: unexpected result %+v", results[0])
		}
		if results[1].Err == nil {
			t.Fatalf("item 1: expected error")
		}
		if results[2].Err != nil || results[2].Value != 3 {
			t.Fatalf("item 2: unexpected result %+v", results[2])
		}
	})

	t.Run("empty input returns empty results", func(t *testing.T) {
		results := ProcessOrdered(context.Background(), 4, []int{}, func(_ context.Context, v int) (int, error) {
			return v, nil
		})
		if len(results) != 0 {
			t.Fatalf("expected 0 results, got %d", len(results))
		}
	})
}
