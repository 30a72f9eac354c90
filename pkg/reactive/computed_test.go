package reactive

import "testing"

func TestComputedLazy(t *testing.T) {
	calls := 0
	c := NewComputed(func() int {
		calls++
		return 42
	})

	if calls != 0 {
		t.Fatalf("getter ran eagerly: calls = %d", calls)
	}
	if got := c.Get(); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestComputedIdempotentBetweenWrites(t *testing.T) {
	dep := NewCell(2)
	calls := 0

	double := NewComputed(func() int {
		calls++
		return dep.Get() * 2
	})

	if got := double.Get(); got != 4 {
		t.Fatalf("got %d, want 4", got)
	}
	if got := double.Get(); got != 4 {
		t.Fatalf("second read got %d, want 4", got)
	}
	if calls != 1 {
		t.Errorf("getter ran %d times between writes, want 1", calls)
	}

	dep.Set(3)
	if got := double.Get(); got != 6 {
		t.Errorf("got %d, want 6", got)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestComputedInvalidationCoalesces(t *testing.T) {
	dep := NewCell(1)
	calls := 0

	c := NewComputed(func() int {
		calls++
		return dep.Get()
	})

	_ = c.Get()

	// Several writes without an intervening read recompute once.
	dep.Set(2)
	dep.Set(3)
	dep.Set(4)

	if got := c.Get(); got != 4 {
		t.Errorf("got %d, want 4", got)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestComputedChain(t *testing.T) {
	base := NewCell(1)
	doubled := NewComputed(func() int { return base.Get() * 2 })
	quadrupled := NewComputed(func() int { return doubled.Get() * 2 })

	if got := quadrupled.Get(); got != 4 {
		t.Fatalf("got %d, want 4", got)
	}

	base.Set(5)
	if got := quadrupled.Get(); got != 20 {
		t.Errorf("got %d, want 20", got)
	}
}

func TestComputedDrivesEffect(t *testing.T) {
	base := NewCell(1)
	doubled := NewComputed(func() int { return base.Get() * 2 })

	var seen []int
	NewEffect(func() Cleanup {
		seen = append(seen, doubled.Get())
		return nil
	})

	base.Set(3)

	if len(seen) != 2 || seen[0] != 2 || seen[1] != 6 {
		t.Errorf("seen = %v, want [2 6]", seen)
	}
}
