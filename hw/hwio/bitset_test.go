package hwio

import "testing"

func TestBitsetSetClearTest(t *testing.T) {
	b := NewBitset(1 << 18)

	if b.Test(0) || b.Test(1<<18-1) {
		t.Fatal("new bitset should be empty")
	}

	b.Set(0)
	b.Set(63)
	b.Set(64)
	b.Set(1<<18 - 1)

	for _, i := range []uint{0, 63, 64, 1<<18 - 1} {
		if !b.Test(i) {
			t.Errorf("bit %d should be set", i)
		}
	}
	if b.Test(65) {
		t.Error("bit 65 should be clear")
	}

	b.Clear(64)
	if b.Test(64) {
		t.Error("bit 64 should be clear")
	}
}

func TestBitsetRanges(t *testing.T) {
	b := NewBitset(4096)

	b.SetRange(100, 300)
	for i := uint(100); i < 300; i++ {
		if !b.Test(i) {
			t.Fatalf("bit %d should be set", i)
		}
	}
	if b.Test(99) || b.Test(300) {
		t.Error("range bounds should be half-open")
	}

	b.ClearRange(150, 250)
	if b.Test(150) || b.Test(249) {
		t.Error("cleared range should be clear")
	}
	if !b.Test(149) || !b.Test(250) {
		t.Error("bits outside cleared range should remain set")
	}

	// Single-word ranges.
	b.Reset()
	b.SetRange(10, 12)
	if !b.Test(10) || !b.Test(11) || b.Test(12) {
		t.Error("single-word SetRange wrong")
	}
}

func TestBitsetPanics(t *testing.T) {
	b := NewBitset(128)

	assertPanics := func(f func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		f()
	}

	assertPanics(func() { b.SetRange(10, 10) })
	assertPanics(func() { b.SetRange(0, 129) })
	assertPanics(func() { b.ClearRange(5, 2) })
}
