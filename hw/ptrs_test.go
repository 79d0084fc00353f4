package hw

import "testing"

func TestPageTableMapMirror(t *testing.T) {
	pt := NewPageTable()
	backing := make([]byte, 2*PageSize)

	// Two backing pages over a four-page range: the backing mirrors.
	pt.Map(AccessAll, backing, 0x02000000, 0x0200FFFF)

	w := pt.WriteWindow(0x02008000, AccessW8) // third page, mirrors the first
	if w == nil {
		t.Fatal("no write window on a mapped page")
	}
	w[0x123] = 0xAB
	if backing[0x123] != 0xAB {
		t.Fatal("write through the mirror window did not land in the backing")
	}
	r := pt.ReadWindow(0x02000000)
	if r == nil || r[0x123] != 0xAB {
		t.Fatal("read window does not alias the backing")
	}
	r = pt.ReadWindow(0x02004000)
	if r == nil || r[0x123] != 0 {
		t.Fatal("second backing page unexpectedly aliases the first")
	}

	live, mapped := pt.PageAttrs(0x02008000)
	if live != AccessAll || mapped != AccessAll {
		t.Fatalf("attrs = live %03b, mapped %03b, want both %03b", live, mapped, AccessAll)
	}
}

func TestPageTableMapPanics(t *testing.T) {
	pt := NewPageTable()
	backing := make([]byte, PageSize)

	assertPanics(t, "unaligned lower", func() {
		pt.Map(AccessAll, backing, 0x100, 0x02003FFF)
	})
	assertPanics(t, "unaligned upper", func() {
		pt.Map(AccessAll, backing, 0x02000000, 0x02003FFE)
	})
	assertPanics(t, "bad backing size", func() {
		pt.Map(AccessAll, backing[:100], 0x02000000, 0x02003FFF)
	})
	assertPanics(t, "empty backing", func() {
		pt.Map(AccessAll, nil, 0x02000000, 0x02003FFF)
	})
}

func TestPageTableUnmap(t *testing.T) {
	pt := NewPageTable()
	backing := make([]byte, PageSize)
	pt.Map(AccessAll, backing, 0x02000000, 0x02007FFF)

	pt.Unmap(0x02004000, 0x02007FFF)

	if pt.ReadWindow(0x02004000) != nil {
		t.Fatal("unmapped page still has a read window")
	}
	if live, mapped := pt.PageAttrs(0x02004000); live != 0 || mapped != 0 {
		t.Fatalf("unmapped page attrs = live %03b, mapped %03b, want 0, 0", live, mapped)
	}
	if pt.ReadWindow(0x02000000) == nil {
		t.Fatal("unmap clobbered a page outside the range")
	}
}

func TestPageTableWriteKinds(t *testing.T) {
	pt := NewPageTable()
	backing := make([]byte, PageSize)

	// Video memory pattern: wide writes only.
	pt.Map(AccessR|AccessW1632, backing, 0x06800000, 0x06803FFF)

	if pt.WriteWindow(0x06800000, AccessW8) != nil {
		t.Fatal("8-bit write window on a 16/32-bit-only page")
	}
	if pt.WriteWindow(0x06800000, AccessW1632) == nil {
		t.Fatal("no 16/32-bit write window")
	}
}

func TestPageTableDisableEnableWrite(t *testing.T) {
	pt := NewPageTable()
	backing := make([]byte, PageSize)
	pt.Map(AccessAll, backing, 0x02000000, 0x02003FFF)

	pt.DisableWrite(0x02000000, 0x02003FFF, DisableWatch)
	pt.DisableWrite(0x02000000, 0x02003FFF, DisableTrace)

	if live, mapped := pt.PageAttrs(0x02000000); live != AccessR || mapped != AccessAll {
		t.Fatalf("disabled page attrs = live %03b, mapped %03b", live, mapped)
	}
	if pt.WriteWindow(0x02000000, AccessW8) != nil {
		t.Fatal("write window served while disabled")
	}
	if pt.ReadWindow(0x02000000) == nil {
		t.Fatal("write disable killed the read fast path")
	}

	// One reason down, one to go: still disabled.
	pt.EnableWrite(0x02000000, 0x02003FFF, DisableWatch)
	if live, _ := pt.PageAttrs(0x02000000); live != AccessR {
		t.Fatalf("attrs restored with a disable reason remaining: %03b", live)
	}

	pt.EnableWrite(0x02000000, 0x02003FFF, DisableTrace)
	if live, _ := pt.PageAttrs(0x02000000); live != AccessAll {
		t.Fatalf("attrs not restored after last reason lifted: %03b", live)
	}
	if pt.WriteWindow(0x02000000, AccessW8) == nil {
		t.Fatal("write window not restored")
	}
}

func TestPageTableDisableEnableRead(t *testing.T) {
	pt := NewPageTable()
	backing := make([]byte, PageSize)
	pt.Map(AccessAll, backing, 0x02000000, 0x02003FFF)

	pt.DisableRead(0x02000000, 0x02003FFF, DisableWatch)
	if pt.ReadWindow(0x02000000) != nil {
		t.Fatal("read window served while watched")
	}
	pt.EnableRead(0x02000000, 0x02003FFF, DisableWatch)
	if pt.ReadWindow(0x02000000) == nil {
		t.Fatal("read window not restored")
	}
}

func TestPageTableEnableUnmappedStaysDead(t *testing.T) {
	pt := NewPageTable()

	pt.DisableRead(0x02000000, 0x02003FFF, DisableWatch)
	pt.EnableRead(0x02000000, 0x02003FFF, DisableWatch)

	if live, mapped := pt.PageAttrs(0x02000000); live != 0 || mapped != 0 {
		t.Fatalf("enable invented attrs on an unmapped page: live %03b, mapped %03b", live, mapped)
	}
}

func TestPageTableMapWhileDisabled(t *testing.T) {
	pt := NewPageTable()
	backing := make([]byte, PageSize)

	// Disable first, then map: backup records the mapping, live stays
	// masked until the reason is lifted.
	pt.DisableWrite(0x02000000, 0x02003FFF, DisableTrace)
	pt.Map(AccessAll, backing, 0x02000000, 0x02003FFF)

	if live, mapped := pt.PageAttrs(0x02000000); live != AccessR || mapped != AccessAll {
		t.Fatalf("attrs = live %03b, mapped %03b, want live R only", live, mapped)
	}

	pt.EnableWrite(0x02000000, 0x02003FFF, DisableTrace)
	if live, _ := pt.PageAttrs(0x02000000); live != AccessAll {
		t.Fatalf("attrs = live %03b after enable, want all", live)
	}
}

func assertPanics(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: no panic", name)
		}
	}()
	f()
}
