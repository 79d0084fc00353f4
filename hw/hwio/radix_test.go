package hwio

import "testing"

func TestRadixInsertSearch(t *testing.T) {
	var tree radixTree

	a, b := "a", "b"
	if err := tree.InsertRange(0x02000000, 0x02FFFFFF, a); err != nil {
		t.Fatal(err)
	}
	if err := tree.InsertRange(0x02400000, 0x024000FF, b); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		addr uint32
		want any
	}{
		{0x01FFFFFF, nil},
		{0x02000000, a},
		{0x023FFFFF, a},
		{0x02400000, b},
		{0x024000FF, b},
		{0x02400100, a},
		{0x02FFFFFF, a},
		{0x03000000, nil},
	}
	for _, tt := range tests {
		if got := tree.Search(tt.addr); got != tt.want {
			t.Errorf("Search(%08X) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestRadixRemove(t *testing.T) {
	var tree radixTree

	a := "a"
	if err := tree.InsertRange(0x04000000, 0x04000FFF, a); err != nil {
		t.Fatal(err)
	}

	tree.RemoveRange(0x04000100, 0x040001FF)

	if got := tree.Search(0x040000FF); got != a {
		t.Errorf("Search(040000FF) = %v, want a", got)
	}
	if got := tree.Search(0x04000180); got != nil {
		t.Errorf("Search(04000180) = %v, want nil", got)
	}
	if got := tree.Search(0x04000200); got != a {
		t.Errorf("Search(04000200) = %v, want a", got)
	}

	// Removing over the whole span, overshooting both ends.
	tree.RemoveRange(0x03000000, 0x05000000)
	if got := tree.Search(0x04000000); got != nil {
		t.Errorf("Search(04000000) = %v, want nil", got)
	}
}

func TestRadixReplace(t *testing.T) {
	var tree radixTree

	a, b := "a", "b"
	if err := tree.InsertRange(0x06000000, 0x067FFFFF, a); err != nil {
		t.Fatal(err)
	}
	// Remapping a subrange replaces the previous owner.
	if err := tree.InsertRange(0x06200000, 0x063FFFFF, b); err != nil {
		t.Fatal(err)
	}

	if got := tree.Search(0x06100000); got != a {
		t.Errorf("Search(06100000) = %v, want a", got)
	}
	if got := tree.Search(0x06300000); got != b {
		t.Errorf("Search(06300000) = %v, want b", got)
	}

	if err := tree.InsertRange(0x100, 0xFF, a); err == nil {
		t.Error("InsertRange with hi < lo should fail")
	}
}

func TestRadixSingleByte(t *testing.T) {
	var tree radixTree

	a := "a"
	if err := tree.InsertRange(0x04000208, 0x04000208, a); err != nil {
		t.Fatal(err)
	}
	if got := tree.Search(0x04000208); got != a {
		t.Errorf("Search(04000208) = %v, want a", got)
	}
	if got := tree.Search(0x04000207); got != nil {
		t.Errorf("Search(04000207) = %v, want nil", got)
	}
	if got := tree.Search(0x04000209); got != nil {
		t.Errorf("Search(04000209) = %v, want nil", got)
	}
}
