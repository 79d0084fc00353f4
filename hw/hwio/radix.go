package hwio

import "fmt"

// radixTree maps ranges of a 32-bit address space to the io objects mapped
// there.
//
// It is a fixed-depth tree with a fanout of 256: each level consumes one byte
// of the address, most significant first. A child is either nil (unmapped),
// an internal *radixNode, or a leaf io covering the child's whole span. Wide
// aligned ranges (think a RAM mirror spanning a whole 16MB region) collapse
// to a single leaf near the root, and lookups are at most four array loads.
type radixTree struct {
	root radixNode
}

type radixNode struct {
	children [256]any
}

// InsertRange maps io over the inclusive address range [lo, hi], replacing
// any previous mapping there.
func (t *radixTree) InsertRange(lo, hi uint32, io any) error {
	if hi < lo {
		return fmt.Errorf("invalid address range [%08x, %08x]", lo, hi)
	}
	t.root.insertRange(0, lo, hi, io)
	return nil
}

// RemoveRange unmaps the inclusive address range [lo, hi].
func (t *radixTree) RemoveRange(lo, hi uint32) {
	if hi < lo {
		return
	}
	t.root.insertRange(0, lo, hi, nil)
}

// Search returns the io mapped at addr, or nil.
func (t *radixTree) Search(addr uint32) any {
	n := &t.root
	for shift := 24; ; shift -= 8 {
		c := n.children[addr>>shift&0xFF]
		next, ok := c.(*radixNode)
		if !ok {
			return c
		}
		n = next
	}
}

// insertRange stores io over [lo, hi], both offsets relative to the span
// covered by n. A child fully covered by the range becomes a direct leaf;
// partial coverage splits the child into a node, seeding it with the leaf
// previously covering the whole span.
func (n *radixNode) insertRange(depth uint, lo, hi uint32, io any) {
	shift := (3 - depth) * 8
	spanMask := uint32(1)<<shift - 1

	first, last := lo>>shift, hi>>shift
	for i := first; i <= last; i++ {
		clo, chi := uint32(0), spanMask
		if i == first {
			clo = lo & spanMask
		}
		if i == last {
			chi = hi & spanMask
		}
		if clo == 0 && chi == spanMask {
			n.children[i] = io
			continue
		}

		child, ok := n.children[i].(*radixNode)
		if !ok {
			child = new(radixNode)
			if prev := n.children[i]; prev != nil {
				for j := range child.children {
					child.children[j] = prev
				}
			}
			n.children[i] = child
		}
		child.insertRange(depth+1, clo, chi, io)
	}
}
