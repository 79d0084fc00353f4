package hw

// Timing pages are much coarser than bus pages: access cost only
// varies by large region, and the DMA inner loop re-fetches costs only
// when a cursor crosses a timing page.
const (
	Arm7TimingShift = 15
	Arm9TimingShift = 24
)

// AccessCycles is the cost of one ARM7-side data access, in machine
// cycles, split by width and sequentiality.
type AccessCycles struct {
	N32, S32, N16, S16 uint8
}

// Arm9AccessCycles is the ARM9-side cost, in ARM9 cycles. Code fetches
// price differently from data.
type Arm9AccessCycles struct {
	N32, S32, N16, S16, Code uint8
}

type Arm7Timings struct {
	pages []AccessCycles
}

func NewArm7Timings() *Arm7Timings {
	t := &Arm7Timings{pages: make([]AccessCycles, 1<<(32-Arm7TimingShift))}
	t.SetRange(0x00000000, 0xFFFFFFFF, AccessCycles{N32: 1, S32: 1, N16: 1, S16: 1})
	t.SetRange(0x02000000, 0x02FFFFFF, AccessCycles{N32: 9, S32: 2, N16: 8, S16: 1})
	t.SetRange(0x06000000, 0x06FFFFFF, AccessCycles{N32: 2, S32: 2, N16: 1, S16: 1})
	return t
}

func (t *Arm7Timings) Get(addr uint32) AccessCycles {
	return t.pages[addr>>Arm7TimingShift]
}

func (t *Arm7Timings) SetRange(lower, upper uint32, c AccessCycles) {
	for page := lower >> Arm7TimingShift; ; page++ {
		t.pages[page] = c
		if page == upper>>Arm7TimingShift {
			return
		}
	}
}

type Arm9Timings struct {
	pages [1 << (32 - Arm9TimingShift)]Arm9AccessCycles
}

func NewArm9Timings() *Arm9Timings {
	t := new(Arm9Timings)
	t.SetRange(0x00000000, 0xFFFFFFFF, Arm9AccessCycles{N32: 8, S32: 2, N16: 8, S16: 2, Code: 8})
	t.SetRange(0x02000000, 0x02FFFFFF, Arm9AccessCycles{N32: 20, S32: 4, N16: 18, S16: 2, Code: 18})
	t.SetRange(0x05000000, 0x06FFFFFF, Arm9AccessCycles{N32: 10, S32: 4, N16: 8, S16: 2, Code: 10})
	return t
}

func (t *Arm9Timings) Get(addr uint32) Arm9AccessCycles {
	return t.pages[addr>>Arm9TimingShift]
}

func (t *Arm9Timings) SetRange(lower, upper uint32, c Arm9AccessCycles) {
	for page := lower >> Arm9TimingShift; ; page++ {
		t.pages[page] = c
		if page == upper>>Arm9TimingShift {
			return
		}
	}
}
