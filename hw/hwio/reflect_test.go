package hwio

import "testing"

type test1 struct {
	Reg1   Reg8  `hwio:"offset=0x111,reset=0x23,rwmask=0x1,wcb"`
	Reg2   Reg8  `hwio:"offset=0x444,bank=1,rcb"`
	Reg3   Reg16 `hwio:"offset=0x200,reset=0x8080,rwmask=0xF0F0"`
	Reg4   Reg32 `hwio:"offset=0x204,reset=0xDEADBEEF,readonly"`
	called bool
}

func (t *test1) WriteREG1(old, val uint8) {
	t.called = true
}

func (t *test1) ReadREG2(val uint8) uint8 {
	return val | 1
}

func TestReflect(t *testing.T) {
	ts := &test1{}

	err := InitRegs(ts)
	if err != nil {
		t.Fatal(err)
	}

	t.Log(ts)
	if ts.Reg1.Name != "Reg1" || ts.Reg2.Name != "Reg2" {
		t.Error("invalid names:", ts.Reg1, ts.Reg2)
	}

	if ts.Reg2.Read8(0) != 1 {
		t.Error("invalid read8:", ts.Reg2.Read8(0))
	}

	val := ts.Reg1.Read8(0)
	if val != 0x23 {
		t.Error("invalid read8", val)
	}

	ts.Reg1.Write8(0, 0)
	if ts.Reg1.Value != 0x22 {
		t.Error("invalid read after rwmask", ts.Reg1.Value)
	}
	if !ts.called {
		t.Error("callback not called")
	}

	ts.Reg3.Write16(0, 0xFFFF)
	if ts.Reg3.Value != 0xF0F0 {
		t.Errorf("invalid reg16 after rwmask: %04x", ts.Reg3.Value)
	}

	ts.Reg4.Write32(0, 0)
	if ts.Reg4.Value != 0xDEADBEEF {
		t.Errorf("readonly reg32 modified: %08x", ts.Reg4.Value)
	}
}

func TestParseBank(t *testing.T) {
	ts := &test1{}
	info, err := bankGetRegs(ts, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(info) != 3 {
		t.Fatal("wrong number of regs in bank:", len(info))
	}
	if info[0].offset != 0x111 {
		t.Errorf("invalid reg offset: %x", info[0].offset)
	}

	rptr, ok := info[0].regPtr.(*Reg8)
	if !ok {
		t.Errorf("invalid reg ptr type: %T", info[0].regPtr)
	} else if rptr != &ts.Reg1 {
		t.Errorf("invalid reg ptr")
	}

	info, err = bankGetRegs(ts, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(info) != 1 {
		t.Fatal("wrong number of regs in bank:", len(info))
	}
	if info[0].offset != 0x444 {
		t.Errorf("invalid reg offset: %x", info[0].offset)
	}
}

func TestReadWriteOnly(t *testing.T) {
	type test2 struct {
		Reg1 Reg8 `hwio:"reset=0x23,readonly"`
		Reg2 Reg8 `hwio:"writeonly"`
	}

	ts := &test2{}
	err := InitRegs(ts)
	if err != nil {
		t.Fatal(err)
	}

	ts.Reg1.Write8(0, 0) // this should be ignored
	if ts.Reg1.Read8(0) != 0x23 {
		t.Error("invalid reg1 read:", ts.Reg1.Read8(0))
	}

	ts.Reg2.Write8(0, 0x23)
	if ts.Reg2.Read8(0) != 0 {
		t.Error("invalid reg2 read:", ts.Reg2.Read8(0))
	}
}

func TestValuesTooBig(t *testing.T) {
	type test3 struct {
		R Reg8 `hwio:"reset=0x123"`
	}
	type test4 struct {
		R Reg16 `hwio:"rwmask=0x12345"`
	}

	ts := &test3{}
	err := InitRegs(ts)
	if err == nil {
		t.Fatal("initregs should fail")
	}

	ts2 := &test4{}
	err = InitRegs(ts2)
	if err == nil {
		t.Fatal("initregs should fail")
	}
}

func TestMissingCallback(t *testing.T) {
	type test5 struct {
		R Reg8 `hwio:"offset=0,rcb"`
	}

	ts := &test5{}
	if err := InitRegs(ts); err == nil {
		t.Fatal("initregs should fail on missing callback method")
	}
}
