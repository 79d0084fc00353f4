package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type regInfo struct {
	regPtr any
	offset uint32
}

// hwioTag is the parsed form of a `hwio:"..."` struct tag. Options are comma
// separated, either flags (rcb, readonly, ...) or key=value pairs. Numeric
// values accept any base strconv understands (0x prefix for hex).
type hwioTag struct {
	offset    uint32
	hasOffset bool
	bank      int
	reset     uint64
	hasReset  bool
	rwmask    uint64
	hasRwmask bool
	size      int
	vsize     int
	rcb       bool
	rcbName   string
	wcb       bool
	wcbName   string
	pcb       bool
	pcbName   string
	readonly  bool
	writeonly bool
}

func parseHwioTag(s string) (*hwioTag, error) {
	tag := &hwioTag{}
	for _, opt := range strings.Split(s, ",") {
		key, val, hasVal := strings.Cut(opt, "=")
		uval := func(bits int) (uint64, error) {
			if !hasVal {
				return 0, fmt.Errorf("option %q requires a value", key)
			}
			return strconv.ParseUint(val, 0, bits)
		}

		var err error
		var v uint64
		switch key {
		case "offset":
			v, err = uval(32)
			tag.offset = uint32(v)
			tag.hasOffset = true
		case "bank":
			v, err = uval(16)
			tag.bank = int(v)
		case "reset":
			tag.reset, err = uval(64)
			tag.hasReset = true
		case "rwmask":
			tag.rwmask, err = uval(64)
			tag.hasRwmask = true
		case "size":
			v, err = uval(32)
			tag.size = int(v)
		case "vsize":
			v, err = uval(32)
			tag.vsize = int(v)
		case "rcb":
			tag.rcb, tag.rcbName = true, val
		case "wcb":
			tag.wcb, tag.wcbName = true, val
		case "pcb":
			tag.pcb, tag.pcbName = true, val
		case "readonly":
			tag.readonly = true
		case "writeonly":
			tag.writeonly = true
		default:
			return nil, fmt.Errorf("unknown hwio tag option %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("hwio tag option %q: %v", opt, err)
		}
	}
	if tag.readonly && tag.writeonly {
		return nil, fmt.Errorf("readonly and writeonly are mutually exclusive")
	}
	return tag, nil
}

func (tag *hwioTag) flags() RWFlags {
	var f RWFlags
	if tag.readonly {
		f |= ReadOnlyFlag
	}
	if tag.writeonly {
		f |= WriteOnlyFlag
	}
	return f
}

// cbName returns the bank method name bound to a callback option: the
// explicit name when the tag carries one (rcb=SomeMethod), otherwise the
// conventional prefix+FIELDNAME form (field Ctrl, rcb -> ReadCTRL).
func cbName(prefix, field, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return prefix + strings.ToUpper(field)
}

// lookupCb resolves a callback method on the bank value, checking its
// signature matches T.
func lookupCb[T any](bank reflect.Value, name string) (T, error) {
	var zero T
	m := bank.MethodByName(name)
	if !m.IsValid() {
		return zero, fmt.Errorf("callback method %s not found", name)
	}
	cb, ok := m.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("callback method %s has type %s, want %s",
			name, m.Type(), reflect.TypeFor[T]())
	}
	return cb, nil
}

type bankField struct {
	name   string
	regPtr any
	tag    *hwioTag
}

func bankFields(bank any) ([]bankField, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("bank must be a pointer to struct, got %T", bank)
	}

	var fields []bankField
	sv := v.Elem()
	st := sv.Type()
	for i := range st.NumField() {
		f := st.Field(i)
		tagstr, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		tag, err := parseHwioTag(tagstr)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %v", st.Name(), f.Name, err)
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("%s.%s: hwio fields must be exported", st.Name(), f.Name)
		}
		fields = append(fields, bankField{
			name:   f.Name,
			regPtr: sv.Field(i).Addr().Interface(),
			tag:    tag,
		})
	}
	return fields, nil
}

// InitRegs initializes every hwio-tagged field of the bank structure: name,
// reset value, read-only mask, access flags and callbacks, resolved by naming
// convention on the bank's method set. Fields are initialized whether or not
// they carry an offset; the offset only matters to MapBank.
func InitRegs(bank any) error {
	fields, err := bankFields(bank)
	if err != nil {
		return err
	}

	bv := reflect.ValueOf(bank)
	for _, f := range fields {
		var err error
		switch reg := f.regPtr.(type) {
		case *Reg8:
			err = initReg8(bv, f.name, reg, f.tag)
		case *Reg16:
			err = initReg16(bv, f.name, reg, f.tag)
		case *Reg32:
			err = initReg32(bv, f.name, reg, f.tag)
		case *Mem:
			err = initMem(bv, f.name, reg, f.tag)
		case *Device:
			err = initDevice(bv, f.name, reg, f.tag)
		default:
			err = fmt.Errorf("unsupported hwio field type %T", reg)
		}
		if err != nil {
			return fmt.Errorf("%s: %v", f.name, err)
		}
	}
	return nil
}

func MustInitRegs(bank any) {
	if err := InitRegs(bank); err != nil {
		panic(err)
	}
}

func initReg8(bank reflect.Value, name string, reg *Reg8, tag *hwioTag) error {
	reg.Name = name
	reg.Flags = tag.flags()
	if tag.hasReset {
		if tag.reset > 0xFF {
			return fmt.Errorf("reset value %#x too big for Reg8", tag.reset)
		}
		reg.Value = uint8(tag.reset)
	}
	if tag.hasRwmask {
		if tag.rwmask > 0xFF {
			return fmt.Errorf("rwmask %#x too big for Reg8", tag.rwmask)
		}
		reg.RoMask = ^uint8(tag.rwmask)
	}

	var err error
	if tag.rcb {
		reg.ReadCb, err = lookupCb[func(uint8) uint8](bank, cbName("Read", name, tag.rcbName))
		if err != nil {
			return err
		}
	}
	if tag.pcb {
		reg.PeekCb, err = lookupCb[func(uint8) uint8](bank, cbName("Peek", name, tag.pcbName))
		if err != nil {
			return err
		}
	}
	if tag.wcb {
		reg.WriteCb, err = lookupCb[func(uint8, uint8)](bank, cbName("Write", name, tag.wcbName))
		if err != nil {
			return err
		}
	}
	return nil
}

func initReg16(bank reflect.Value, name string, reg *Reg16, tag *hwioTag) error {
	reg.Name = name
	reg.Flags = tag.flags()
	if tag.hasReset {
		if tag.reset > 0xFFFF {
			return fmt.Errorf("reset value %#x too big for Reg16", tag.reset)
		}
		reg.Value = uint16(tag.reset)
	}
	if tag.hasRwmask {
		if tag.rwmask > 0xFFFF {
			return fmt.Errorf("rwmask %#x too big for Reg16", tag.rwmask)
		}
		reg.RoMask = ^uint16(tag.rwmask)
	}

	var err error
	if tag.rcb {
		reg.ReadCb, err = lookupCb[func(uint16) uint16](bank, cbName("Read", name, tag.rcbName))
		if err != nil {
			return err
		}
	}
	if tag.pcb {
		reg.PeekCb, err = lookupCb[func(uint16) uint16](bank, cbName("Peek", name, tag.pcbName))
		if err != nil {
			return err
		}
	}
	if tag.wcb {
		reg.WriteCb, err = lookupCb[func(uint16, uint16)](bank, cbName("Write", name, tag.wcbName))
		if err != nil {
			return err
		}
	}
	return nil
}

func initReg32(bank reflect.Value, name string, reg *Reg32, tag *hwioTag) error {
	reg.Name = name
	reg.Flags = tag.flags()
	if tag.hasReset {
		if tag.reset > 0xFFFFFFFF {
			return fmt.Errorf("reset value %#x too big for Reg32", tag.reset)
		}
		reg.Value = uint32(tag.reset)
	}
	if tag.hasRwmask {
		if tag.rwmask > 0xFFFFFFFF {
			return fmt.Errorf("rwmask %#x too big for Reg32", tag.rwmask)
		}
		reg.RoMask = ^uint32(tag.rwmask)
	}

	var err error
	if tag.rcb {
		reg.ReadCb, err = lookupCb[func(uint32) uint32](bank, cbName("Read", name, tag.rcbName))
		if err != nil {
			return err
		}
	}
	if tag.pcb {
		reg.PeekCb, err = lookupCb[func(uint32) uint32](bank, cbName("Peek", name, tag.pcbName))
		if err != nil {
			return err
		}
	}
	if tag.wcb {
		reg.WriteCb, err = lookupCb[func(uint32, uint32)](bank, cbName("Write", name, tag.wcbName))
		if err != nil {
			return err
		}
	}
	return nil
}

func initMem(bank reflect.Value, name string, mem *Mem, tag *hwioTag) error {
	mem.Name = name
	if tag.readonly {
		mem.Flags |= MemFlagReadOnly
	}
	if mem.Data == nil {
		if tag.size == 0 {
			return fmt.Errorf("hwio.Mem requires a size option (or preset Data)")
		}
		mem.Data = make([]byte, tag.size)
	}
	mem.VSize = len(mem.Data)
	if tag.vsize != 0 {
		mem.VSize = tag.vsize
	}

	var err error
	if tag.wcb {
		mem.WriteCb, err = lookupCb[func(uint32, uint8)](bank, cbName("Write", name, tag.wcbName))
		if err != nil {
			return err
		}
	}
	return nil
}

func initDevice(bank reflect.Value, name string, dev *Device, tag *hwioTag) error {
	dev.Name = name
	dev.Flags = tag.flags()
	if tag.size == 0 {
		return fmt.Errorf("hwio.Device requires a size option")
	}
	dev.Size = tag.size

	var err error
	if tag.rcb {
		dev.ReadCb, err = lookupCb[func(uint32) uint8](bank, cbName("Read", name, tag.rcbName))
		if err != nil {
			return err
		}
	}
	if tag.pcb {
		dev.PeekCb, err = lookupCb[func(uint32) uint8](bank, cbName("Peek", name, tag.pcbName))
		if err != nil {
			return err
		}
	}
	if tag.wcb {
		dev.WriteCb, err = lookupCb[func(uint32, uint8)](bank, cbName("Write", name, tag.wcbName))
		if err != nil {
			return err
		}
	}
	return nil
}

// bankGetRegs returns the mappable registers of the given bank number: the
// hwio-tagged fields carrying an offset and matching the bank.
func bankGetRegs(bank any, bankNum int) ([]regInfo, error) {
	fields, err := bankFields(bank)
	if err != nil {
		return nil, err
	}

	var regs []regInfo
	for _, f := range fields {
		if !f.tag.hasOffset || f.tag.bank != bankNum {
			continue
		}
		regs = append(regs, regInfo{regPtr: f.regPtr, offset: f.tag.offset})
	}
	return regs, nil
}
