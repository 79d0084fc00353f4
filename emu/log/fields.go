package log

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

type FieldType uint8

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeBool
	FieldTypeString
	FieldTypeHex8
	FieldTypeHex16
	FieldTypeHex32
	FieldTypeHex64
	FieldTypeInt
	FieldTypeError
	FieldTypeDuration
	FieldTypeStringer
	FieldTypeBlob
)

type ZField struct {
	Type      FieldType
	Key       string
	String    string
	Integer   int64
	Duration  time.Duration
	Error     error
	Interface any
	Boolean   bool
	Blob      []byte
}

func (f ZField) Value() any {
	switch f.Type {
	case FieldTypeBool:
		return f.Boolean
	case FieldTypeString:
		return f.String
	case FieldTypeHex8:
		return fmt.Sprintf("%02x", uint8(f.Integer))
	case FieldTypeHex16:
		return fmt.Sprintf("%04x", uint16(f.Integer))
	case FieldTypeHex32:
		return fmt.Sprintf("%08x", uint32(f.Integer))
	case FieldTypeHex64:
		return fmt.Sprintf("%016x", uint64(f.Integer))
	case FieldTypeInt:
		return strconv.FormatInt(f.Integer, 10)
	case FieldTypeError:
		return f.Error
	case FieldTypeDuration:
		return f.Duration
	case FieldTypeStringer:
		return f.Interface.(fmt.Stringer).String()
	case FieldTypeBlob:
		return "\n" + hex.Dump(f.Blob)
	default:
		return "???"
	}
}
