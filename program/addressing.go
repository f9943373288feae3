package program

import (
	"fmt"
	"strconv"

	"github.com/wippyai/ellie-vm/raw"
)

// AddressingMode selects how an instruction locates its operand.
type AddressingMode uint8

const (
	Implicit AddressingMode = iota
	Immediate
	Absolute
	AbsoluteIndex
	AbsoluteProperty
	AbsoluteStatic
	IndirectA
	IndirectB
	IndirectC
	IndirectX
	IndirectY
)

var modeNames = [...]string{
	Implicit:         "implicit",
	Immediate:        "immediate",
	Absolute:         "absolute",
	AbsoluteIndex:    "absolute_index",
	AbsoluteProperty: "absolute_property",
	AbsoluteStatic:   "absolute_static",
	IndirectA:        "indirect_a",
	IndirectB:        "indirect_b",
	IndirectC:        "indirect_c",
	IndirectX:        "indirect_x",
	IndirectY:        "indirect_y",
}

func (m AddressingMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "AddressingMode(" + strconv.Itoa(int(m)) + ")"
}

// IsIndirect reports whether the operand is another register.
func (m AddressingMode) IsIndirect() bool {
	return m >= IndirectA && m <= IndirectY
}

// Register returns the register letter an indirect mode names.
func (m AddressingMode) Register() byte {
	if !m.IsIndirect() {
		return 0
	}
	return "ABCXY"[m-IndirectA]
}

// OperandSize returns the number of operand bytes following the op_code.
func (m AddressingMode) OperandSize(arch raw.Arch) int {
	w := arch.PtrWidth()
	switch m {
	case Immediate:
		return 1 + w + 8
	case Absolute, AbsoluteStatic:
		return w
	case AbsoluteIndex, AbsoluteProperty:
		return 2 * w
	}
	return 0
}

// Operand holds the decoded addressing value. Which fields are meaningful
// depends on the addressing mode: Immediate uses Immediate, Absolute and
// AbsoluteStatic use Pointer, AbsoluteIndex and AbsoluteProperty use Pointer
// and Index, the rest carry nothing.
type Operand struct {
	Immediate raw.Static
	Pointer   int
	Index     int
}

func formatImmediate(v raw.Static) string {
	t := v.Type
	var payload string
	switch t.ID {
	case raw.IDInt:
		payload = strconv.FormatInt(v.AsInt(), 10)
	case raw.IDFloat:
		payload = strconv.FormatFloat(float64(v.AsFloat()), 'g', -1, 32)
	case raw.IDDouble:
		payload = strconv.FormatFloat(v.AsDouble(), 'g', -1, 64)
	case raw.IDByte:
		payload = fmt.Sprintf("0x%d", v.AsByte())
	case raw.IDBool:
		payload = strconv.FormatBool(v.AsBool())
	case raw.IDString:
		payload = fmt.Sprintf("string[%d]", int64(v.Uint()))
	case raw.IDChar:
		payload = strconv.QuoteRune(v.AsChar())
	case raw.IDStaticArray:
		payload = fmt.Sprintf("static_array[%d]", int64(v.Uint()))
	case raw.IDArray:
		payload = fmt.Sprintf("array[%d]", int64(v.Uint()))
	case raw.IDClass:
		payload = fmt.Sprintf("class(%d)", int64(v.Uint()))
	case raw.IDFunction:
		payload = fmt.Sprintf("fn(%d)", v.Uint())
	case raw.IDHeapReference:
		payload = fmt.Sprintf("href(%d)", int64(v.Uint()))
	case raw.IDStackReference:
		payload = fmt.Sprintf("sref(%d)", int64(v.Uint()))
	case raw.IDVoid, raw.IDNull:
	default:
		payload = fmt.Sprintf("%#x", v.Uint())
	}
	return "#(" + t.String() + ")" + payload
}

func formatOperand(mode AddressingMode, op Operand) string {
	switch mode {
	case Immediate:
		return formatImmediate(op.Immediate)
	case Absolute:
		return "$" + strconv.Itoa(op.Pointer)
	case AbsoluteIndex:
		return fmt.Sprintf("$%d[$%d]", op.Pointer, op.Index)
	case AbsoluteProperty:
		return fmt.Sprintf("@%d[%d]", op.Pointer, op.Index)
	case AbsoluteStatic:
		return "$x" + strconv.Itoa(op.Pointer)
	case IndirectA, IndirectB, IndirectC, IndirectX, IndirectY:
		return "@" + string(mode.Register())
	}
	return ""
}
