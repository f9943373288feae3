package program

import "fmt"

// Mnemonic names an instruction independent of its addressing mode.
type Mnemonic uint8

const (
	InvalidMnemonic Mnemonic = iota
	LDA
	LDB
	LDC
	LDX
	LDY
	STA
	STB
	STC
	STX
	STY
	EQ
	NE
	GT
	LT
	GQ
	LQ
	AND
	OR
	ADD
	SUB
	MUL
	EXP
	DIV
	MOD
	JMP
	JMPA
	CALL
	RET
	PUSH
	SPUS
	LEN
	A2I
	A2F
	A2D
	A2B
	A2S
	A2C
	A2O
	ARR
	STR
	SAR
	POPS
	BRK
	CALLN
	CO
	FN
	DEA
)

var mnemonicNames = [...]string{
	InvalidMnemonic: "???",
	LDA:             "LDA",
	LDB:             "LDB",
	LDC:             "LDC",
	LDX:             "LDX",
	LDY:             "LDY",
	STA:             "STA",
	STB:             "STB",
	STC:             "STC",
	STX:             "STX",
	STY:             "STY",
	EQ:              "EQ",
	NE:              "NE",
	GT:              "GT",
	LT:              "LT",
	GQ:              "GQ",
	LQ:              "LQ",
	AND:             "AND",
	OR:              "OR",
	ADD:             "ADD",
	SUB:             "SUB",
	MUL:             "MUL",
	EXP:             "EXP",
	DIV:             "DIV",
	MOD:             "MOD",
	JMP:             "JMP",
	JMPA:            "JMPA",
	CALL:            "CALL",
	RET:             "RET",
	PUSH:            "PUSH",
	SPUS:            "SPUS",
	LEN:             "LEN",
	A2I:             "A2I",
	A2F:             "A2F",
	A2D:             "A2D",
	A2B:             "A2B",
	A2S:             "A2S",
	A2C:             "A2C",
	A2O:             "A2O",
	ARR:             "ARR",
	STR:             "STR",
	SAR:             "SAR",
	POPS:            "POPS",
	BRK:             "BRK",
	CALLN:           "CALLN",
	CO:              "CO",
	FN:              "FN",
	DEA:             "DEA",
}

func (m Mnemonic) String() string {
	if int(m) < len(mnemonicNames) {
		return mnemonicNames[m]
	}
	return fmt.Sprintf("Mnemonic(%d)", uint8(m))
}

// ParseMnemonic looks up a mnemonic by name.
func ParseMnemonic(name string) (Mnemonic, bool) {
	for i, n := range mnemonicNames {
		if n == name && i != int(InvalidMnemonic) {
			return Mnemonic(i), true
		}
	}
	return InvalidMnemonic, false
}

// OpInfo is one row of the opcode table.
type OpInfo struct {
	Mnemonic Mnemonic
	Mode     AddressingMode
}

// opTable maps every op_code byte to its instruction and addressing mode.
// Unlisted bytes are illegal.
var opTable = [256]OpInfo{
	1:   {LDA, Immediate},
	2:   {LDA, Absolute},
	3:   {LDA, AbsoluteIndex},
	4:   {LDA, AbsoluteProperty},
	5:   {LDA, AbsoluteStatic},
	6:   {LDA, IndirectB},
	7:   {LDA, IndirectC},
	8:   {LDA, IndirectX},
	9:   {LDA, IndirectY},
	10:  {LDB, Immediate},
	11:  {LDB, Absolute},
	12:  {LDB, AbsoluteIndex},
	13:  {LDB, AbsoluteProperty},
	14:  {LDB, AbsoluteStatic},
	15:  {LDB, IndirectA},
	16:  {LDB, IndirectC},
	17:  {LDB, IndirectX},
	18:  {LDB, IndirectY},
	19:  {LDC, Immediate},
	20:  {LDC, Absolute},
	21:  {LDC, AbsoluteIndex},
	22:  {LDC, AbsoluteProperty},
	23:  {LDC, AbsoluteStatic},
	24:  {LDC, IndirectA},
	25:  {LDC, IndirectB},
	26:  {LDC, IndirectX},
	27:  {LDC, IndirectY},
	28:  {LDX, Immediate},
	29:  {LDX, Absolute},
	30:  {LDX, AbsoluteIndex},
	31:  {LDX, AbsoluteProperty},
	32:  {LDX, AbsoluteStatic},
	33:  {LDX, IndirectA},
	34:  {LDX, IndirectB},
	35:  {LDX, IndirectC},
	36:  {LDX, IndirectY},
	37:  {LDY, Immediate},
	38:  {LDY, Absolute},
	39:  {LDY, AbsoluteIndex},
	40:  {LDY, AbsoluteProperty},
	41:  {LDY, AbsoluteStatic},
	42:  {LDY, IndirectA},
	43:  {LDY, IndirectB},
	44:  {LDY, IndirectC},
	45:  {LDY, IndirectX},
	46:  {STA, Implicit},
	47:  {STA, Immediate},
	48:  {STA, Absolute},
	49:  {STA, AbsoluteIndex},
	50:  {STA, AbsoluteProperty},
	51:  {STB, Implicit},
	52:  {STB, Immediate},
	53:  {STB, Absolute},
	54:  {STB, AbsoluteIndex},
	55:  {STB, AbsoluteProperty},
	56:  {STC, Implicit},
	57:  {STC, Immediate},
	58:  {STC, Absolute},
	59:  {STC, AbsoluteIndex},
	60:  {STC, AbsoluteProperty},
	61:  {STX, Implicit},
	62:  {STX, Immediate},
	63:  {STX, Absolute},
	64:  {STX, AbsoluteIndex},
	65:  {STX, AbsoluteProperty},
	66:  {STY, Implicit},
	67:  {STY, Immediate},
	68:  {STY, Absolute},
	69:  {STY, AbsoluteIndex},
	70:  {STY, AbsoluteProperty},
	71:  {EQ, Implicit},
	72:  {NE, Implicit},
	73:  {GT, Implicit},
	74:  {LT, Implicit},
	75:  {GQ, Implicit},
	76:  {LQ, Implicit},
	77:  {AND, Implicit},
	78:  {OR, Implicit},
	79:  {ADD, Implicit},
	80:  {SUB, Implicit},
	81:  {MUL, Implicit},
	82:  {EXP, Implicit},
	83:  {DIV, Implicit},
	84:  {MOD, Implicit},
	85:  {JMP, Absolute},
	86:  {JMPA, Absolute},
	87:  {CALL, Absolute},
	88:  {RET, Implicit},
	89:  {PUSH, Absolute},
	90:  {PUSH, AbsoluteIndex},
	91:  {PUSH, IndirectA},
	92:  {PUSH, IndirectB},
	93:  {PUSH, IndirectC},
	94:  {PUSH, IndirectX},
	95:  {PUSH, IndirectY},
	96:  {SPUS, Absolute},
	97:  {SPUS, AbsoluteIndex},
	98:  {SPUS, IndirectA},
	99:  {SPUS, IndirectB},
	100: {SPUS, IndirectC},
	101: {SPUS, IndirectX},
	102: {SPUS, IndirectY},
	103: {LEN, Absolute},
	104: {A2I, Implicit},
	105: {A2F, Implicit},
	106: {A2D, Implicit},
	107: {A2B, Implicit},
	108: {A2S, Implicit},
	109: {A2C, Implicit},
	110: {A2O, Implicit},
	111: {ARR, Implicit},
	112: {STR, Implicit},
	113: {SAR, Immediate},
	114: {POPS, Absolute},
	115: {BRK, Implicit},
	116: {CALLN, Absolute},
	117: {CO, Absolute},
	118: {FN, Immediate},
	119: {DEA, Absolute},
}

var reverseTable = func() map[OpInfo]byte {
	m := make(map[OpInfo]byte, len(opTable))
	for op, info := range opTable {
		if info.Mnemonic != InvalidMnemonic {
			m[info] = byte(op)
		}
	}
	return m
}()

// Lookup returns the table row for op.
func Lookup(op byte) (OpInfo, bool) {
	info := opTable[op]
	return info, info.Mnemonic != InvalidMnemonic
}

// OpCodeFor returns the op_code byte for an instruction in a given mode.
func OpCodeFor(m Mnemonic, mode AddressingMode) (byte, bool) {
	op, ok := reverseTable[OpInfo{Mnemonic: m, Mode: mode}]
	return op, ok
}

// Modes lists the addressing modes an instruction accepts, in op_code order.
func Modes(m Mnemonic) []AddressingMode {
	var modes []AddressingMode
	for _, info := range opTable {
		if info.Mnemonic == m {
			modes = append(modes, info.Mode)
		}
	}
	return modes
}
