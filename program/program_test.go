package program

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/raw"
)

func sampleProgram(arch raw.Arch) *Program {
	return &Program{
		Arch: arch,
		Main: &Main{Start: 0, Length: 9, Hash: 1},
		Instructions: []Instruction{
			Imm(LDA, raw.Int(2)),
			Abs(STA, 0),
			Imm(LDA, raw.Int(3)),
			Abs(STA, 1),
			Abs(LDB, 0),
			Abs(LDC, 1),
			Imp(ADD),
			AbsIndex(LDA, 2, 3),
			AbsProperty(STB, 4, 5),
			AbsStatic(LDX, 6),
			Ind(LDY, 'A'),
			Imp(RET),
		},
	}
}

func TestOpcodeTable(t *testing.T) {
	count := 0
	for op := 0; op < 256; op++ {
		info, ok := Lookup(byte(op))
		if !ok {
			continue
		}
		count++
		back, ok := OpCodeFor(info.Mnemonic, info.Mode)
		if !ok || back != byte(op) {
			t.Errorf("OpCodeFor(%s, %s) = %d, want %d", info.Mnemonic, info.Mode, back, op)
		}
	}
	if count != 119 {
		t.Errorf("table has %d opcodes, want 119", count)
	}

	tests := []struct {
		op   byte
		m    Mnemonic
		mode AddressingMode
	}{
		{1, LDA, Immediate},
		{48, STA, Absolute},
		{79, ADD, Implicit},
		{85, JMP, Absolute},
		{87, CALL, Absolute},
		{88, RET, Implicit},
		{116, CALLN, Absolute},
		{118, FN, Immediate},
		{119, DEA, Absolute},
	}
	for _, tt := range tests {
		info, ok := Lookup(tt.op)
		if !ok || info.Mnemonic != tt.m || info.Mode != tt.mode {
			t.Errorf("Lookup(%d) = %v %v, want %v %v", tt.op, info.Mnemonic, info.Mode, tt.m, tt.mode)
		}
	}

	if _, ok := Lookup(0); ok {
		t.Error("op_code 0 must be illegal")
	}
	if _, ok := Lookup(200); ok {
		t.Error("op_code 200 must be illegal")
	}
	if _, err := New(ADD, Absolute, Operand{}); err == nil {
		t.Error("ADD has no absolute form")
	}
	if m, ok := ParseMnemonic("CALLN"); !ok || m != CALLN {
		t.Errorf("ParseMnemonic(CALLN) = %v, %v", m, ok)
	}
	if got := Modes(LDA); len(got) != 9 || got[0] != Immediate {
		t.Errorf("Modes(LDA) = %v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, arch := range []raw.Arch{raw.Arch16, raw.Arch32, raw.Arch64} {
		t.Run(arch.String(), func(t *testing.T) {
			p := sampleProgram(arch)
			data := p.Encode()

			got, err := Decode(data, WithRequireMain(true))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, p) {
				t.Errorf("decode(encode(p)) differs:\n got %+v\nwant %+v", got, p)
			}
			if again := got.Encode(); !bytes.Equal(again, data) {
				t.Error("re-encoding is not byte identical")
			}
		})
	}
}

func TestEncodeLayout(t *testing.T) {
	p := &Program{
		Arch:         raw.Arch16,
		Main:         &Main{Start: 1, Length: 2, Hash: 3},
		Instructions: []Instruction{Imm(LDA, raw.Int(5)), Abs(STA, 4), Imp(RET)},
	}
	want := []byte{
		16, 1,
		1, 0, 2, 0, 3, 0,
		1, raw.IDInt, 8, 0, 5, 0, 0, 0, 0, 0, 0, 0,
		48, 4, 0,
		88,
	}
	if got := p.Encode(); !bytes.Equal(got, want) {
		t.Errorf("Encode =\n%v\nwant\n%v", got, want)
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := sampleProgram(raw.Arch64).Encode()
	noMain := (&Program{Arch: raw.Arch32, Instructions: []Instruction{Imp(RET)}}).Encode()

	// byte 2+24 is the first op_code (LDA #), cut inside its 8 byte payload
	midImmediate := valid[:2+24+1+1+8+3]

	tests := []struct {
		name string
		data []byte
		opts []DecodeOption
		code errors.DecodeCode
	}{
		{"empty", nil, nil, errors.DecodeTruncated},
		{"arch only", []byte{64}, nil, errors.DecodeTruncated},
		{"truncated main", []byte{32, 1, 0, 0}, nil, errors.DecodeTruncated},
		{"truncated immediate", midImmediate, nil, errors.DecodeTruncated},
		{"truncated absolute", []byte{16, 0, 48, 1}, nil, errors.DecodeTruncated},
		{"illegal opcode", []byte{16, 0, 88, 250}, nil, errors.DecodeIllegalOpCode},
		{"zero opcode", []byte{16, 0, 0}, nil, errors.DecodeIllegalOpCode},
		{"unknown arch", []byte{12, 0}, nil, errors.DecodeIllegalAddressing},
		{"oversized immediate", []byte{16, 0, 1, raw.IDInt, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0}, nil, errors.DecodeIllegalAddressing},
		{"missing main", noMain, []DecodeOption{WithRequireMain(true)}, errors.DecodeMissingMain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, tt.opts...)
			if err == nil {
				t.Fatal("expected error")
			}
			code, ok := errors.DecodeCodeOf(err)
			if !ok {
				t.Fatalf("error %v carries no decode code", err)
			}
			if code != tt.code {
				t.Errorf("code = %d, want %d (%v)", code, tt.code, err)
			}
		})
	}

	if _, err := Decode(noMain); err != nil {
		t.Errorf("main is optional by default: %v", err)
	}
}

func TestGenerateMainFromFunction(t *testing.T) {
	p := &Program{
		Arch: raw.Arch64,
		Instructions: []Instruction{
			Imm(FN, raw.Int(10)),
			Imm(STA, raw.Int(4)),
			Imp(RET),
			Imm(FN, raw.Int(20)),
			Imm(STA, raw.Int(7)),
			Imp(RET),
		},
	}

	m, err := p.GenerateMainFromFunction(20)
	if err != nil {
		t.Fatal(err)
	}
	if m != (Main{Start: 3, Length: 7, Hash: 20}) {
		t.Errorf("main = %+v", m)
	}

	tests := []struct {
		name string
		p    *Program
		code errors.MainCode
	}{
		{"not found", p, errors.MainNotFound},
		{"non int immediate", &Program{Instructions: []Instruction{Imm(FN, raw.Bool(true))}}, errors.MainWrongImmediate},
		{"no STA", &Program{Instructions: []Instruction{Imm(FN, raw.Int(99)), Imp(RET)}}, errors.MainWrongAddressing},
		{"STA not immediate", &Program{Instructions: []Instruction{Imm(FN, raw.Int(99)), Abs(STA, 0)}}, errors.MainWrongImmediate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.GenerateMainFromFunction(99)
			code, ok := errors.MainCodeOf(err)
			if !ok || code != tt.code {
				t.Errorf("code = %d, %v; want %d (%v)", code, ok, tt.code, err)
			}
		})
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		ins  Instruction
		want string
	}{
		{Imm(LDA, raw.Int(5)), "LDA #(int)5"},
		{Imm(LDA, raw.Bool(true)), "LDA #(bool)true"},
		{Imm(LDA, raw.Void()), "LDA #(void)"},
		{Abs(STA, 3), "STA $3"},
		{AbsIndex(LDA, 1, 2), "LDA $1[$2]"},
		{AbsProperty(LDA, 1, 2), "LDA @1[2]"},
		{AbsStatic(LDA, 4), "LDA $x4"},
		{Ind(LDB, 'A'), "LDB @A"},
		{Imp(ADD), "ADD"},
	}
	for _, tt := range tests {
		if got := tt.ins.String(); got != tt.want {
			t.Errorf("String = %q, want %q", got, tt.want)
		}
	}
}

func TestDisassembly(t *testing.T) {
	p := &Program{
		Arch:         raw.Arch16,
		Main:         &Main{Start: 0, Length: 2, Hash: 7},
		Instructions: []Instruction{Abs(STA, 1), Imp(RET)},
	}
	info := &DebugInfo{Headers: []DebugHeader{{Start: 0, End: 1, Module: "m", Name: "main", Hash: 7}}}

	want := ".arch 16\n.main 0: 2 @ 7\n.locals\n.debugHeader\nm:main = 0 : 7\n.instructions\n0: STA $1 = 48 : [1, 0]\n1: RET = 88 : []"
	if got := p.Disassembly(info); got != want {
		t.Errorf("Disassembly =\n%s\nwant\n%s", got, want)
	}

	var buf bytes.Buffer
	if err := p.Disassemble(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "m:main") {
		t.Error("headers rendered without debug info")
	}
}

func TestDebugInfo(t *testing.T) {
	text := "main: /src/main.ei\nellieStd: -\n---\n0:5:main:main:1:0:4:1:100\n2:3:main:helper::inner:2:4:2:9:200"

	info, err := ParseDebugInfo(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Modules) != 2 || info.Modules[1].Path != "" || info.Modules[0].Path != "/src/main.ei" {
		t.Errorf("modules = %+v", info.Modules)
	}
	if len(info.Headers) != 2 {
		t.Fatalf("headers = %+v", info.Headers)
	}
	h := info.Headers[1]
	if h.Name != "helper::inner" || h.Hash != 200 || h.RangeStart != (Position{2, 4}) || h.RangeEnd != (Position{2, 9}) {
		t.Errorf("header = %+v", h)
	}

	var buf bytes.Buffer
	if _, err := info.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != text {
		t.Errorf("WriteTo =\n%q\nwant\n%q", buf.String(), text)
	}

	if got, ok := info.HeaderAt(2); !ok || got.Hash != 200 {
		t.Errorf("HeaderAt(2) = %+v, %v; want the narrower header", got, ok)
	}
	if got, ok := info.HeaderAt(4); !ok || got.Hash != 100 {
		t.Errorf("HeaderAt(4) = %+v, %v", got, ok)
	}
	if _, ok := info.HeaderAt(9); ok {
		t.Error("HeaderAt(9) should miss")
	}
	if got, ok := info.HeaderByHash(100); !ok || got.Name != "main" {
		t.Errorf("HeaderByHash = %+v", got)
	}
}

func TestDebugInfoErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bad module line", "nomodule\n---\n"},
		{"short header", "---\n1:2:3"},
		{"non numeric", "---\na:2:m:n:1:1:1:1:5"},
		{"no separator", "main: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDebugInfo(strings.NewReader(tt.text))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, &errors.Error{Phase: errors.PhaseDebug, Kind: errors.KindInvalidData}) &&
				!errors.Is(err, &errors.Error{Phase: errors.PhaseDebug, Kind: errors.KindInvalidInput}) {
				t.Errorf("unexpected error class: %v", err)
			}
		})
	}

	var e *errors.Error
	_, err := ParseDebugInfo(strings.NewReader("main: x\nnomodule\n---\n"))
	if !errors.As(err, &e) || e.Kind != errors.KindInvalidData {
		t.Fatalf("bad module line = %v, want invalid data", err)
	}
	if len(e.Path) != 1 || e.Path[0] != "line 2" {
		t.Errorf("path = %v, want [line 2]", e.Path)
	}
}
