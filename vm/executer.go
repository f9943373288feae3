package vm

import (
	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/memory"
	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/raw"
)

// Executer implements one instruction across its addressing modes.
type Executer interface {
	Execute(ctx *Context) (Result, error)
}

// ExecuterFunc adapts a function to Executer.
type ExecuterFunc func(ctx *Context) (Result, error)

func (f ExecuterFunc) Execute(ctx *Context) (Result, error) { return f(ctx) }

// Context is everything an executer may touch while running one instruction.
type Context struct {
	Heap              *memory.HeapMemory
	Stack             *memory.StackMemory
	Isolate           *memory.Isolate
	Program           *program.Program
	Frame             *Frame
	Operand           program.Operand
	MaxReferenceDepth int
	Mode              program.AddressingMode
	Arch              raw.Arch
}

// Table maps every op_code byte to its executer. Entries for illegal op_codes
// are nil.
type Table [256]Executer

var executers = map[program.Mnemonic]Executer{
	program.LDA: loadExecuter{RegA},
	program.LDB: loadExecuter{RegB},
	program.LDC: loadExecuter{RegC},
	program.LDX: loadExecuter{RegX},
	program.LDY: loadExecuter{RegY},

	program.STA: storeExecuter{RegA},
	program.STB: storeExecuter{RegB},
	program.STC: storeExecuter{RegC},
	program.STX: storeExecuter{RegX},
	program.STY: storeExecuter{RegY},

	program.EQ:  compareExecuter{program.EQ},
	program.NE:  compareExecuter{program.NE},
	program.GT:  compareExecuter{program.GT},
	program.LT:  compareExecuter{program.LT},
	program.GQ:  compareExecuter{program.GQ},
	program.LQ:  compareExecuter{program.LQ},
	program.AND: logicExecuter{and: true},
	program.OR:  logicExecuter{and: false},

	program.ADD: arithExecuter{opAdd},
	program.SUB: arithExecuter{opSub},
	program.MUL: arithExecuter{opMul},
	program.EXP: arithExecuter{opExp},
	program.DIV: arithExecuter{opDiv},
	program.MOD: arithExecuter{opMod},

	program.JMP:   ExecuterFunc(execJMP),
	program.JMPA:  ExecuterFunc(execJMPA),
	program.CALL:  ExecuterFunc(execCALL),
	program.RET:   ExecuterFunc(execRET),
	program.FN:    ExecuterFunc(execFN),
	program.CALLN: ExecuterFunc(execCALLN),
	program.BRK:   ExecuterFunc(execBRK),

	program.PUSH: ExecuterFunc(execPUSH),
	program.SPUS: ExecuterFunc(execSPUS),
	program.LEN:  ExecuterFunc(execLEN),
	program.ARR:  ExecuterFunc(execARR),
	program.STR:  ExecuterFunc(execSTR),
	program.SAR:  ExecuterFunc(execSAR),
	program.POPS: ExecuterFunc(execPOPS),
	program.CO:   ExecuterFunc(execCO),
	program.DEA:  ExecuterFunc(execDEA),

	program.A2I: convertExecuter{raw.IDInt},
	program.A2F: convertExecuter{raw.IDFloat},
	program.A2D: convertExecuter{raw.IDDouble},
	program.A2B: convertExecuter{raw.IDByte},
	program.A2S: convertExecuter{raw.IDString},
	program.A2C: convertExecuter{raw.IDChar},
	program.A2O: convertExecuter{raw.IDBool},
}

// DefaultTable builds the dispatch table from the program opcode table.
func DefaultTable() *Table {
	var t Table
	for op := 0; op < len(t); op++ {
		info, ok := program.Lookup(byte(op))
		if !ok {
			continue
		}
		t[op] = executers[info.Mnemonic]
	}
	return &t
}

// value is an operand after reference resolution: either a stack value or a
// heap value.
type value struct {
	heap     raw.Dynamic
	static   raw.Static
	location int
	isHeap   bool
}

func (v value) typ() raw.TypeID {
	if v.isHeap {
		return v.heap.Type
	}
	return v.static.Type
}

func (ctx *Context) get(abs int) (raw.Static, bool) {
	return ctx.Stack.Get(abs)
}

func (ctx *Context) set(abs int, v raw.Static) error {
	if err := ctx.Stack.Set(abs, v); err != nil {
		return &ExecuterPanic{Reason: PanicReason{Kind: StackOverflow, Location: abs}, CodeLocation: codeLocation(2)}
	}
	return nil
}

// resolve chases v through stack and heap references.
func (ctx *Context) resolve(v raw.Static) (value, error) {
	kind, ok := memory.KindOf(v)
	if !ok {
		return value{static: v, location: -1}, nil
	}
	res, err := ctx.Isolate.Resolve(kind, v.AsLocation(), ctx.MaxReferenceDepth)
	if err != nil {
		return value{}, ctx.referenceFailure(err)
	}
	if res.IsStatic {
		return value{static: res.Static, location: res.Location}, nil
	}
	return value{heap: res.Heap, isHeap: true, location: res.Location}, nil
}

func (ctx *Context) referenceFailure(err error) error {
	var ne *memory.NullError
	if errors.As(err, &ne) {
		return &ExecuterPanic{Reason: nullReference(ne.Location), CodeLocation: codeLocation(3)}
	}
	var re *memory.ReferenceError
	if errors.As(err, &re) {
		return &ExecuterPanic{
			Reason:       PanicReason{Kind: ReferenceError, Location: re.Location, Depth: re.Depth},
			CodeLocation: codeLocation(3),
		}
	}
	return &ExecuterPanic{Reason: PanicReason{Kind: RuntimeError, Message: err.Error()}, CodeLocation: codeLocation(3)}
}

// operands resolves the B and C registers.
func (ctx *Context) operands() (b, c value, err error) {
	if b, err = ctx.resolve(ctx.Frame.Registers.B); err != nil {
		return
	}
	c, err = ctx.resolve(ctx.Frame.Registers.C)
	return
}

// immediateAt returns the int immediate of the instruction at i.
func (ctx *Context) immediateAt(i int) (int64, bool) {
	v, ok := ctx.Program.ImmediateAt(i)
	if !ok || !v.Type.IsInt() {
		return 0, false
	}
	return v.AsInt(), true
}

// putHeap stores d at the current cell's heap key and returns a
// reference to it.
func (ctx *Context) putHeap(d raw.Dynamic) raw.Static {
	pos := ctx.Frame.GetPos()
	ctx.Heap.Set(pos, d)
	return raw.HeapRef(pos)
}

// arrayError maps array view errors onto panic reasons.
func arrayError(err error) error {
	var le *raw.EntryLengthError
	if errors.As(err, &le) {
		return &ExecuterPanic{Reason: wrongEntryLength(le.Expected, le.Got), CodeLocation: codeLocation(2)}
	}
	var ie *raw.IndexError
	if errors.As(err, &ie) {
		return &ExecuterPanic{Reason: indexOutOfBounds(ie.Index, ie.Len), CodeLocation: codeLocation(2)}
	}
	return &ExecuterPanic{Reason: reason(ArraySizeCorruption), CodeLocation: codeLocation(2)}
}
