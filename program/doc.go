// Package program decodes, encodes and disassembles Ellie bytecode modules.
//
// A binary module is laid out as
//
//	byte       architecture (16 | 32 | 64)
//	byte       has_main (0 | 1)
//	ptr-width  main start, main length, main hash   (only when has_main is 1)
//	...        instructions until the end of the stream
//
// Each instruction is an op_code byte followed by the operand bytes of the
// addressing mode the opcode table assigns to it. Immediate operands are a
// type id byte, a pointer-width size and always 8 payload bytes.
package program
