// Package vm executes decoded Ellie programs.
//
// A VM binds a program to its native modules and configuration. Each Thread
// created from it owns a call stack of Frames and one Isolate (heap and
// stack memory). Thread.Step executes a single instruction through the
// op_code indexed executer table and applies the Result it yields:
//
//	Continue            advance the frame's program counter
//	Jump                the executer already wrote the program counter
//	DropStack           pop the frame; its Y register becomes the caller's Y
//	CallFunction        push a frame, carrying the caller's X register
//	CallNativeFunction  answer through the native bridge, then advance
//
// Execution ends with a ThreadExit: graceful once the call stack empties, or
// a panic carrying a structured PanicReason, a snapshot of every frame and the
// source location that raised it. Runtime panics are values, never Go panics.
//
// Frame addressing: operands are offsets relative to the frame's FramePos.
// GetPos (FramePos+Pos) is the cell owned by the executing instruction and is
// also the heap key used for strings and arrays the instruction allocates.
package vm
