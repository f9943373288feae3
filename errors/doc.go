// Package errors provides structured error types for the Ellie VM.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a location path, the Ellie type involved, the offending value
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindIllegalOpCode).
//		Path("instruction 12").
//		Value(byte(0xfe)).
//		Detail("op_code %d is not in the instruction table", 0xfe).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Decode(errors.DecodeTruncated, pos, "immediate operand", io.ErrUnexpectedEOF)
//	err := errors.NotFound(errors.PhaseNative, "module", "std")
//
// Decode failures expose a numeric DecodeCode through DecodeCodeOf, and main
// discovery failures a MainCode through MainCodeOf.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
