// Package raw defines the tagged values the Ellie VM moves between registers,
// stack memory and heap memory.
//
// Static is a fixed-width value (an 8 byte payload plus its TypeID) that fits
// in a register or a stack cell: numerics, bool, byte, char, void, null and
// references. Dynamic is a heap-resident value with a growable payload: strings
// (UTF-32LE, one 4 byte code unit per character) and arrays.
//
// Array payloads are laid out as
//
//	[pointer-width entry size][entry 0][entry 1]...
//
// where each entry is the 9 byte encoded form of a Static ([id][8 data]).
package raw
