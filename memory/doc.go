// Package memory implements the two address spaces of an Ellie thread.
//
// StackMemory is a flat array of fixed-width cells addressed by absolute index;
// instructions translate their frame-relative offsets into absolute indexes
// before touching it. HeapMemory holds variable-size values under locations
// chosen by the caller: instructions typically reuse the current stack cell
// index as the heap key, so callers are responsible for avoiding collisions.
// Heap entries are never reclaimed; the heap lives exactly as long as its
// Isolate.
package memory
