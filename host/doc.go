// Package host drives the assembler from outside its address space.
//
// A Guest is anything that exposes the assembler's boundary operations:
// an Instance loaded into a wazero runtime by an Executor, or a
// LocalGuest running the same code in-process. Client layers the
// buffer protocol on top of a Guest: it stages input, calls assemble,
// reads the result back and releases every handle it created.
package host
