// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package asm

// RegisterID addresses one of the 64 VM registers.
type RegisterID = uint8

const (
	NumRegisters = 64

	RegZero RegisterID = 0  // always 0
	RegOne  RegisterID = 1  // always 1
	RegOF   RegisterID = 2  // overflow / high word of the last ALU op
	RegPC   RegisterID = 3  // program counter (absolute memory address)
	RegSSP  RegisterID = 4  // start of the current frame's stack
	RegSP   RegisterID = 5  // stack pointer
	RegFP   RegisterID = 6  // frame pointer (0 in the script frame)
	RegHP   RegisterID = 7  // heap pointer, grows down
	RegERR  RegisterID = 8  // error flag
	RegGGAS RegisterID = 9  // remaining global gas
	RegCGAS RegisterID = 10 // remaining gas of the current context
	RegBAL  RegisterID = 11 // balance forwarded to the current context
	RegIS   RegisterID = 12 // instruction start of the running program
	RegRET  RegisterID = 13 // value returned by the last call
	RegRETL RegisterID = 14 // length of data returned by the last call
	RegFLAG RegisterID = 15 // flags

	// RegWritable is the first register a program may write to.
	RegWritable RegisterID = 16
)
