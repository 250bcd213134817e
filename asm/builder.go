// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package asm

import (
	"errors"
	"fmt"
)

var errUnknownLabel = errors.New("unknown label")

type fixup struct {
	index int
	label string
}

// Builder assembles a program, resolving forward and backward jump labels.
// Jump targets are instruction indices relative to the program start.
type Builder struct {
	insts  []Instruction
	labels map[string]int
	fixups []fixup
}

func NewBuilder() *Builder {
	return &Builder{labels: make(map[string]int)}
}

// Add appends instructions to the program.
func (b *Builder) Add(insts ...Instruction) *Builder {
	b.insts = append(b.insts, insts...)
	return b
}

// Label marks the position of the next instruction.
func (b *Builder) Label(name string) *Builder {
	b.labels[name] = len(b.insts)
	return b
}

// Jump appends an unconditional jump to [label].
func (b *Builder) Jump(label string) *Builder {
	b.fixups = append(b.fixups, fixup{len(b.insts), label})
	return b.Add(OpI(JI, 0))
}

// JumpIfNotZero appends a jump to [label] taken when [ra] != 0.
func (b *Builder) JumpIfNotZero(ra RegisterID, label string) *Builder {
	b.fixups = append(b.fixups, fixup{len(b.insts), label})
	return b.Add(OpAI(JNZI, ra, 0))
}

// JumpIfNotEqual appends a jump to [label] taken when [ra] != [rb].
func (b *Builder) JumpIfNotEqual(ra, rb RegisterID, label string) *Builder {
	b.fixups = append(b.fixups, fixup{len(b.insts), label})
	return b.Add(OpABI(JNEI, ra, rb, 0))
}

// Build resolves labels and returns the encoded program.
func (b *Builder) Build() ([]byte, error) {
	insts := make([]Instruction, len(b.insts))
	copy(insts, b.insts)
	for _, f := range b.fixups {
		target, ok := b.labels[f.label]
		if !ok {
			return nil, fmt.Errorf("%w %q", errUnknownLabel, f.label)
		}
		inst := insts[f.index]
		switch inst.Op() {
		case JI:
			insts[f.index] = OpI(JI, uint32(target))
		case JNZI:
			insts[f.index] = OpAI(JNZI, inst.RA(), uint32(target))
		case JNEI:
			insts[f.index] = OpABI(JNEI, inst.RA(), inst.RB(), uint32(target))
		}
	}
	return Program(insts...), nil
}

// Program encodes [insts] back to back.
func Program(insts ...Instruction) []byte {
	code := make([]byte, 0, len(insts)*InstructionSize)
	for _, inst := range insts {
		code = append(code, inst.Bytes()...)
	}
	return code
}
