// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import "github.com/ava-labs/ledgervm/asm"

type handler func(vm *VM, inst asm.Instruction) error

// handlers dispatches on the opcode. A nil entry is an invalid instruction.
var handlers [256]handler

func init() {
	handlers = [256]handler{
		asm.ADD: aluReg(aluAdd),
		asm.SUB: aluReg(aluSub),
		asm.MUL: aluReg(aluMul),
		asm.DIV: aluReg(aluDiv),
		asm.MOD: aluReg(aluMod),
		asm.EXP: aluReg(aluExp),
		asm.AND: aluReg(aluAnd),
		asm.OR:  aluReg(aluOr),
		asm.XOR: aluReg(aluXor),
		asm.SLL: aluReg(aluSll),
		asm.SRL: aluReg(aluSrl),
		asm.EQ:  aluReg(aluEq),
		asm.LT:  aluReg(aluLt),
		asm.GT:  aluReg(aluGt),
		asm.NOT: opNot,

		asm.MOVE: opMove,
		asm.ADDI: aluImm(aluAdd),
		asm.SUBI: aluImm(aluSub),
		asm.MULI: aluImm(aluMul),
		asm.DIVI: aluImm(aluDiv),
		asm.MODI: aluImm(aluMod),
		asm.EXPI: aluImm(aluExp),
		asm.ANDI: aluImm(aluAnd),
		asm.ORI:  aluImm(aluOr),
		asm.XORI: aluImm(aluXor),
		asm.SLLI: aluImm(aluSll),
		asm.SRLI: aluImm(aluSrl),
		asm.MOVI: opMovi,

		asm.LB:   opLb,
		asm.LW:   opLw,
		asm.SB:   opSb,
		asm.SW:   opSw,
		asm.MCP:  opMcp,
		asm.MCPI: opMcpi,
		asm.MEQ:  opMeq,
		asm.MCL:  opMcl,
		asm.MCLI: opMcli,
		asm.CFEI: opCfei,
		asm.CFSI: opCfsi,
		asm.ALOC: opAloc,

		asm.JI:   opJi,
		asm.JNEI: opJnei,
		asm.JNZI: opJnzi,
		asm.JMP:  opJmp,
		asm.RET:  opRet,
		asm.RETD: opRetd,
		asm.RVRT: opRvrt,
		asm.CALL: opCall,

		asm.SRW:  opSrw,
		asm.SWW:  opSww,
		asm.SRWQ: opSrwq,
		asm.SWWQ: opSwwq,

		asm.LOG:  opLog,
		asm.LOGD: opLogd,

		asm.S256: opS256,
		asm.K256: opK256,
		asm.ECR:  opEcr,

		asm.NOOP: opNoop,
		asm.FLAG: opFlag,
		asm.BHEI: opBhei,
		asm.BAL:  opBal,
		asm.GM:   opGm,
	}
}
