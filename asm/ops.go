// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package asm

// Shorthands for the instructions scripts use most.

func Add(ra, rb, rc RegisterID) Instruction           { return OpABC(ADD, ra, rb, rc) }
func Sub(ra, rb, rc RegisterID) Instruction           { return OpABC(SUB, ra, rb, rc) }
func Mul(ra, rb, rc RegisterID) Instruction           { return OpABC(MUL, ra, rb, rc) }
func Div(ra, rb, rc RegisterID) Instruction           { return OpABC(DIV, ra, rb, rc) }
func Eq(ra, rb, rc RegisterID) Instruction            { return OpABC(EQ, ra, rb, rc) }
func Move(ra, rb RegisterID) Instruction              { return OpAB(MOVE, ra, rb) }
func Addi(ra, rb RegisterID, imm uint32) Instruction  { return OpABI(ADDI, ra, rb, imm) }
func Subi(ra, rb RegisterID, imm uint32) Instruction  { return OpABI(SUBI, ra, rb, imm) }
func Muli(ra, rb RegisterID, imm uint32) Instruction  { return OpABI(MULI, ra, rb, imm) }
func Movi(ra RegisterID, imm uint32) Instruction      { return OpAI(MOVI, ra, imm) }
func Lw(ra, rb RegisterID, imm uint32) Instruction    { return OpABI(LW, ra, rb, imm) }
func Sw(ra, rb RegisterID, imm uint32) Instruction    { return OpABI(SW, ra, rb, imm) }
func Lb(ra, rb RegisterID, imm uint32) Instruction    { return OpABI(LB, ra, rb, imm) }
func Sb(ra, rb RegisterID, imm uint32) Instruction    { return OpABI(SB, ra, rb, imm) }
func Mcp(ra, rb, rc RegisterID) Instruction           { return OpABC(MCP, ra, rb, rc) }
func Mcpi(ra, rb RegisterID, imm uint32) Instruction  { return OpABI(MCPI, ra, rb, imm) }
func Cfei(imm uint32) Instruction                     { return OpI(CFEI, imm) }
func Cfsi(imm uint32) Instruction                     { return OpI(CFSI, imm) }
func Aloc(ra RegisterID) Instruction                  { return OpA(ALOC, ra) }
func Ji(imm uint32) Instruction                       { return OpI(JI, imm) }
func Jnzi(ra RegisterID, imm uint32) Instruction      { return OpAI(JNZI, ra, imm) }
func Jnei(ra, rb RegisterID, imm uint32) Instruction  { return OpABI(JNEI, ra, rb, imm) }
func Ret(ra RegisterID) Instruction                   { return OpA(RET, ra) }
func Retd(ra, rb RegisterID) Instruction              { return OpAB(RETD, ra, rb) }
func Rvrt(ra RegisterID) Instruction                  { return OpA(RVRT, ra) }
func Call(ra, rb RegisterID) Instruction              { return OpAB(CALL, ra, rb) }
func Srw(ra, rb, rc RegisterID) Instruction           { return OpABC(SRW, ra, rb, rc) }
func Sww(ra, rb, rc RegisterID) Instruction           { return OpABC(SWW, ra, rb, rc) }
func Srwq(ra, rb, rc RegisterID) Instruction          { return OpABC(SRWQ, ra, rb, rc) }
func Swwq(ra, rb, rc RegisterID) Instruction          { return OpABC(SWWQ, ra, rb, rc) }
func Log(ra, rb, rc, rd RegisterID) Instruction       { return OpABCD(LOG, ra, rb, rc, rd) }
func Logd(ra, rb, rc, rd RegisterID) Instruction      { return OpABCD(LOGD, ra, rb, rc, rd) }
func Sha256(ra, rb, rc RegisterID) Instruction        { return OpABC(S256, ra, rb, rc) }
func Keccak256(ra, rb, rc RegisterID) Instruction     { return OpABC(K256, ra, rb, rc) }
func Ecr(ra, rb, rc RegisterID) Instruction           { return OpABC(ECR, ra, rb, rc) }
func Noop() Instruction                               { return Op0(NOOP) }
func Bhei(ra RegisterID) Instruction                  { return OpA(BHEI, ra) }
func Bal(ra, rb RegisterID) Instruction               { return OpAB(BAL, ra, rb) }
func Gm(ra RegisterID, selector uint32) Instruction   { return OpAI(GM, ra, selector) }
