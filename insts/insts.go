// Package insts provides PowerPC instruction definitions and decoding.
//
// This package maps raw 32-bit big-endian PowerPC opcodes to immutable
// InstrInfo entries in constant time. The decode table is built once from a
// static opcode list; every slot that no entry claims resolves to the
// illegal-instruction entry, so decoding never fails. It covers:
//   - Integer arithmetic, logical, rotate and shift instructions
//   - Compare and condition-register logical instructions
//   - Branches: b, bc, bclr, bcctr
//   - Loads and stores (D-form, update, indexed, byte-reversed, multiple)
//   - Floating-point arithmetic, moves, compares and FPSCR access
//   - AltiVec integer/logical/select/splat and lvx/stvx
//   - System instructions and the SheepShaver pseudo-op (primary opcode 6)
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	info := decoder.Decode(0x38600005) // li r3,5
//	fmt.Printf("%s rD=%d imm=%d\n", info.Name, insts.RD(0x38600005), insts.SIMM(0x38600005))
package insts
