package insts

// Field extractors. Bit numbers follow the host convention (bit 0 is the
// least significant bit of the opcode word).

// Primary returns the primary opcode (bits 26..31).
func Primary(op uint32) uint32 { return op >> 26 }

// XO10 returns the 10-bit extended opcode used by primaries 19, 31, 59, 63.
func XO10(op uint32) uint32 { return (op >> 1) & 0x3ff }

// XO11 returns the 11-bit extended opcode used by primary 4.
func XO11(op uint32) uint32 { return op & 0x7ff }

// RD returns the destination register field.
func RD(op uint32) uint8 { return uint8((op >> 21) & 0x1f) }

// RS returns the source register field (same bits as RD).
func RS(op uint32) uint8 { return RD(op) }

// RA returns the rA field.
func RA(op uint32) uint8 { return uint8((op >> 16) & 0x1f) }

// RB returns the rB field.
func RB(op uint32) uint8 { return uint8((op >> 11) & 0x1f) }

// RC returns the frC / vC field.
func RC(op uint32) uint8 { return uint8((op >> 6) & 0x1f) }

// SIMM returns the sign-extended 16-bit immediate.
func SIMM(op uint32) int32 { return int32(int16(op & 0xffff)) }

// UIMM returns the zero-extended 16-bit immediate.
func UIMM(op uint32) uint32 { return op & 0xffff }

// Rc reports whether the record bit is set.
func Rc(op uint32) bool { return op&1 != 0 }

// OE reports whether the overflow-enable bit of an XO-form is set.
func OE(op uint32) bool { return (op>>10)&1 != 0 }

// LK reports whether the link bit is set.
func LK(op uint32) bool { return op&1 != 0 }

// AA reports whether the absolute-address bit is set.
func AA(op uint32) bool { return (op>>1)&1 != 0 }

// LI returns the sign-extended byte displacement of an I-form branch.
func LI(op uint32) int32 { return int32(op<<6) >> 6 & ^3 }

// BD returns the sign-extended byte displacement of a B-form branch.
func BD(op uint32) int32 { return int32(int16(op & 0xfffc)) }

// BO returns the branch options field.
func BO(op uint32) uint8 { return RD(op) }

// BI returns the condition bit field of a conditional branch.
func BI(op uint32) uint8 { return RA(op) }

// SH returns the shift amount field.
func SH(op uint32) uint8 { return RB(op) }

// MB returns the mask-begin field.
func MB(op uint32) uint8 { return RC(op) }

// ME returns the mask-end field.
func ME(op uint32) uint8 { return uint8((op >> 1) & 0x1f) }

// CRFD returns the destination CR field.
func CRFD(op uint32) uint8 { return uint8((op >> 23) & 7) }

// CRFS returns the source CR field.
func CRFS(op uint32) uint8 { return uint8((op >> 18) & 7) }

// SPR returns the special-purpose register number with its halves swapped
// back into natural order.
func SPR(op uint32) uint32 { return (op>>16)&0x1f | ((op>>11)&0x1f)<<5 }

// CRM returns the mtcrf field mask.
func CRM(op uint32) uint8 { return uint8((op >> 12) & 0xff) }

// FM returns the mtfsf field mask.
func FM(op uint32) uint8 { return uint8((op >> 17) & 0xff) }

// SR returns the segment register number.
func SR(op uint32) uint8 { return uint8((op >> 16) & 0xf) }

// VSIMM returns the sign-extended 5-bit vector splat immediate.
func VSIMM(op uint32) int32 { return int32(op<<11) >> 27 }

// Sheep pseudo-op selectors (low six bits of a primary-6 opcode).
const (
	SheepEmulReturn uint32 = 0
	SheepExecReturn uint32 = 1
	SheepExecNative uint32 = 2
	SheepEmulOpBase uint32 = 3
)

// SheepBase is the primary-6 opcode with every operand field zero.
const SheepBase uint32 = 0x18000000

// SheepSelector returns the pseudo-op selector of a primary-6 opcode.
func SheepSelector(op uint32) uint32 { return op & 0x3f }

// NativeSelector returns the native operation number of an EXEC_NATIVE.
func NativeSelector(op uint32) uint32 { return (op >> 6) & 0x1f }

// NativeReturnsToLR reports whether an EXEC_NATIVE returns through LR.
func NativeReturnsToLR(op uint32) bool { return op&(1<<11) != 0 }
