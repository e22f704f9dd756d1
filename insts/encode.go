package insts

// Encoders for building guest code in trampolines, tests and benchmarks.
// Register arguments are masked to their field width.

func r5(v uint8) uint32 { return uint32(v) & 0x1f }

func b(v bool) uint32 {
	if v {
		return 1
	}

	return 0
}

// EncodeD builds a D-form instruction.
func EncodeD(primary uint32, rd, ra uint8, imm uint16) uint32 {
	return primary<<26 | r5(rd)<<21 | r5(ra)<<16 | uint32(imm)
}

// EncodeX builds an X-form instruction on primary 31 (or any X primary).
func EncodeX(primary uint32, rd, ra, rb uint8, xo uint32, rc bool) uint32 {
	return primary<<26 | r5(rd)<<21 | r5(ra)<<16 | r5(rb)<<11 | (xo&0x3ff)<<1 | b(rc)
}

// EncodeXO builds an XO-form integer arithmetic instruction.
func EncodeXO(rd, ra, rb uint8, oe bool, xo uint32, rc bool) uint32 {
	return 31<<26 | r5(rd)<<21 | r5(ra)<<16 | r5(rb)<<11 | b(oe)<<10 | (xo&0x1ff)<<1 | b(rc)
}

// EncodeM builds an M-form rotate instruction.
func EncodeM(primary uint32, rs, ra, sh, mb, me uint8, rc bool) uint32 {
	return primary<<26 | r5(rs)<<21 | r5(ra)<<16 | r5(sh)<<11 | r5(mb)<<6 | r5(me)<<1 | b(rc)
}

// EncodeA builds an A-form floating-point instruction.
func EncodeA(primary uint32, frd, fra, frb, frc uint8, xo uint32, rc bool) uint32 {
	return primary<<26 | r5(frd)<<21 | r5(fra)<<16 | r5(frb)<<11 | r5(frc)<<6 | (xo&0x1f)<<1 | b(rc)
}

// EncodeVX builds a VX-form vector instruction.
func EncodeVX(vd, va, vb uint8, xo uint32) uint32 {
	return 4<<26 | r5(vd)<<21 | r5(va)<<16 | r5(vb)<<11 | xo&0x7ff
}

// EncodeVA builds a VA-form vector instruction.
func EncodeVA(vd, va, vb, vc uint8, xo uint32) uint32 {
	return 4<<26 | r5(vd)<<21 | r5(va)<<16 | r5(vb)<<11 | r5(vc)<<6 | xo&0x3f
}

// EncodeI builds an I-form branch with byte displacement li.
func EncodeI(li int32, aa, lk bool) uint32 {
	return 18<<26 | uint32(li)&0x03fffffc | b(aa)<<1 | b(lk)
}

// EncodeB builds a B-form conditional branch with byte displacement bd.
func EncodeB(bo, bi uint8, bd int32, aa, lk bool) uint32 {
	return 16<<26 | r5(bo)<<21 | r5(bi)<<16 | uint32(bd)&0xfffc | b(aa)<<1 | b(lk)
}

// EncodeXL builds an XL-form instruction on primary 19.
func EncodeXL(bt, ba, bb uint8, xo uint32, lk bool) uint32 {
	return 19<<26 | r5(bt)<<21 | r5(ba)<<16 | r5(bb)<<11 | (xo&0x3ff)<<1 | b(lk)
}

// EncodeSPR builds mfspr/mtspr style XFX instructions.
func EncodeSPR(rd uint8, spr uint32, xo uint32) uint32 {
	return 31<<26 | r5(rd)<<21 | (spr&0x1f)<<16 | ((spr>>5)&0x1f)<<11 | (xo&0x3ff)<<1
}

// Common instructions.

func EncodeADDI(rd, ra uint8, imm int16) uint32  { return EncodeD(14, rd, ra, uint16(imm)) }
func EncodeADDIS(rd, ra uint8, imm int16) uint32 { return EncodeD(15, rd, ra, uint16(imm)) }
func EncodeLI(rd uint8, imm int16) uint32        { return EncodeADDI(rd, 0, imm) }
func EncodeLIS(rd uint8, imm int16) uint32       { return EncodeADDIS(rd, 0, imm) }
func EncodeADDIC(rd, ra uint8, imm int16) uint32 { return EncodeD(12, rd, ra, uint16(imm)) }
func EncodeMULLI(rd, ra uint8, imm int16) uint32 { return EncodeD(7, rd, ra, uint16(imm)) }
func EncodeORI(ra, rs uint8, imm uint16) uint32  { return EncodeD(24, rs, ra, imm) }
func EncodeORIS(ra, rs uint8, imm uint16) uint32 { return EncodeD(25, rs, ra, imm) }
func EncodeXORI(ra, rs uint8, imm uint16) uint32 { return EncodeD(26, rs, ra, imm) }
func EncodeANDI(ra, rs uint8, imm uint16) uint32 { return EncodeD(28, rs, ra, imm) }
func EncodeNOP() uint32                          { return EncodeORI(0, 0, 0) }

func EncodeCMPWI(crf, ra uint8, imm int16) uint32 {
	return EncodeD(11, crf<<2, ra, uint16(imm))
}

func EncodeCMPLWI(crf, ra uint8, imm uint16) uint32 {
	return EncodeD(10, crf<<2, ra, imm)
}

func EncodeCMPW(crf, ra, rb uint8) uint32  { return EncodeX(31, crf<<2, ra, rb, 0, false) }
func EncodeCMPLW(crf, ra, rb uint8) uint32 { return EncodeX(31, crf<<2, ra, rb, 32, false) }

func EncodeADD(rd, ra, rb uint8) uint32   { return EncodeXO(rd, ra, rb, false, 266, false) }
func EncodeADDo(rd, ra, rb uint8) uint32  { return EncodeXO(rd, ra, rb, false, 266, true) }
func EncodeADDC(rd, ra, rb uint8) uint32  { return EncodeXO(rd, ra, rb, false, 10, false) }
func EncodeADDE(rd, ra, rb uint8) uint32  { return EncodeXO(rd, ra, rb, false, 138, false) }
func EncodeSUBF(rd, ra, rb uint8) uint32  { return EncodeXO(rd, ra, rb, false, 40, false) }
func EncodeSUBFC(rd, ra, rb uint8) uint32 { return EncodeXO(rd, ra, rb, false, 8, false) }
func EncodeMULLW(rd, ra, rb uint8) uint32 { return EncodeXO(rd, ra, rb, false, 235, false) }
func EncodeDIVW(rd, ra, rb uint8) uint32  { return EncodeXO(rd, ra, rb, false, 491, false) }
func EncodeDIVWU(rd, ra, rb uint8) uint32 { return EncodeXO(rd, ra, rb, false, 459, false) }
func EncodeNEG(rd, ra uint8) uint32       { return EncodeXO(rd, ra, 0, false, 104, false) }

func EncodeAND(ra, rs, rb uint8) uint32  { return EncodeX(31, rs, ra, rb, 28, false) }
func EncodeANDC(ra, rs, rb uint8) uint32 { return EncodeX(31, rs, ra, rb, 60, false) }
func EncodeOR(ra, rs, rb uint8) uint32   { return EncodeX(31, rs, ra, rb, 444, false) }
func EncodeXOR(ra, rs, rb uint8) uint32  { return EncodeX(31, rs, ra, rb, 316, false) }
func EncodeNOR(ra, rs, rb uint8) uint32  { return EncodeX(31, rs, ra, rb, 124, false) }
func EncodeMR(ra, rs uint8) uint32       { return EncodeOR(ra, rs, rs) }
func EncodeSLW(ra, rs, rb uint8) uint32  { return EncodeX(31, rs, ra, rb, 24, false) }
func EncodeSRW(ra, rs, rb uint8) uint32  { return EncodeX(31, rs, ra, rb, 536, false) }
func EncodeSRAW(ra, rs, rb uint8) uint32 { return EncodeX(31, rs, ra, rb, 792, false) }
func EncodeSRAWI(ra, rs, sh uint8) uint32 {
	return EncodeX(31, rs, ra, sh, 824, false)
}
func EncodeCNTLZW(ra, rs uint8) uint32 { return EncodeX(31, rs, ra, 0, 26, false) }
func EncodeEXTSB(ra, rs uint8) uint32  { return EncodeX(31, rs, ra, 0, 954, false) }
func EncodeEXTSH(ra, rs uint8) uint32  { return EncodeX(31, rs, ra, 0, 922, false) }

func EncodeRLWINM(ra, rs, sh, mb, me uint8) uint32 {
	return EncodeM(21, rs, ra, sh, mb, me, false)
}

func EncodeRLWIMI(ra, rs, sh, mb, me uint8) uint32 {
	return EncodeM(20, rs, ra, sh, mb, me, false)
}

// Loads and stores.

func EncodeLWZ(rd, ra uint8, d int16) uint32  { return EncodeD(32, rd, ra, uint16(d)) }
func EncodeLWZU(rd, ra uint8, d int16) uint32 { return EncodeD(33, rd, ra, uint16(d)) }
func EncodeLBZ(rd, ra uint8, d int16) uint32  { return EncodeD(34, rd, ra, uint16(d)) }
func EncodeSTW(rs, ra uint8, d int16) uint32  { return EncodeD(36, rs, ra, uint16(d)) }
func EncodeSTWU(rs, ra uint8, d int16) uint32 { return EncodeD(37, rs, ra, uint16(d)) }
func EncodeSTB(rs, ra uint8, d int16) uint32  { return EncodeD(38, rs, ra, uint16(d)) }
func EncodeLHZ(rd, ra uint8, d int16) uint32  { return EncodeD(40, rd, ra, uint16(d)) }
func EncodeLHA(rd, ra uint8, d int16) uint32  { return EncodeD(42, rd, ra, uint16(d)) }
func EncodeSTH(rs, ra uint8, d int16) uint32  { return EncodeD(44, rs, ra, uint16(d)) }
func EncodeLMW(rd, ra uint8, d int16) uint32  { return EncodeD(46, rd, ra, uint16(d)) }
func EncodeSTMW(rs, ra uint8, d int16) uint32 { return EncodeD(47, rs, ra, uint16(d)) }
func EncodeLFD(frd, ra uint8, d int16) uint32 { return EncodeD(50, frd, ra, uint16(d)) }
func EncodeSTFD(frs, ra uint8, d int16) uint32 {
	return EncodeD(54, frs, ra, uint16(d))
}
func EncodeLWZX(rd, ra, rb uint8) uint32  { return EncodeX(31, rd, ra, rb, 23, false) }
func EncodeSTWX(rs, ra, rb uint8) uint32  { return EncodeX(31, rs, ra, rb, 151, false) }
func EncodeLWBRX(rd, ra, rb uint8) uint32 { return EncodeX(31, rd, ra, rb, 534, false) }
func EncodeLWARX(rd, ra, rb uint8) uint32 { return EncodeX(31, rd, ra, rb, 20, false) }
func EncodeSTWCX(rs, ra, rb uint8) uint32 { return EncodeX(31, rs, ra, rb, 150, true) }
func EncodeICBI(ra, rb uint8) uint32      { return EncodeX(31, 0, ra, rb, 982, false) }
func EncodeDCBZ(ra, rb uint8) uint32      { return EncodeX(31, 0, ra, rb, 1014, false) }

// Branches.

func EncodeBranch(offset int32) uint32     { return EncodeI(offset, false, false) }
func EncodeBL(offset int32) uint32         { return EncodeI(offset, false, true) }
func EncodeBC(bo, bi uint8, offset int32) uint32 {
	return EncodeB(bo, bi, offset, false, false)
}
func EncodeBLR() uint32   { return EncodeXL(20, 0, 0, 16, false) }
func EncodeBLRL() uint32  { return EncodeXL(20, 0, 0, 16, true) }
func EncodeBCTR() uint32  { return EncodeXL(20, 0, 0, 528, false) }
func EncodeBCTRL() uint32 { return EncodeXL(20, 0, 0, 528, true) }

// Branch options.
const (
	BOAlways uint8 = 20 // branch always
	BOTrue   uint8 = 12 // branch if CR bit set
	BOFalse  uint8 = 4  // branch if CR bit clear
	BODNZ    uint8 = 16 // decrement CTR, branch if CTR != 0
)

// CR bits within a field.
const (
	CRLT uint8 = 0
	CRGT uint8 = 1
	CREQ uint8 = 2
	CRSO uint8 = 3
)

// Special purpose registers.
const (
	SPRXER    uint32 = 1
	SPRLR     uint32 = 8
	SPRCTR    uint32 = 9
	SPRVRSAVE uint32 = 256
	SPRTBL    uint32 = 268
	SPRTBU    uint32 = 269
	SPRPVR    uint32 = 287
)

func EncodeMFSPR(rd uint8, spr uint32) uint32 { return EncodeSPR(rd, spr, 339) }
func EncodeMTSPR(spr uint32, rs uint8) uint32 { return EncodeSPR(rs, spr, 467) }
func EncodeMFLR(rd uint8) uint32              { return EncodeMFSPR(rd, SPRLR) }
func EncodeMTLR(rs uint8) uint32              { return EncodeMTSPR(SPRLR, rs) }
func EncodeMFCTR(rd uint8) uint32             { return EncodeMFSPR(rd, SPRCTR) }
func EncodeMTCTR(rs uint8) uint32             { return EncodeMTSPR(SPRCTR, rs) }
func EncodeMFCR(rd uint8) uint32              { return EncodeX(31, rd, 0, 0, 19, false) }
func EncodeMTCRF(crm uint8, rs uint8) uint32 {
	return 31<<26 | r5(rs)<<21 | uint32(crm)<<12 | 144<<1
}
func EncodeMFMSR(rd uint8) uint32 { return EncodeX(31, rd, 0, 0, 83, false) }
func EncodeSC() uint32            { return 17<<26 | 2 }
func EncodeSYNC() uint32          { return EncodeX(31, 0, 0, 0, 598, false) }
func EncodeISYNC() uint32         { return EncodeXL(0, 0, 0, 150, false) }
func EncodeTRAP() uint32          { return EncodeX(31, 31, 0, 0, 4, false) }

// Floating point.

func EncodeFADD(frd, fra, frb uint8) uint32 { return EncodeA(63, frd, fra, frb, 0, 21, false) }
func EncodeFMUL(frd, fra, frc uint8) uint32 { return EncodeA(63, frd, fra, 0, frc, 25, false) }
func EncodeFMADD(frd, fra, frc, frb uint8) uint32 {
	return EncodeA(63, frd, fra, frb, frc, 29, false)
}
func EncodeFMR(frd, frb uint8) uint32 { return EncodeX(63, frd, 0, frb, 72, false) }

// Sheep pseudo-ops.

// EncodeSheep builds a primary-6 pseudo-op with the given selector.
func EncodeSheep(selector uint32) uint32 { return SheepBase | selector&0x3f }

func EncodeEmulReturn() uint32 { return EncodeSheep(SheepEmulReturn) }
func EncodeExecReturn() uint32 { return EncodeSheep(SheepExecReturn) }

// EncodeEmulOp builds the pseudo-op invoking emulator operation n.
func EncodeEmulOp(n uint32) uint32 { return EncodeSheep(SheepEmulOpBase + n) }

// EncodeNativeOp builds an EXEC_NATIVE for native selector sel.
func EncodeNativeOp(sel uint32, returnToLR bool) uint32 {
	return SheepBase | (sel&0x1f)<<6 | b(returnToLR)<<11 | SheepExecNative
}
