package emu

import "github.com/sarchlab/sheepcore/insts"

// Handler executes one instruction. Non-branch handlers advance PC by 4;
// a handler that faults leaves PC to the fault handler.
type Handler func(c *CPU, opcode uint32)

var handlers [insts.NumOps]Handler

// HandlerFor returns the interpretive handler for op.
func HandlerFor(op insts.Op) Handler {
	if op >= insts.NumOps {
		return opIllegal
	}

	return handlers[op]
}

func init() {
	for i := range handlers {
		handlers[i] = opIllegal
	}

	bind := func(h Handler, ops ...insts.Op) {
		for _, op := range ops {
			handlers[op] = h
		}
	}

	// Integer arithmetic.
	bind(opADDI, insts.OpADDI)
	bind(opADDIS, insts.OpADDIS)
	bind(opADDIC, insts.OpADDIC, insts.OpADDICo)
	bind(opSUBFIC, insts.OpSUBFIC)
	bind(opMULLI, insts.OpMULLI)
	bind(opADD, insts.OpADD)
	bind(opADDC, insts.OpADDC)
	bind(opADDE, insts.OpADDE)
	bind(opADDZE, insts.OpADDZE)
	bind(opADDME, insts.OpADDME)
	bind(opSUBF, insts.OpSUBF)
	bind(opSUBFC, insts.OpSUBFC)
	bind(opSUBFE, insts.OpSUBFE)
	bind(opSUBFZE, insts.OpSUBFZE)
	bind(opSUBFME, insts.OpSUBFME)
	bind(opNEG, insts.OpNEG)
	bind(opMULLW, insts.OpMULLW)
	bind(opMULHW, insts.OpMULHW)
	bind(opMULHWU, insts.OpMULHWU)
	bind(opDIVW, insts.OpDIVW)
	bind(opDIVWU, insts.OpDIVWU)

	// Logical, rotate, shift, compare.
	bind(opORI, insts.OpORI)
	bind(opORIS, insts.OpORIS)
	bind(opXORI, insts.OpXORI)
	bind(opXORIS, insts.OpXORIS)
	bind(opANDIo, insts.OpANDIo)
	bind(opANDISo, insts.OpANDISo)
	bind(logicalX(func(s, b uint32) uint32 { return s & b }), insts.OpAND)
	bind(logicalX(func(s, b uint32) uint32 { return s &^ b }), insts.OpANDC)
	bind(logicalX(func(s, b uint32) uint32 { return s | b }), insts.OpOR)
	bind(logicalX(func(s, b uint32) uint32 { return s | ^b }), insts.OpORC)
	bind(logicalX(func(s, b uint32) uint32 { return s ^ b }), insts.OpXOR)
	bind(logicalX(func(s, b uint32) uint32 { return ^(s & b) }), insts.OpNAND)
	bind(logicalX(func(s, b uint32) uint32 { return ^(s | b) }), insts.OpNOR)
	bind(logicalX(func(s, b uint32) uint32 { return ^(s ^ b) }), insts.OpEQV)
	bind(opEXTSB, insts.OpEXTSB)
	bind(opEXTSH, insts.OpEXTSH)
	bind(opCNTLZW, insts.OpCNTLZW)
	bind(opRLWIMI, insts.OpRLWIMI)
	bind(opRLWINM, insts.OpRLWINM)
	bind(opRLWNM, insts.OpRLWNM)
	bind(opSLW, insts.OpSLW)
	bind(opSRW, insts.OpSRW)
	bind(opSRAW, insts.OpSRAW)
	bind(opSRAWI, insts.OpSRAWI)
	bind(opCMPI, insts.OpCMPI)
	bind(opCMPLI, insts.OpCMPLI)
	bind(opCMP, insts.OpCMP)
	bind(opCMPL, insts.OpCMPL)

	// Branch and condition register.
	bind(opB, insts.OpB)
	bind(opBC, insts.OpBC)
	bind(opBCLR, insts.OpBCLR)
	bind(opBCCTR, insts.OpBCCTR)
	bind(opMCRF, insts.OpMCRF)
	bind(crLogical(func(a, b bool) bool { return a && b }), insts.OpCRAND)
	bind(crLogical(func(a, b bool) bool { return a && !b }), insts.OpCRANDC)
	bind(crLogical(func(a, b bool) bool { return a == b }), insts.OpCREQV)
	bind(crLogical(func(a, b bool) bool { return !(a && b) }), insts.OpCRNAND)
	bind(crLogical(func(a, b bool) bool { return !(a || b) }), insts.OpCRNOR)
	bind(crLogical(func(a, b bool) bool { return a || b }), insts.OpCROR)
	bind(crLogical(func(a, b bool) bool { return a || !b }), insts.OpCRORC)
	bind(crLogical(func(a, b bool) bool { return a != b }), insts.OpCRXOR)
	bind(opMFCR, insts.OpMFCR)
	bind(opMTCRF, insts.OpMTCRF)
	bind(opMCRXR, insts.OpMCRXR)

	// Loads and stores.
	bind(makeLoad(4, false, false, false), insts.OpLWZ)
	bind(makeLoad(4, false, false, true), insts.OpLWZU)
	bind(makeLoad(4, false, true, false), insts.OpLWZX)
	bind(makeLoad(4, false, true, true), insts.OpLWZUX)
	bind(makeLoad(1, false, false, false), insts.OpLBZ)
	bind(makeLoad(1, false, false, true), insts.OpLBZU)
	bind(makeLoad(1, false, true, false), insts.OpLBZX)
	bind(makeLoad(1, false, true, true), insts.OpLBZUX)
	bind(makeLoad(2, false, false, false), insts.OpLHZ)
	bind(makeLoad(2, false, false, true), insts.OpLHZU)
	bind(makeLoad(2, false, true, false), insts.OpLHZX)
	bind(makeLoad(2, false, true, true), insts.OpLHZUX)
	bind(makeLoad(2, true, false, false), insts.OpLHA)
	bind(makeLoad(2, true, false, true), insts.OpLHAU)
	bind(makeLoad(2, true, true, false), insts.OpLHAX)
	bind(makeLoad(2, true, true, true), insts.OpLHAUX)
	bind(makeStore(4, false, false), insts.OpSTW)
	bind(makeStore(4, false, true), insts.OpSTWU)
	bind(makeStore(4, true, false), insts.OpSTWX)
	bind(makeStore(4, true, true), insts.OpSTWUX)
	bind(makeStore(1, false, false), insts.OpSTB)
	bind(makeStore(1, false, true), insts.OpSTBU)
	bind(makeStore(1, true, false), insts.OpSTBX)
	bind(makeStore(1, true, true), insts.OpSTBUX)
	bind(makeStore(2, false, false), insts.OpSTH)
	bind(makeStore(2, false, true), insts.OpSTHU)
	bind(makeStore(2, true, false), insts.OpSTHX)
	bind(makeStore(2, true, true), insts.OpSTHUX)
	bind(opLMW, insts.OpLMW)
	bind(opSTMW, insts.OpSTMW)
	bind(opLWBRX, insts.OpLWBRX)
	bind(opSTWBRX, insts.OpSTWBRX)
	bind(opLHBRX, insts.OpLHBRX)
	bind(opSTHBRX, insts.OpSTHBRX)
	bind(opLWARX, insts.OpLWARX)
	bind(opSTWCX, insts.OpSTWCXo)
	bind(opDCBZ, insts.OpDCBZ)

	// Floating point.
	bind(makeLoadFP(false, false, false), insts.OpLFS)
	bind(makeLoadFP(false, false, true), insts.OpLFSU)
	bind(makeLoadFP(false, true, false), insts.OpLFSX)
	bind(makeLoadFP(false, true, true), insts.OpLFSUX)
	bind(makeLoadFP(true, false, false), insts.OpLFD)
	bind(makeLoadFP(true, false, true), insts.OpLFDU)
	bind(makeLoadFP(true, true, false), insts.OpLFDX)
	bind(makeLoadFP(true, true, true), insts.OpLFDUX)
	bind(makeStoreFP(false, false, false), insts.OpSTFS)
	bind(makeStoreFP(false, false, true), insts.OpSTFSU)
	bind(makeStoreFP(false, true, false), insts.OpSTFSX)
	bind(makeStoreFP(false, true, true), insts.OpSTFSUX)
	bind(makeStoreFP(true, false, false), insts.OpSTFD)
	bind(makeStoreFP(true, false, true), insts.OpSTFDU)
	bind(makeStoreFP(true, true, false), insts.OpSTFDX)
	bind(makeStoreFP(true, true, true), insts.OpSTFDUX)
	bind(opSTFIWX, insts.OpSTFIWX)
	bind(fpArith(false, func(a, b, _ float64) float64 { return a + b }), insts.OpFADD)
	bind(fpArith(true, func(a, b, _ float64) float64 { return a + b }), insts.OpFADDS)
	bind(fpArith(false, func(a, b, _ float64) float64 { return a - b }), insts.OpFSUB)
	bind(fpArith(true, func(a, b, _ float64) float64 { return a - b }), insts.OpFSUBS)
	bind(fpArith(false, func(a, _, c float64) float64 { return a * c }), insts.OpFMUL)
	bind(fpArith(true, func(a, _, c float64) float64 { return a * c }), insts.OpFMULS)
	bind(fpArith(false, func(a, b, _ float64) float64 { return a / b }), insts.OpFDIV)
	bind(fpArith(true, func(a, b, _ float64) float64 { return a / b }), insts.OpFDIVS)
	bind(fpArith(false, fmadd), insts.OpFMADD)
	bind(fpArith(true, fmadd), insts.OpFMADDS)
	bind(fpArith(false, fmsub), insts.OpFMSUB)
	bind(fpArith(true, fmsub), insts.OpFMSUBS)
	bind(fpArith(false, fnmadd), insts.OpFNMADD)
	bind(fpArith(true, fnmadd), insts.OpFNMADDS)
	bind(fpArith(false, fnmsub), insts.OpFNMSUB)
	bind(fpArith(true, fnmsub), insts.OpFNMSUBS)
	bind(fpArith(false, fsel), insts.OpFSEL)
	bind(fpMove(func(b uint64) uint64 { return b }), insts.OpFMR)
	bind(fpMove(func(b uint64) uint64 { return b ^ signBit }), insts.OpFNEG)
	bind(fpMove(func(b uint64) uint64 { return b &^ signBit }), insts.OpFABS)
	bind(fpMove(func(b uint64) uint64 { return b | signBit }), insts.OpFNABS)
	bind(opFRSP, insts.OpFRSP)
	bind(opFCTIW, insts.OpFCTIW)
	bind(opFCTIWZ, insts.OpFCTIWZ)
	bind(opFCMP, insts.OpFCMPU, insts.OpFCMPO)
	bind(opMFFS, insts.OpMFFS)
	bind(opMTFSF, insts.OpMTFSF)
	bind(opMTFSFI, insts.OpMTFSFI)
	bind(opMTFSB0, insts.OpMTFSB0)
	bind(opMTFSB1, insts.OpMTFSB1)

	// AltiVec.
	bind(vecWords(addBytes), insts.OpVADDUBM)
	bind(vecWords(addHalves), insts.OpVADDUHM)
	bind(vecWords(func(a, b uint32) uint32 { return a + b }), insts.OpVADDUWM)
	bind(vecWords(subBytes), insts.OpVSUBUBM)
	bind(vecWords(subHalves), insts.OpVSUBUHM)
	bind(vecWords(func(a, b uint32) uint32 { return a - b }), insts.OpVSUBUWM)
	bind(vecWords(func(a, b uint32) uint32 { return a & b }), insts.OpVAND)
	bind(vecWords(func(a, b uint32) uint32 { return a &^ b }), insts.OpVANDC)
	bind(vecWords(func(a, b uint32) uint32 { return a | b }), insts.OpVOR)
	bind(vecWords(func(a, b uint32) uint32 { return a ^ b }), insts.OpVXOR)
	bind(vecWords(func(a, b uint32) uint32 { return ^(a | b) }), insts.OpVNOR)
	bind(opVSEL, insts.OpVSEL)
	bind(opVPERM, insts.OpVPERM)
	bind(opVSPLTISB, insts.OpVSPLTISB)
	bind(opVSPLTISH, insts.OpVSPLTISH)
	bind(opVSPLTISW, insts.OpVSPLTISW)
	bind(opMFVSCR, insts.OpMFVSCR)
	bind(opMTVSCR, insts.OpMTVSCR)
	bind(opLVX, insts.OpLVX)
	bind(opSTVX, insts.OpSTVX)

	// System.
	bind(opMFSPR, insts.OpMFSPR)
	bind(opMTSPR, insts.OpMTSPR)
	bind(opMFTB, insts.OpMFTB)
	bind(opNop, insts.OpSYNC, insts.OpISYNC, insts.OpEIEIO,
		insts.OpDCBF, insts.OpDCBST, insts.OpDCBT, insts.OpDCBTST)
	bind(opICBI, insts.OpICBI)
	bind(opTW, insts.OpTW)
	bind(opTWI, insts.OpTWI)
	bind(opSC, insts.OpSC)
	bind(opSheep, insts.OpSheep)

	// Supervisor instructions fault like unknown opcodes.
	bind(opIllegal, insts.OpMFMSR, insts.OpMTMSR, insts.OpMFSR, insts.OpMTSR,
		insts.OpMTSRIN, insts.OpTLBIE, insts.OpDCBI, insts.OpRFI)
}

func opIllegal(c *CPU, opcode uint32) {
	c.Illegal(opcode)
}

func opNop(c *CPU, _ uint32) {
	c.Regs.PC += 4
}
