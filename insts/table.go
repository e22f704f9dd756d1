package insts

// operands selects the disassembly operand pattern of an entry.
type operands uint8

const (
	opsNone      operands = iota
	opsDArith             // rD,rA,SIMM
	opsDLogical           // rA,rS,UIMM
	opsDCmp               // crfD,rA,SIMM
	opsDCmpl              // crfD,rA,UIMM
	opsDMem               // rD,d(rA)
	opsFMem               // frD,d(rA)
	opsTrapImm            // TO,rA,SIMM
	opsBranch             // target
	opsBranchCond         // BO,BI,target
	opsBranchReg          // BO,BI
	opsRot                // rA,rS,SH,MB,ME
	opsRotReg             // rA,rS,rB,MB,ME
	opsXArith             // rD,rA,rB
	opsXArith2            // rD,rA
	opsXLogical           // rA,rS,rB
	opsXLogical2          // rA,rS
	opsXShiftImm          // rA,rS,SH
	opsXCmp               // crfD,rA,rB
	opsXMem               // rD,rA,rB
	opsXFMem              // frD,rA,rB
	opsXVMem              // vD,rA,rB
	opsXCache             // rA,rB
	opsXTrap              // TO,rA,rB
	opsRD                 // rD
	opsRS                 // rS
	opsCRBits             // crbD,crbA,crbB
	opsCRFields           // crfD,crfS
	opsCRF                // crfD
	opsMTCRF              // CRM,rS
	opsMFSPR              // rD,SPR
	opsMTSPR              // SPR,rS
	opsSR                 // rD,SR / SR,rS
	opsRB                 // rB
	opsF2                 // frD,frB
	opsF3                 // frD,frA,frB
	opsF3C                // frD,frA,frC
	opsF4                 // frD,frA,frC,frB
	opsFCmp               // crfD,frA,frB
	opsFD                 // frD
	opsMTFSF              // FM,frB
	opsMTFSFI             // crfD,IMM
	opsCRBD               // crbD
	opsV3                 // vD,vA,vB
	opsV4                 // vD,vA,vB,vC
	opsVSplat             // vD,SIMM
	opsVD                 // vD
	opsVB                 // vB
	opsSheep              // selector
)

// entry is a row of the static opcode list.
type entry struct {
	primary uint32
	ext     uint32
	info    InstrInfo
}

func e(primary, ext uint32, name string, op Op, format Format, cflow CFlow,
	flags Flags, size uint8, ops operands,
) entry {
	return entry{
		primary: primary,
		ext:     ext,
		info: InstrInfo{
			Name:     name,
			Op:       op,
			Format:   format,
			CFlow:    cflow,
			Flags:    flags,
			Size:     size,
			operands: ops,
		},
	}
}

const (
	fL  = FlagLoad
	fS  = FlagStore
	fLU = FlagLoad | FlagUpdate
	fSU = FlagStore | FlagUpdate
	fF  = FlagFloat
	fV  = FlagVector
	fP  = FlagPrivileged
	fCR = FlagSetsCR0
)

var illegalInfo = InstrInfo{
	Name:   "illegal",
	Op:     OpIllegal,
	Format: FormatUnknown,
	CFlow:  CFlowTrap,
}

// opcodeList is the static opcode list the decode table is built from.
var opcodeList = []entry{
	// Primary-only encodings.
	e(3, 0, "twi", OpTWI, FormatD, CFlowTrap, 0, 0, opsTrapImm),
	e(6, 0, "sheep", OpSheep, FormatSheep, CFlowTrap, 0, 0, opsSheep),
	e(7, 0, "mulli", OpMULLI, FormatD, CFlowNormal, 0, 0, opsDArith),
	e(8, 0, "subfic", OpSUBFIC, FormatD, CFlowNormal, 0, 0, opsDArith),
	e(10, 0, "cmpli", OpCMPLI, FormatD, CFlowNormal, 0, 0, opsDCmpl),
	e(11, 0, "cmpi", OpCMPI, FormatD, CFlowNormal, 0, 0, opsDCmp),
	e(12, 0, "addic", OpADDIC, FormatD, CFlowNormal, 0, 0, opsDArith),
	e(13, 0, "addic.", OpADDICo, FormatD, CFlowNormal, fCR, 0, opsDArith),
	e(14, 0, "addi", OpADDI, FormatD, CFlowNormal, 0, 0, opsDArith),
	e(15, 0, "addis", OpADDIS, FormatD, CFlowNormal, 0, 0, opsDArith),
	e(16, 0, "bc", OpBC, FormatB, CFlowBranch, 0, 0, opsBranchCond),
	e(17, 0, "sc", OpSC, FormatSC, CFlowTrap, 0, 0, opsNone),
	e(18, 0, "b", OpB, FormatI, CFlowConstJump, 0, 0, opsBranch),
	e(20, 0, "rlwimi", OpRLWIMI, FormatM, CFlowNormal, 0, 0, opsRot),
	e(21, 0, "rlwinm", OpRLWINM, FormatM, CFlowNormal, 0, 0, opsRot),
	e(23, 0, "rlwnm", OpRLWNM, FormatM, CFlowNormal, 0, 0, opsRotReg),
	e(24, 0, "ori", OpORI, FormatD, CFlowNormal, 0, 0, opsDLogical),
	e(25, 0, "oris", OpORIS, FormatD, CFlowNormal, 0, 0, opsDLogical),
	e(26, 0, "xori", OpXORI, FormatD, CFlowNormal, 0, 0, opsDLogical),
	e(27, 0, "xoris", OpXORIS, FormatD, CFlowNormal, 0, 0, opsDLogical),
	e(28, 0, "andi.", OpANDIo, FormatD, CFlowNormal, fCR, 0, opsDLogical),
	e(29, 0, "andis.", OpANDISo, FormatD, CFlowNormal, fCR, 0, opsDLogical),
	e(32, 0, "lwz", OpLWZ, FormatD, CFlowNormal, fL, 4, opsDMem),
	e(33, 0, "lwzu", OpLWZU, FormatD, CFlowNormal, fLU, 4, opsDMem),
	e(34, 0, "lbz", OpLBZ, FormatD, CFlowNormal, fL, 1, opsDMem),
	e(35, 0, "lbzu", OpLBZU, FormatD, CFlowNormal, fLU, 1, opsDMem),
	e(36, 0, "stw", OpSTW, FormatD, CFlowNormal, fS, 4, opsDMem),
	e(37, 0, "stwu", OpSTWU, FormatD, CFlowNormal, fSU, 4, opsDMem),
	e(38, 0, "stb", OpSTB, FormatD, CFlowNormal, fS, 1, opsDMem),
	e(39, 0, "stbu", OpSTBU, FormatD, CFlowNormal, fSU, 1, opsDMem),
	e(40, 0, "lhz", OpLHZ, FormatD, CFlowNormal, fL, 2, opsDMem),
	e(41, 0, "lhzu", OpLHZU, FormatD, CFlowNormal, fLU, 2, opsDMem),
	e(42, 0, "lha", OpLHA, FormatD, CFlowNormal, fL, 2, opsDMem),
	e(43, 0, "lhau", OpLHAU, FormatD, CFlowNormal, fLU, 2, opsDMem),
	e(44, 0, "sth", OpSTH, FormatD, CFlowNormal, fS, 2, opsDMem),
	e(45, 0, "sthu", OpSTHU, FormatD, CFlowNormal, fSU, 2, opsDMem),
	e(46, 0, "lmw", OpLMW, FormatD, CFlowNormal, fL, 4, opsDMem),
	e(47, 0, "stmw", OpSTMW, FormatD, CFlowNormal, fS, 4, opsDMem),
	e(48, 0, "lfs", OpLFS, FormatD, CFlowNormal, fL|fF, 4, opsFMem),
	e(49, 0, "lfsu", OpLFSU, FormatD, CFlowNormal, fLU|fF, 4, opsFMem),
	e(50, 0, "lfd", OpLFD, FormatD, CFlowNormal, fL|fF, 8, opsFMem),
	e(51, 0, "lfdu", OpLFDU, FormatD, CFlowNormal, fLU|fF, 8, opsFMem),
	e(52, 0, "stfs", OpSTFS, FormatD, CFlowNormal, fS|fF, 4, opsFMem),
	e(53, 0, "stfsu", OpSTFSU, FormatD, CFlowNormal, fSU|fF, 4, opsFMem),
	e(54, 0, "stfd", OpSTFD, FormatD, CFlowNormal, fS|fF, 8, opsFMem),
	e(55, 0, "stfdu", OpSTFDU, FormatD, CFlowNormal, fSU|fF, 8, opsFMem),

	// Primary 19: branch to register, CR logical, sync.
	e(19, 0, "mcrf", OpMCRF, FormatXL, CFlowNormal, 0, 0, opsCRFields),
	e(19, 16, "bclr", OpBCLR, FormatXL, CFlowBranch, 0, 0, opsBranchReg),
	e(19, 33, "crnor", OpCRNOR, FormatXL, CFlowNormal, 0, 0, opsCRBits),
	e(19, 50, "rfi", OpRFI, FormatXL, CFlowTrap, fP, 0, opsNone),
	e(19, 129, "crandc", OpCRANDC, FormatXL, CFlowNormal, 0, 0, opsCRBits),
	e(19, 150, "isync", OpISYNC, FormatXL, CFlowNormal, 0, 0, opsNone),
	e(19, 193, "crxor", OpCRXOR, FormatXL, CFlowNormal, 0, 0, opsCRBits),
	e(19, 225, "crnand", OpCRNAND, FormatXL, CFlowNormal, 0, 0, opsCRBits),
	e(19, 257, "crand", OpCRAND, FormatXL, CFlowNormal, 0, 0, opsCRBits),
	e(19, 289, "creqv", OpCREQV, FormatXL, CFlowNormal, 0, 0, opsCRBits),
	e(19, 417, "crorc", OpCRORC, FormatXL, CFlowNormal, 0, 0, opsCRBits),
	e(19, 449, "cror", OpCROR, FormatXL, CFlowNormal, 0, 0, opsCRBits),
	e(19, 528, "bcctr", OpBCCTR, FormatXL, CFlowBranch, 0, 0, opsBranchReg),

	// Primary 31, XO-form arithmetic (OE bit expanded).
	e(31, 8, "subfc", OpSUBFC, FormatXO, CFlowNormal, 0, 0, opsXArith),
	e(31, 10, "addc", OpADDC, FormatXO, CFlowNormal, 0, 0, opsXArith),
	e(31, 11, "mulhwu", OpMULHWU, FormatXO, CFlowNormal, 0, 0, opsXArith),
	e(31, 40, "subf", OpSUBF, FormatXO, CFlowNormal, 0, 0, opsXArith),
	e(31, 75, "mulhw", OpMULHW, FormatXO, CFlowNormal, 0, 0, opsXArith),
	e(31, 104, "neg", OpNEG, FormatXO, CFlowNormal, 0, 0, opsXArith2),
	e(31, 136, "subfe", OpSUBFE, FormatXO, CFlowNormal, 0, 0, opsXArith),
	e(31, 138, "adde", OpADDE, FormatXO, CFlowNormal, 0, 0, opsXArith),
	e(31, 200, "subfze", OpSUBFZE, FormatXO, CFlowNormal, 0, 0, opsXArith2),
	e(31, 202, "addze", OpADDZE, FormatXO, CFlowNormal, 0, 0, opsXArith2),
	e(31, 232, "subfme", OpSUBFME, FormatXO, CFlowNormal, 0, 0, opsXArith2),
	e(31, 234, "addme", OpADDME, FormatXO, CFlowNormal, 0, 0, opsXArith2),
	e(31, 235, "mullw", OpMULLW, FormatXO, CFlowNormal, 0, 0, opsXArith),
	e(31, 266, "add", OpADD, FormatXO, CFlowNormal, 0, 0, opsXArith),
	e(31, 459, "divwu", OpDIVWU, FormatXO, CFlowNormal, 0, 0, opsXArith),
	e(31, 491, "divw", OpDIVW, FormatXO, CFlowNormal, 0, 0, opsXArith),

	// Primary 31, X/XFX-form.
	e(31, 0, "cmp", OpCMP, FormatX, CFlowNormal, 0, 0, opsXCmp),
	e(31, 4, "tw", OpTW, FormatX, CFlowTrap, 0, 0, opsXTrap),
	e(31, 19, "mfcr", OpMFCR, FormatX, CFlowNormal, 0, 0, opsRD),
	e(31, 20, "lwarx", OpLWARX, FormatX, CFlowNormal, fL, 4, opsXMem),
	e(31, 23, "lwzx", OpLWZX, FormatX, CFlowNormal, fL, 4, opsXMem),
	e(31, 24, "slw", OpSLW, FormatX, CFlowNormal, 0, 0, opsXLogical),
	e(31, 26, "cntlzw", OpCNTLZW, FormatX, CFlowNormal, 0, 0, opsXLogical2),
	e(31, 28, "and", OpAND, FormatX, CFlowNormal, 0, 0, opsXLogical),
	e(31, 32, "cmpl", OpCMPL, FormatX, CFlowNormal, 0, 0, opsXCmp),
	e(31, 54, "dcbst", OpDCBST, FormatX, CFlowNormal, 0, 0, opsXCache),
	e(31, 55, "lwzux", OpLWZUX, FormatX, CFlowNormal, fLU, 4, opsXMem),
	e(31, 60, "andc", OpANDC, FormatX, CFlowNormal, 0, 0, opsXLogical),
	e(31, 83, "mfmsr", OpMFMSR, FormatX, CFlowNormal, fP, 0, opsRD),
	e(31, 86, "dcbf", OpDCBF, FormatX, CFlowNormal, 0, 0, opsXCache),
	e(31, 87, "lbzx", OpLBZX, FormatX, CFlowNormal, fL, 1, opsXMem),
	e(31, 103, "lvx", OpLVX, FormatX, CFlowNormal, fL|fV, 16, opsXVMem),
	e(31, 119, "lbzux", OpLBZUX, FormatX, CFlowNormal, fLU, 1, opsXMem),
	e(31, 124, "nor", OpNOR, FormatX, CFlowNormal, 0, 0, opsXLogical),
	e(31, 144, "mtcrf", OpMTCRF, FormatXFX, CFlowNormal, 0, 0, opsMTCRF),
	e(31, 146, "mtmsr", OpMTMSR, FormatX, CFlowNormal, fP, 0, opsRS),
	e(31, 150, "stwcx.", OpSTWCXo, FormatX, CFlowNormal, fS|fCR, 4, opsXMem),
	e(31, 151, "stwx", OpSTWX, FormatX, CFlowNormal, fS, 4, opsXMem),
	e(31, 183, "stwux", OpSTWUX, FormatX, CFlowNormal, fSU, 4, opsXMem),
	e(31, 210, "mtsr", OpMTSR, FormatX, CFlowNormal, fP, 0, opsSR),
	e(31, 215, "stbx", OpSTBX, FormatX, CFlowNormal, fS, 1, opsXMem),
	e(31, 231, "stvx", OpSTVX, FormatX, CFlowNormal, fS|fV, 16, opsXVMem),
	e(31, 242, "mtsrin", OpMTSRIN, FormatX, CFlowNormal, fP, 0, opsXCache),
	e(31, 246, "dcbtst", OpDCBTST, FormatX, CFlowNormal, 0, 0, opsXCache),
	e(31, 247, "stbux", OpSTBUX, FormatX, CFlowNormal, fSU, 1, opsXMem),
	e(31, 278, "dcbt", OpDCBT, FormatX, CFlowNormal, 0, 0, opsXCache),
	e(31, 279, "lhzx", OpLHZX, FormatX, CFlowNormal, fL, 2, opsXMem),
	e(31, 284, "eqv", OpEQV, FormatX, CFlowNormal, 0, 0, opsXLogical),
	e(31, 306, "tlbie", OpTLBIE, FormatX, CFlowNormal, fP, 0, opsRB),
	e(31, 311, "lhzux", OpLHZUX, FormatX, CFlowNormal, fLU, 2, opsXMem),
	e(31, 316, "xor", OpXOR, FormatX, CFlowNormal, 0, 0, opsXLogical),
	e(31, 339, "mfspr", OpMFSPR, FormatXFX, CFlowNormal, 0, 0, opsMFSPR),
	e(31, 343, "lhax", OpLHAX, FormatX, CFlowNormal, fL, 2, opsXMem),
	e(31, 371, "mftb", OpMFTB, FormatXFX, CFlowNormal, 0, 0, opsMFSPR),
	e(31, 375, "lhaux", OpLHAUX, FormatX, CFlowNormal, fLU, 2, opsXMem),
	e(31, 407, "sthx", OpSTHX, FormatX, CFlowNormal, fS, 2, opsXMem),
	e(31, 412, "orc", OpORC, FormatX, CFlowNormal, 0, 0, opsXLogical),
	e(31, 439, "sthux", OpSTHUX, FormatX, CFlowNormal, fSU, 2, opsXMem),
	e(31, 444, "or", OpOR, FormatX, CFlowNormal, 0, 0, opsXLogical),
	e(31, 467, "mtspr", OpMTSPR, FormatXFX, CFlowNormal, 0, 0, opsMTSPR),
	e(31, 470, "dcbi", OpDCBI, FormatX, CFlowNormal, fP, 0, opsXCache),
	e(31, 476, "nand", OpNAND, FormatX, CFlowNormal, 0, 0, opsXLogical),
	e(31, 512, "mcrxr", OpMCRXR, FormatX, CFlowNormal, 0, 0, opsCRF),
	e(31, 534, "lwbrx", OpLWBRX, FormatX, CFlowNormal, fL, 4, opsXMem),
	e(31, 535, "lfsx", OpLFSX, FormatX, CFlowNormal, fL|fF, 4, opsXFMem),
	e(31, 536, "srw", OpSRW, FormatX, CFlowNormal, 0, 0, opsXLogical),
	e(31, 567, "lfsux", OpLFSUX, FormatX, CFlowNormal, fLU|fF, 4, opsXFMem),
	e(31, 595, "mfsr", OpMFSR, FormatX, CFlowNormal, fP, 0, opsSR),
	e(31, 598, "sync", OpSYNC, FormatX, CFlowNormal, 0, 0, opsNone),
	e(31, 599, "lfdx", OpLFDX, FormatX, CFlowNormal, fL|fF, 8, opsXFMem),
	e(31, 631, "lfdux", OpLFDUX, FormatX, CFlowNormal, fLU|fF, 8, opsXFMem),
	e(31, 662, "stwbrx", OpSTWBRX, FormatX, CFlowNormal, fS, 4, opsXMem),
	e(31, 663, "stfsx", OpSTFSX, FormatX, CFlowNormal, fS|fF, 4, opsXFMem),
	e(31, 695, "stfsux", OpSTFSUX, FormatX, CFlowNormal, fSU|fF, 4, opsXFMem),
	e(31, 727, "stfdx", OpSTFDX, FormatX, CFlowNormal, fS|fF, 8, opsXFMem),
	e(31, 759, "stfdux", OpSTFDUX, FormatX, CFlowNormal, fSU|fF, 8, opsXFMem),
	e(31, 790, "lhbrx", OpLHBRX, FormatX, CFlowNormal, fL, 2, opsXMem),
	e(31, 792, "sraw", OpSRAW, FormatX, CFlowNormal, 0, 0, opsXLogical),
	e(31, 824, "srawi", OpSRAWI, FormatX, CFlowNormal, 0, 0, opsXShiftImm),
	e(31, 854, "eieio", OpEIEIO, FormatX, CFlowNormal, 0, 0, opsNone),
	e(31, 918, "sthbrx", OpSTHBRX, FormatX, CFlowNormal, fS, 2, opsXMem),
	e(31, 922, "extsh", OpEXTSH, FormatX, CFlowNormal, 0, 0, opsXLogical2),
	e(31, 954, "extsb", OpEXTSB, FormatX, CFlowNormal, 0, 0, opsXLogical2),
	e(31, 982, "icbi", OpICBI, FormatX, CFlowNormal, 0, 0, opsXCache),
	e(31, 983, "stfiwx", OpSTFIWX, FormatX, CFlowNormal, fS|fF, 4, opsXFMem),
	e(31, 1014, "dcbz", OpDCBZ, FormatX, CFlowNormal, fS, 32, opsXCache),

	// Primary 59, single-precision A-form (frC expanded).
	e(59, 18, "fdivs", OpFDIVS, FormatA, CFlowNormal, fF, 0, opsF3),
	e(59, 20, "fsubs", OpFSUBS, FormatA, CFlowNormal, fF, 0, opsF3),
	e(59, 21, "fadds", OpFADDS, FormatA, CFlowNormal, fF, 0, opsF3),
	e(59, 25, "fmuls", OpFMULS, FormatA, CFlowNormal, fF, 0, opsF3C),
	e(59, 28, "fmsubs", OpFMSUBS, FormatA, CFlowNormal, fF, 0, opsF4),
	e(59, 29, "fmadds", OpFMADDS, FormatA, CFlowNormal, fF, 0, opsF4),
	e(59, 30, "fnmsubs", OpFNMSUBS, FormatA, CFlowNormal, fF, 0, opsF4),
	e(59, 31, "fnmadds", OpFNMADDS, FormatA, CFlowNormal, fF, 0, opsF4),

	// Primary 63, double-precision A-form and X-form.
	e(63, 18, "fdiv", OpFDIV, FormatA, CFlowNormal, fF, 0, opsF3),
	e(63, 20, "fsub", OpFSUB, FormatA, CFlowNormal, fF, 0, opsF3),
	e(63, 21, "fadd", OpFADD, FormatA, CFlowNormal, fF, 0, opsF3),
	e(63, 23, "fsel", OpFSEL, FormatA, CFlowNormal, fF, 0, opsF4),
	e(63, 25, "fmul", OpFMUL, FormatA, CFlowNormal, fF, 0, opsF3C),
	e(63, 28, "fmsub", OpFMSUB, FormatA, CFlowNormal, fF, 0, opsF4),
	e(63, 29, "fmadd", OpFMADD, FormatA, CFlowNormal, fF, 0, opsF4),
	e(63, 30, "fnmsub", OpFNMSUB, FormatA, CFlowNormal, fF, 0, opsF4),
	e(63, 31, "fnmadd", OpFNMADD, FormatA, CFlowNormal, fF, 0, opsF4),
	e(63, 0, "fcmpu", OpFCMPU, FormatX, CFlowNormal, fF, 0, opsFCmp),
	e(63, 12, "frsp", OpFRSP, FormatX, CFlowNormal, fF, 0, opsF2),
	e(63, 14, "fctiw", OpFCTIW, FormatX, CFlowNormal, fF, 0, opsF2),
	e(63, 15, "fctiwz", OpFCTIWZ, FormatX, CFlowNormal, fF, 0, opsF2),
	e(63, 32, "fcmpo", OpFCMPO, FormatX, CFlowNormal, fF, 0, opsFCmp),
	e(63, 38, "mtfsb1", OpMTFSB1, FormatX, CFlowNormal, fF, 0, opsCRBD),
	e(63, 40, "fneg", OpFNEG, FormatX, CFlowNormal, fF, 0, opsF2),
	e(63, 70, "mtfsb0", OpMTFSB0, FormatX, CFlowNormal, fF, 0, opsCRBD),
	e(63, 72, "fmr", OpFMR, FormatX, CFlowNormal, fF, 0, opsF2),
	e(63, 134, "mtfsfi", OpMTFSFI, FormatX, CFlowNormal, fF, 0, opsMTFSFI),
	e(63, 136, "fnabs", OpFNABS, FormatX, CFlowNormal, fF, 0, opsF2),
	e(63, 264, "fabs", OpFABS, FormatX, CFlowNormal, fF, 0, opsF2),
	e(63, 583, "mffs", OpMFFS, FormatX, CFlowNormal, fF, 0, opsFD),
	e(63, 711, "mtfsf", OpMTFSF, FormatXFL, CFlowNormal, fF, 0, opsMTFSF),

	// Primary 4, AltiVec (VA-form vC expanded).
	e(4, 0, "vaddubm", OpVADDUBM, FormatVX, CFlowNormal, fV, 0, opsV3),
	e(4, 64, "vadduhm", OpVADDUHM, FormatVX, CFlowNormal, fV, 0, opsV3),
	e(4, 128, "vadduwm", OpVADDUWM, FormatVX, CFlowNormal, fV, 0, opsV3),
	e(4, 1024, "vsububm", OpVSUBUBM, FormatVX, CFlowNormal, fV, 0, opsV3),
	e(4, 1088, "vsubuhm", OpVSUBUHM, FormatVX, CFlowNormal, fV, 0, opsV3),
	e(4, 1152, "vsubuwm", OpVSUBUWM, FormatVX, CFlowNormal, fV, 0, opsV3),
	e(4, 1028, "vand", OpVAND, FormatVX, CFlowNormal, fV, 0, opsV3),
	e(4, 1092, "vandc", OpVANDC, FormatVX, CFlowNormal, fV, 0, opsV3),
	e(4, 1156, "vor", OpVOR, FormatVX, CFlowNormal, fV, 0, opsV3),
	e(4, 1220, "vxor", OpVXOR, FormatVX, CFlowNormal, fV, 0, opsV3),
	e(4, 1284, "vnor", OpVNOR, FormatVX, CFlowNormal, fV, 0, opsV3),
	e(4, 780, "vspltisb", OpVSPLTISB, FormatVX, CFlowNormal, fV, 0, opsVSplat),
	e(4, 844, "vspltish", OpVSPLTISH, FormatVX, CFlowNormal, fV, 0, opsVSplat),
	e(4, 908, "vspltisw", OpVSPLTISW, FormatVX, CFlowNormal, fV, 0, opsVSplat),
	e(4, 1540, "mfvscr", OpMFVSCR, FormatVX, CFlowNormal, fV, 0, opsVD),
	e(4, 1604, "mtvscr", OpMTVSCR, FormatVX, CFlowNormal, fV, 0, opsVB),
	e(4, 42, "vsel", OpVSEL, FormatVA, CFlowNormal, fV, 0, opsV4),
	e(4, 43, "vperm", OpVPERM, FormatVA, CFlowNormal, fV, 0, opsV4),
}
