package insts

// Op identifies a PowerPC instruction (or pseudo-instruction) semantic.
type Op uint16

// PowerPC operations. Suffix "o" marks record forms that always set CR0.
const (
	OpIllegal Op = iota

	// Integer arithmetic
	OpADDI
	OpADDIS
	OpADDIC
	OpADDICo
	OpSUBFIC
	OpMULLI
	OpADD
	OpADDC
	OpADDE
	OpADDZE
	OpADDME
	OpSUBF
	OpSUBFC
	OpSUBFE
	OpSUBFZE
	OpSUBFME
	OpNEG
	OpMULLW
	OpMULHW
	OpMULHWU
	OpDIVW
	OpDIVWU

	// Logical
	OpORI
	OpORIS
	OpXORI
	OpXORIS
	OpANDIo
	OpANDISo
	OpAND
	OpANDC
	OpOR
	OpORC
	OpXOR
	OpNAND
	OpNOR
	OpEQV
	OpEXTSB
	OpEXTSH
	OpCNTLZW

	// Rotate and shift
	OpRLWIMI
	OpRLWINM
	OpRLWNM
	OpSLW
	OpSRW
	OpSRAW
	OpSRAWI

	// Compare
	OpCMPI
	OpCMPLI
	OpCMP
	OpCMPL

	// Branch
	OpB
	OpBC
	OpBCLR
	OpBCCTR

	// Condition register
	OpMCRF
	OpCRAND
	OpCRANDC
	OpCREQV
	OpCRNAND
	OpCRNOR
	OpCROR
	OpCRORC
	OpCRXOR
	OpMFCR
	OpMTCRF
	OpMCRXR

	// Loads and stores
	OpLWZ
	OpLWZU
	OpLWZX
	OpLWZUX
	OpLBZ
	OpLBZU
	OpLBZX
	OpLBZUX
	OpLHZ
	OpLHZU
	OpLHZX
	OpLHZUX
	OpLHA
	OpLHAU
	OpLHAX
	OpLHAUX
	OpSTW
	OpSTWU
	OpSTWX
	OpSTWUX
	OpSTB
	OpSTBU
	OpSTBX
	OpSTBUX
	OpSTH
	OpSTHU
	OpSTHX
	OpSTHUX
	OpLMW
	OpSTMW
	OpLWBRX
	OpSTWBRX
	OpLHBRX
	OpSTHBRX
	OpLWARX
	OpSTWCXo

	// Floating-point loads and stores
	OpLFS
	OpLFSU
	OpLFSX
	OpLFSUX
	OpLFD
	OpLFDU
	OpLFDX
	OpLFDUX
	OpSTFS
	OpSTFSU
	OpSTFSX
	OpSTFSUX
	OpSTFD
	OpSTFDU
	OpSTFDX
	OpSTFDUX
	OpSTFIWX

	// Floating-point arithmetic
	OpFADD
	OpFADDS
	OpFSUB
	OpFSUBS
	OpFMUL
	OpFMULS
	OpFDIV
	OpFDIVS
	OpFMADD
	OpFMADDS
	OpFMSUB
	OpFMSUBS
	OpFNMADD
	OpFNMADDS
	OpFNMSUB
	OpFNMSUBS
	OpFSEL
	OpFMR
	OpFNEG
	OpFABS
	OpFNABS
	OpFRSP
	OpFCTIW
	OpFCTIWZ
	OpFCMPU
	OpFCMPO
	OpMFFS
	OpMTFSF
	OpMTFSFI
	OpMTFSB0
	OpMTFSB1

	// AltiVec
	OpVADDUBM
	OpVADDUHM
	OpVADDUWM
	OpVSUBUBM
	OpVSUBUHM
	OpVSUBUWM
	OpVAND
	OpVANDC
	OpVOR
	OpVXOR
	OpVNOR
	OpVSEL
	OpVPERM
	OpVSPLTISB
	OpVSPLTISH
	OpVSPLTISW
	OpMFVSCR
	OpMTVSCR
	OpLVX
	OpSTVX

	// System
	OpMFSPR
	OpMTSPR
	OpMFTB
	OpSYNC
	OpISYNC
	OpEIEIO
	OpDCBF
	OpDCBST
	OpDCBT
	OpDCBTST
	OpDCBZ
	OpICBI
	OpTW
	OpTWI
	OpSC

	// Supervisor-level instructions; routed to the illegal-instruction path.
	OpMFMSR
	OpMTMSR
	OpMFSR
	OpMTSR
	OpMTSRIN
	OpTLBIE
	OpDCBI
	OpRFI

	// SheepShaver pseudo-op (primary opcode 6).
	OpSheep

	// NumOps is the number of defined operations.
	NumOps
)

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatD              // Immediate displacement / operand
	FormatI              // Unconditional branch
	FormatB              // Conditional branch
	FormatSC             // System call
	FormatX              // Register-indexed
	FormatXL             // Condition-register / branch to register
	FormatXFX            // Special-purpose register moves
	FormatXFL            // FPSCR field move
	FormatXO             // Integer arithmetic with OE
	FormatA              // Floating-point multiply-add
	FormatM              // Rotate with mask
	FormatVX             // Vector register
	FormatVA             // Vector three-source
	FormatSheep          // SheepShaver pseudo-op
)

// CFlow classifies the control-flow behavior of an instruction.
type CFlow uint8

// Control-flow classes.
const (
	// CFlowNormal falls through to the next instruction.
	CFlowNormal CFlow = iota
	// CFlowBranch may transfer control depending on run-time state.
	CFlowBranch
	// CFlowJump always transfers control to a run-time computed target.
	CFlowJump
	// CFlowConstJump always transfers control to a target known at decode time.
	CFlowConstJump
	// CFlowTrap leaves the instruction stream (trap, syscall, pseudo-op, illegal).
	CFlowTrap
)

// EndsBlock reports whether a basic block must stop after this class.
func (c CFlow) EndsBlock() bool {
	return c != CFlowNormal
}

func (c CFlow) String() string {
	switch c {
	case CFlowNormal:
		return "normal"
	case CFlowBranch:
		return "branch"
	case CFlowJump:
		return "jump"
	case CFlowConstJump:
		return "const-jump"
	case CFlowTrap:
		return "trap"
	default:
		return "unknown"
	}
}

// Flags carries per-instruction properties.
type Flags uint16

// Instruction flags.
const (
	// FlagSetsCR0 marks instructions that always update CR0.
	FlagSetsCR0 Flags = 1 << iota
	// FlagPrivileged marks supervisor instructions.
	FlagPrivileged
	// FlagLoad marks memory loads.
	FlagLoad
	// FlagStore marks memory stores.
	FlagStore
	// FlagUpdate marks update-form loads and stores (rA receives the EA).
	FlagUpdate
	// FlagFloat marks floating-point instructions.
	FlagFloat
	// FlagVector marks AltiVec instructions.
	FlagVector
)

// InstrInfo is an immutable decode table entry.
type InstrInfo struct {
	Name   string // Mnemonic
	Op     Op     // Semantic identifier
	Format Format // Encoding format
	CFlow  CFlow  // Control-flow class
	Flags  Flags  // Properties

	// Size is the memory access width in bytes for loads and stores.
	Size uint8

	operands operands
}

// Has reports whether all flags in f are set.
func (i *InstrInfo) Has(f Flags) bool {
	return i.Flags&f == f
}

// IsIllegal reports whether this is the illegal-instruction entry.
func (i *InstrInfo) IsIllegal() bool {
	return i.Op == OpIllegal
}
