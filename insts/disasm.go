package insts

import (
	"fmt"
	"strings"
)

var sheepNames = map[uint32]string{
	SheepEmulReturn: "sheep.emul_return",
	SheepExecReturn: "sheep.exec_return",
	SheepExecNative: "sheep.exec_native",
}

var cmpWordAlias = map[Op]string{
	OpCMPI:  "cmpwi",
	OpCMPLI: "cmplwi",
	OpCMP:   "cmpw",
	OpCMPL:  "cmplw",
}

// Disassemble renders opcode at address pc in a conventional assembler
// syntax. Unknown encodings render as ".long".
func Disassemble(pc, opcode uint32) string {
	info := Decode(opcode)
	if info.IsIllegal() {
		return fmt.Sprintf(".long 0x%08x", opcode)
	}

	if alias, ok := simplified(info, opcode); ok {
		return alias
	}

	name := mnemonic(info, opcode)
	args := operandText(info, pc, opcode)

	if args == "" {
		return name
	}

	return name + " " + args
}

func mnemonic(info *InstrInfo, op uint32) string {
	name := info.Name

	switch info.Format {
	case FormatXO:
		if OE(op) {
			name += "o"
		}
		if Rc(op) {
			name += "."
		}
	case FormatX, FormatM, FormatA, FormatXFL:
		if Rc(op) && !strings.HasSuffix(name, ".") && info.Flags&(FlagLoad|FlagStore) == 0 {
			name += "."
		}
	case FormatI, FormatB:
		if LK(op) {
			name += "l"
		}
		if AA(op) {
			name += "a"
		}
	case FormatXL:
		if (info.Op == OpBCLR || info.Op == OpBCCTR) && LK(op) {
			name += "l"
		}
	}

	return name
}

func branchTarget(pc, op uint32) uint32 {
	var disp int32
	if Primary(op) == 18 {
		disp = LI(op)
	} else {
		disp = BD(op)
	}

	if AA(op) {
		return uint32(disp)
	}

	return pc + uint32(disp)
}

func operandText(info *InstrInfo, pc, op uint32) string {
	switch info.operands {
	case opsDArith:
		return fmt.Sprintf("r%d,r%d,%d", RD(op), RA(op), SIMM(op))
	case opsDLogical:
		return fmt.Sprintf("r%d,r%d,0x%x", RA(op), RS(op), UIMM(op))
	case opsDCmp:
		return fmt.Sprintf("cr%d,r%d,%d", CRFD(op), RA(op), SIMM(op))
	case opsDCmpl:
		return fmt.Sprintf("cr%d,r%d,0x%x", CRFD(op), RA(op), UIMM(op))
	case opsDMem:
		return fmt.Sprintf("r%d,%d(r%d)", RD(op), SIMM(op), RA(op))
	case opsFMem:
		return fmt.Sprintf("f%d,%d(r%d)", RD(op), SIMM(op), RA(op))
	case opsTrapImm:
		return fmt.Sprintf("%d,r%d,%d", RD(op), RA(op), SIMM(op))
	case opsBranch:
		return fmt.Sprintf("0x%08x", branchTarget(pc, op))
	case opsBranchCond:
		return fmt.Sprintf("%d,%d,0x%08x", BO(op), BI(op), branchTarget(pc, op))
	case opsBranchReg:
		return fmt.Sprintf("%d,%d", BO(op), BI(op))
	case opsRot:
		return fmt.Sprintf("r%d,r%d,%d,%d,%d", RA(op), RS(op), SH(op), MB(op), ME(op))
	case opsRotReg:
		return fmt.Sprintf("r%d,r%d,r%d,%d,%d", RA(op), RS(op), RB(op), MB(op), ME(op))
	case opsXArith, opsXMem:
		return fmt.Sprintf("r%d,r%d,r%d", RD(op), RA(op), RB(op))
	case opsXArith2:
		return fmt.Sprintf("r%d,r%d", RD(op), RA(op))
	case opsXLogical:
		return fmt.Sprintf("r%d,r%d,r%d", RA(op), RS(op), RB(op))
	case opsXLogical2:
		return fmt.Sprintf("r%d,r%d", RA(op), RS(op))
	case opsXShiftImm:
		return fmt.Sprintf("r%d,r%d,%d", RA(op), RS(op), SH(op))
	case opsXCmp:
		return fmt.Sprintf("cr%d,r%d,r%d", CRFD(op), RA(op), RB(op))
	case opsXFMem:
		return fmt.Sprintf("f%d,r%d,r%d", RD(op), RA(op), RB(op))
	case opsXVMem:
		return fmt.Sprintf("v%d,r%d,r%d", RD(op), RA(op), RB(op))
	case opsXCache:
		if info.Op == OpMTSRIN {
			return fmt.Sprintf("r%d,r%d", RS(op), RB(op))
		}
		return fmt.Sprintf("r%d,r%d", RA(op), RB(op))
	case opsXTrap:
		return fmt.Sprintf("%d,r%d,r%d", RD(op), RA(op), RB(op))
	case opsRD, opsRS:
		return fmt.Sprintf("r%d", RD(op))
	case opsRB:
		return fmt.Sprintf("r%d", RB(op))
	case opsCRBits:
		return fmt.Sprintf("%d,%d,%d", RD(op), RA(op), RB(op))
	case opsCRFields:
		return fmt.Sprintf("cr%d,cr%d", CRFD(op), CRFS(op))
	case opsCRF:
		return fmt.Sprintf("cr%d", CRFD(op))
	case opsMTCRF:
		return fmt.Sprintf("0x%02x,r%d", CRM(op), RS(op))
	case opsMFSPR:
		return fmt.Sprintf("r%d,%d", RD(op), SPR(op))
	case opsMTSPR:
		return fmt.Sprintf("%d,r%d", SPR(op), RS(op))
	case opsSR:
		if info.Op == OpMFSR {
			return fmt.Sprintf("r%d,%d", RD(op), SR(op))
		}
		return fmt.Sprintf("%d,r%d", SR(op), RS(op))
	case opsF2:
		return fmt.Sprintf("f%d,f%d", RD(op), RB(op))
	case opsF3:
		return fmt.Sprintf("f%d,f%d,f%d", RD(op), RA(op), RB(op))
	case opsF3C:
		return fmt.Sprintf("f%d,f%d,f%d", RD(op), RA(op), RC(op))
	case opsF4:
		return fmt.Sprintf("f%d,f%d,f%d,f%d", RD(op), RA(op), RC(op), RB(op))
	case opsFCmp:
		return fmt.Sprintf("cr%d,f%d,f%d", CRFD(op), RA(op), RB(op))
	case opsFD:
		return fmt.Sprintf("f%d", RD(op))
	case opsMTFSF:
		return fmt.Sprintf("0x%02x,f%d", FM(op), RB(op))
	case opsMTFSFI:
		return fmt.Sprintf("cr%d,%d", CRFD(op), (op>>12)&0xf)
	case opsCRBD:
		return fmt.Sprintf("%d", RD(op))
	case opsV3:
		return fmt.Sprintf("v%d,v%d,v%d", RD(op), RA(op), RB(op))
	case opsV4:
		return fmt.Sprintf("v%d,v%d,v%d,v%d", RD(op), RA(op), RB(op), RC(op))
	case opsVSplat:
		return fmt.Sprintf("v%d,%d", RD(op), VSIMM(op))
	case opsVD:
		return fmt.Sprintf("v%d", RD(op))
	case opsVB:
		return fmt.Sprintf("v%d", RB(op))
	case opsSheep:
		return sheepText(op)
	}

	return ""
}

func sheepText(op uint32) string {
	sel := SheepSelector(op)
	if sel == SheepExecNative {
		lr := ""
		if NativeReturnsToLR(op) {
			lr = ",lr"
		}
		return fmt.Sprintf("%d%s", NativeSelector(op), lr)
	}

	if sel >= SheepEmulOpBase {
		return fmt.Sprintf("%d", sel-SheepEmulOpBase)
	}

	return ""
}

// simplified returns the preferred extended mnemonic for common encodings.
func simplified(info *InstrInfo, op uint32) (string, bool) {
	switch info.Op {
	case OpADDI:
		if RA(op) == 0 {
			return fmt.Sprintf("li r%d,%d", RD(op), SIMM(op)), true
		}
	case OpADDIS:
		if RA(op) == 0 {
			return fmt.Sprintf("lis r%d,0x%x", RD(op), UIMM(op)), true
		}
	case OpCMPI, OpCMPLI, OpCMP, OpCMPL:
		if (op>>21)&1 == 0 {
			return cmpWordAlias[info.Op] + " " + operandText(info, 0, op), true
		}
	case OpORI:
		if op == EncodeNOP() {
			return "nop", true
		}
	case OpOR:
		if RS(op) == RB(op) && !Rc(op) {
			return fmt.Sprintf("mr r%d,r%d", RA(op), RS(op)), true
		}
	case OpBCLR, OpBCCTR:
		if BO(op)&BOAlways == BOAlways {
			name := "blr"
			if info.Op == OpBCCTR {
				name = "bctr"
			}
			if LK(op) {
				name += "l"
			}
			return name, true
		}
	case OpMFSPR:
		switch SPR(op) {
		case SPRLR:
			return fmt.Sprintf("mflr r%d", RD(op)), true
		case SPRCTR:
			return fmt.Sprintf("mfctr r%d", RD(op)), true
		}
	case OpMTSPR:
		switch SPR(op) {
		case SPRLR:
			return fmt.Sprintf("mtlr r%d", RS(op)), true
		case SPRCTR:
			return fmt.Sprintf("mtctr r%d", RS(op)), true
		}
	case OpSheep:
		sel := SheepSelector(op)
		if name, ok := sheepNames[sel]; ok {
			if args := sheepText(op); args != "" {
				return name + " " + args, true
			}
			return name, true
		}

		return fmt.Sprintf("sheep.emul_op %d", sel-SheepEmulOpBase), true
	}

	return "", false
}
