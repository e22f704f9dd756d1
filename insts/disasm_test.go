package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/insts"
)

var _ = Describe("Disassemble", func() {
	DescribeTable("renders instructions",
		func(pc, op uint32, want string) {
			Expect(insts.Disassemble(pc, op)).To(Equal(want))
		},
		Entry("li", uint32(0), insts.EncodeLI(3, 5), "li r3,5"),
		Entry("addi", uint32(0), insts.EncodeADDI(3, 4, -1), "addi r3,r4,-1"),
		Entry("lis", uint32(0), insts.EncodeLIS(5, 0x1234), "lis r5,0x1234"),
		Entry("nop", uint32(0), insts.EncodeNOP(), "nop"),
		Entry("add", uint32(0), insts.EncodeADD(3, 4, 5), "add r3,r4,r5"),
		Entry("addo.", uint32(0), insts.EncodeXO(3, 4, 5, true, 266, true), "addo. r3,r4,r5"),
		Entry("mr", uint32(0), insts.EncodeMR(3, 4), "mr r3,r4"),
		Entry("lwz", uint32(0), insts.EncodeLWZ(3, 1, 8), "lwz r3,8(r1)"),
		Entry("stwu", uint32(0), insts.EncodeSTWU(1, 1, -16), "stwu r1,-16(r1)"),
		Entry("rlwinm", uint32(0), insts.EncodeRLWINM(3, 4, 2, 0, 29), "rlwinm r3,r4,2,0,29"),
		Entry("cmpwi", uint32(0), insts.EncodeCMPWI(7, 3, -1), "cmpwi cr7,r3,-1"),
		Entry("b", uint32(0x1000), insts.EncodeBranch(0x10), "b 0x00001010"),
		Entry("bl", uint32(0x1000), insts.EncodeBL(-4), "bl 0x00000ffc"),
		Entry("bc", uint32(0x2000), insts.EncodeBC(insts.BOTrue, insts.CREQ, 8), "bc 12,2,0x00002008"),
		Entry("blr", uint32(0), insts.EncodeBLR(), "blr"),
		Entry("bctrl", uint32(0), insts.EncodeBCTRL(), "bctrl"),
		Entry("mflr", uint32(0), insts.EncodeMFLR(0), "mflr r0"),
		Entry("mtctr", uint32(0), insts.EncodeMTCTR(12), "mtctr r12"),
		Entry("fmadd", uint32(0), insts.EncodeFMADD(1, 2, 3, 4), "fmadd f1,f2,f3,f4"),
		Entry("exec_return", uint32(0), insts.EncodeExecReturn(), "sheep.exec_return"),
		Entry("emul_op", uint32(0), insts.EncodeEmulOp(4), "sheep.emul_op 4"),
		Entry("exec_native", uint32(0), insts.EncodeNativeOp(5, true), "sheep.exec_native 5,lr"),
		Entry("illegal", uint32(0), uint32(0x04000001), ".long 0x04000001"),
	)
})
