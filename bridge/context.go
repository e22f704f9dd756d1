package bridge

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/emu"
)

// MachineContext is the register view the bridge works on. The fault path
// and the delivery policies never touch register storage directly.
type MachineContext interface {
	Gpr(i int) uint32
	SetGpr(i int, v uint32)
	GetPC() uint32
	SetPC(v uint32)
	GetLR() uint32
	SetLR(v uint32)
	GetCTR() uint32
	SetCTR(v uint32)
	GetCR() uint32
	SetCR(v uint32)
	GetXER() uint32
	SetXER(v uint32)
}

var _ MachineContext = (*emu.Registers)(nil)

// DumpFields renders ctx as log fields.
func DumpFields(ctx MachineContext) logrus.Fields {
	f := logrus.Fields{
		"pc":  fmt.Sprintf("%08x", ctx.GetPC()),
		"lr":  fmt.Sprintf("%08x", ctx.GetLR()),
		"ctr": fmt.Sprintf("%08x", ctx.GetCTR()),
		"cr":  fmt.Sprintf("%08x", ctx.GetCR()),
		"xer": fmt.Sprintf("%08x", ctx.GetXER()),
	}

	for i := 0; i < 32; i++ {
		f[fmt.Sprintf("r%d", i)] = fmt.Sprintf("%08x", ctx.Gpr(i))
	}

	return f
}
