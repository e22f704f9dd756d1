//go:build unix

package platform_test

import (
	"context"
	"os"

	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/platform"
)

var _ = Describe("SignalRouter", func() {
	It("should route SIGUSR2 to an interrupt and SIGUSR1 to the monitor", func() {
		rec := &interruptRecorder{}
		flags := &emu.SpcFlags{}
		r := platform.NewSignalRouter(rec, flags, quietLogger())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() { done <- r.Run(ctx) }()
		Eventually(r.Started()).Should(BeClosed())

		Expect(unix.Kill(os.Getpid(), unix.SIGUSR2)).To(Succeed())
		Eventually(rec.triggers.Load).Should(Equal(int32(1)))

		Expect(unix.Kill(os.Getpid(), unix.SIGUSR1)).To(Succeed())
		Eventually(func() bool { return flags.Test(emu.SpcEnterMonitor) }).Should(BeTrue())

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})
})
