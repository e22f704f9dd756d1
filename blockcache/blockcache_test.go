package blockcache_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sheepcore/blockcache"
)

func span(pc uint32, n int) blockcache.Span {
	end := pc + uint32(4*(n-1))
	return blockcache.Span{EndPC: end, MinPC: pc, MaxPC: end, Size: n}
}

var _ = Describe("Cache", func() {
	var c *blockcache.Cache[string]

	tiny := blockcache.Config{Sets: 1, Ways: 2, MaxBlocks: 4}

	AfterEach(func() {
		Expect(c.CheckInvariants()).To(Succeed())
	})

	Describe("lookup", func() {
		BeforeEach(func() {
			c = blockcache.New[string](blockcache.DefaultConfig())
		})

		It("should miss on an empty cache", func() {
			_, _, ok := c.Find(0x1000)
			Expect(ok).To(BeFalse())
			Expect(c.Stats().Misses).To(Equal(uint64(1)))
		})

		It("should find inserted blocks through the tags", func() {
			h := c.Insert(0x1000, span(0x1000, 3), "a")

			got, b, ok := c.Find(0x1000)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(h))
			Expect(b.Data).To(Equal("a"))
			Expect(b.MaxPC).To(Equal(uint32(0x1008)))
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
			Expect(c.Active()).To(Equal(1))
		})

		It("should replace a block at the same PC", func() {
			old := c.Insert(0x1000, span(0x1000, 1), "a")
			c.Insert(0x1000, span(0x1000, 2), "b")

			_, ok := c.Get(old)
			Expect(ok).To(BeFalse())

			_, b, _ := c.Find(0x1000)
			Expect(b.Data).To(Equal("b"))
			Expect(c.Len()).To(Equal(1))
		})

		It("should never resolve the zero handle", func() {
			_, ok := c.Get(blockcache.Handle{})
			Expect(ok).To(BeFalse())
		})
	})

	Describe("tag pressure", func() {
		BeforeEach(func() {
			c = blockcache.New[string](tiny)
		})

		It("should demote the least recently used way and revive it on lookup", func() {
			c.Insert(0x1000, span(0x1000, 1), "a")
			c.Insert(0x2000, span(0x2000, 1), "b")
			c.Find(0x1000)
			c.Insert(0x3000, span(0x3000, 1), "c")

			Expect(c.Active()).To(Equal(2))
			Expect(c.Dormant()).To(Equal(1))
			Expect(c.Stats().Demotions).To(Equal(uint64(1)))

			_, b, ok := c.Find(0x2000)
			Expect(ok).To(BeTrue())
			Expect(b.Data).To(Equal("b"))
			Expect(c.Stats().Revivals).To(Equal(uint64(1)))
			Expect(c.Dormant()).To(Equal(1))
		})

		It("should reclaim the oldest dormant block when the arena is full", func() {
			for i, name := range []string{"a", "b", "c", "d", "e"} {
				c.Insert(uint32(0x1000*(i+1)), span(uint32(0x1000*(i+1)), 1), name)
			}

			Expect(c.Len()).To(Equal(4))
			_, _, ok := c.Find(0x1000)
			Expect(ok).To(BeFalse())

			_, _, ok = c.Find(0x2000)
			Expect(ok).To(BeTrue())
		})

		It("should clear everything when no dormant block can be reclaimed", func() {
			c = blockcache.New[string](blockcache.Config{Sets: 1, Ways: 2, MaxBlocks: 2})
			a := c.Insert(0x1000, span(0x1000, 1), "a")
			c.Insert(0x2000, span(0x2000, 1), "b")
			c.Insert(0x3000, span(0x3000, 1), "c")

			Expect(c.Len()).To(Equal(1))
			Expect(c.Stats().Flushes).To(Equal(uint64(1)))

			_, ok := c.Get(a)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("invalidation", func() {
		var freed []string

		BeforeEach(func() {
			freed = nil
			c = blockcache.New[string](tiny, blockcache.WithFreeHook(func(b *blockcache.Block[string]) {
				freed = append(freed, b.Data)
			}))
		})

		It("should free active and dormant blocks overlapping the range", func() {
			a := c.Insert(0x1000, span(0x1000, 4), "a") // [0x1000, 0x1010)
			c.Insert(0x2000, span(0x2000, 1), "b")
			c.Insert(0x100c, span(0x100c, 2), "c")

			Expect(c.InvalidateRange(0x100c, 0x1010)).To(Equal(2))
			Expect(freed).To(ConsistOf("a", "c"))

			_, ok := c.Get(a)
			Expect(ok).To(BeFalse())
			Expect(c.Stats().Invalidations).To(Equal(uint64(2)))
		})

		It("should treat MaxPC as inclusive and the end as exclusive", func() {
			c.Insert(0x1000, span(0x1000, 2), "a") // [0x1000, 0x1008)

			Expect(c.InvalidateRange(0x1008, 0x1010)).To(BeZero())
			Expect(c.InvalidateRange(0x0ff0, 0x1000)).To(BeZero())
			Expect(c.InvalidateRange(0x1007, 0x1008)).To(Equal(1))
		})

		It("should ignore empty ranges", func() {
			c.Insert(0x1000, span(0x1000, 2), "a")

			Expect(c.InvalidateRange(0x1004, 0x1004)).To(BeZero())
			Expect(c.InvalidateRange(0x1008, 0x1000)).To(BeZero())
			Expect(c.Len()).To(Equal(1))
			Expect(c.Stats().Invalidations).To(BeZero())

			_, b, _ := c.Find(0x1000)
			Expect(b.Covers(0x1000, 0x1000)).To(BeFalse())
		})

		It("should cover discontiguous spans", func() {
			c.Insert(0x1000, blockcache.Span{EndPC: 0x4000, MinPC: 0x1000, MaxPC: 0x4000, Size: 3}, "a")
			Expect(c.InvalidateRange(0x2000, 0x2004)).To(Equal(1))
		})

		It("should free everything on Clear", func() {
			c.Insert(0x1000, span(0x1000, 1), "a")
			c.Insert(0x2000, span(0x2000, 1), "b")
			c.Insert(0x3000, span(0x3000, 1), "c")

			c.Clear()
			Expect(c.Len()).To(BeZero())
			Expect(freed).To(HaveLen(3))
		})
	})

	Describe("chaining", func() {
		BeforeEach(func() {
			c = blockcache.New[string](blockcache.DefaultConfig())
		})

		It("should follow live links and drop stale ones", func() {
			from := c.Insert(0x1000, span(0x1000, 1), "from")
			to := c.Insert(0x2000, span(0x2000, 1), "to")
			c.Link(from, 0, 0x2000, to)

			fb, _ := c.Get(from)
			h, tb, ok := c.Linked(fb, 0x2000)
			Expect(ok).To(BeTrue())
			Expect(h).To(Equal(to))
			Expect(tb.Data).To(Equal("to"))

			c.InvalidateRange(0x2000, 0x2004)
			_, _, ok = c.Linked(fb, 0x2000)
			Expect(ok).To(BeFalse())
			Expect(fb.Links[0].Target.Valid()).To(BeFalse())
		})
	})

	Describe("random operation sequences", func() {
		It("should keep every live block reachable and invalidation sound", func() {
			c = blockcache.New[string](blockcache.Config{Sets: 4, Ways: 2, MaxBlocks: 16})
			rng := rand.New(rand.NewSource(42))

			for step := 0; step < 5000; step++ {
				pc := uint32(rng.Intn(64)) * 4

				switch rng.Intn(4) {
				case 0, 1:
					c.Insert(pc, span(pc, 1+rng.Intn(4)), "x")
				case 2:
					c.Find(pc)
				default:
					end := pc + uint32(4*(1+rng.Intn(3)))
					c.InvalidateRange(pc, end)

					c.Each(func(_ blockcache.Handle, b *blockcache.Block[string]) {
						Expect(b.Covers(pc, end)).To(BeFalse())
					})
				}

				Expect(c.CheckInvariants()).To(Succeed())
			}

			var live []uint32
			c.Each(func(_ blockcache.Handle, b *blockcache.Block[string]) {
				live = append(live, b.PC)
			})

			for _, pc := range live {
				_, b, ok := c.Find(pc)
				Expect(ok).To(BeTrue())
				Expect(b.PC).To(Equal(pc))
			}
		})
	})
})
