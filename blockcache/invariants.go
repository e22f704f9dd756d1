package blockcache

import "fmt"

// CheckInvariants verifies the cache bookkeeping: every active block owns
// exactly one valid tag, dormant blocks own none, the PC index reaches
// every live block and nothing else, and free slots are on no list.
func (c *Cache[T]) CheckInvariants() error {
	seen := make(map[int32]slotState, c.Len())

	if err := c.checkList(&c.active, stateActive, seen); err != nil {
		return err
	}

	if err := c.checkList(&c.dormant, stateDormant, seen); err != nil {
		return err
	}

	for idx := range c.arena {
		s := &c.arena[idx]
		if _, listed := seen[int32(idx)]; listed != (s.state != stateFree) {
			return fmt.Errorf("slot %d is %s but listed=%v", idx, s.state, listed)
		}
	}

	for pc, idx := range c.index {
		st, ok := seen[idx]
		if !ok {
			return fmt.Errorf("index 0x%08x points at free slot %d", pc, idx)
		}

		if got := c.arena[idx].block.PC; got != pc {
			return fmt.Errorf("index 0x%08x points at block 0x%08x (%s)", pc, got, st)
		}
	}

	if len(c.index) != len(seen) {
		return fmt.Errorf("index holds %d blocks, lists hold %d", len(c.index), len(seen))
	}

	return c.checkTags()
}

func (c *Cache[T]) checkList(l *list, want slotState, seen map[int32]slotState) error {
	n := 0
	prev := none

	for idx := l.head; idx != none; idx = c.arena[idx].next {
		s := &c.arena[idx]

		if s.state != want {
			return fmt.Errorf("slot %d on %s list is %s", idx, want, s.state)
		}

		if s.prev != prev {
			return fmt.Errorf("slot %d on %s list has prev %d, want %d", idx, want, s.prev, prev)
		}

		if _, dup := seen[idx]; dup {
			return fmt.Errorf("slot %d listed twice", idx)
		}

		seen[idx] = want
		prev = idx
		n++

		if n > len(c.arena) {
			return fmt.Errorf("%s list has a cycle", want)
		}
	}

	if l.tail != prev {
		return fmt.Errorf("%s list tail %d, want %d", want, l.tail, prev)
	}

	if l.n != n {
		return fmt.Errorf("%s list count %d, walked %d", want, l.n, n)
	}

	return nil
}

func (c *Cache[T]) checkTags() error {
	valid := 0

	for _, set := range c.dir.GetSets() {
		for _, b := range set.Blocks {
			ti := tagIndex(b, c.cfg.Ways)
			idx := c.tags[ti]

			if !b.IsValid {
				if idx != none {
					return fmt.Errorf("invalid way %d maps to slot %d", ti, idx)
				}

				continue
			}

			valid++

			if idx == none {
				return fmt.Errorf("valid way %d has no slot", ti)
			}

			s := &c.arena[idx]
			if s.state != stateActive || s.tag != ti || uint64(s.block.PC) != b.Tag {
				return fmt.Errorf("way %d tag 0x%x maps to %s block 0x%08x at way %d",
					ti, b.Tag, s.state, s.block.PC, s.tag)
			}
		}
	}

	if valid != c.active.n {
		return fmt.Errorf("%d valid tags for %d active blocks", valid, c.active.n)
	}

	return nil
}
