// Package blockcache stores translated basic blocks keyed by guest PC.
//
// An Akita cache directory holds the tags of the hot blocks. Each tag slot
// maps to an arena entry; blocks evicted from the tags stay reachable by PC
// on the dormant list until their arena slot is needed. Callers keep
// Handle values, which go stale once the block is freed.
package blockcache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config sizes the cache.
type Config struct {
	// Sets is the number of tag sets. Must be a power of two.
	Sets int
	// Ways is the tag associativity.
	Ways int
	// MaxBlocks bounds the arena, active and dormant blocks together.
	MaxBlocks int
}

// DefaultConfig returns the sizes used by the engine.
func DefaultConfig() Config {
	return Config{
		Sets:      1024,
		Ways:      4,
		MaxBlocks: 16384,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Sets <= 0 || c.Sets&(c.Sets-1) != 0 {
		return fmt.Errorf("blockcache: sets %d is not a power of two", c.Sets)
	}

	if c.Ways <= 0 {
		return fmt.Errorf("blockcache: ways must be positive, got %d", c.Ways)
	}

	if c.MaxBlocks < c.Sets*c.Ways {
		return fmt.Errorf("blockcache: max blocks %d below tag capacity %d",
			c.MaxBlocks, c.Sets*c.Ways)
	}

	return nil
}

// Handle names a block. The zero Handle never refers to a block.
type Handle struct {
	index int32
	gen   uint32
}

// Valid reports whether h was ever issued. A valid handle may still be
// stale.
func (h Handle) Valid() bool { return h.gen != 0 }

func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.index, h.gen)
}

// Span describes the guest code a block covers.
type Span struct {
	// EndPC is the address of the terminating instruction.
	EndPC uint32
	// MinPC and MaxPC are the lowest and highest decoded instruction
	// addresses. The block covers [MinPC, MaxPC+4).
	MinPC, MaxPC uint32
	// Size is the number of instructions.
	Size int
}

// Link is a chaining slot: the guest PC a block exits to and the block
// that was found there.
type Link struct {
	PC     uint32
	Target Handle
}

// NumLinks is the number of link slots per block.
const NumLinks = 2

// Block is one cached translation.
type Block[T any] struct {
	PC uint32
	Span
	// Count is the number of executions.
	Count uint64
	Data  T
	Links [NumLinks]Link
}

// Covers reports whether the block overlaps [start, end).
func (b *Block[T]) Covers(start, end uint32) bool {
	return start < end && uint64(b.MinPC) < uint64(end) && uint64(start) < uint64(b.MaxPC)+4
}

// Stats counts cache events.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Revivals      uint64
	Demotions     uint64
	Invalidations uint64
	Flushes       uint64
	Inserts       uint64
}

type slotState uint8

const (
	stateFree slotState = iota
	stateActive
	stateDormant
)

func (s slotState) String() string {
	switch s {
	case stateActive:
		return "active"
	case stateDormant:
		return "dormant"
	default:
		return "free"
	}
}

const none int32 = -1

type slot[T any] struct {
	block      Block[T]
	gen        uint32
	state      slotState
	prev, next int32
	tag        int // directory slot index while active
}

type list struct {
	head, tail int32
	n          int
}

// Cache is the block cache. It is owned by the emulation goroutine.
type Cache[T any] struct {
	cfg Config

	dir  *akitacache.DirectoryImpl
	tags []int32 // arena index per directory slot (SetID*Ways+WayID)

	arena []slot[T]
	free  []int32
	index map[uint32]int32

	active  list
	dormant list

	onFree func(*Block[T])

	stats Stats
}

// Option configures a Cache.
type Option[T any] func(*Cache[T])

// WithFreeHook registers fn to run on every block as it is freed.
func WithFreeHook[T any](fn func(*Block[T])) Option[T] {
	return func(c *Cache[T]) {
		c.onFree = fn
	}
}

// New creates an empty cache. It panics on an invalid configuration.
func New[T any](cfg Config, opts ...Option[T]) *Cache[T] {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	c := &Cache[T]{
		cfg: cfg,
		dir: akitacache.NewDirectory(
			cfg.Sets,
			cfg.Ways,
			4,
			akitacache.NewLRUVictimFinder(),
		),
		tags:    make([]int32, cfg.Sets*cfg.Ways),
		index:   make(map[uint32]int32),
		active:  list{head: none, tail: none},
		dormant: list{head: none, tail: none},
	}

	for i := range c.tags {
		c.tags[i] = none
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Config returns the cache configuration.
func (c *Cache[T]) Config() Config { return c.cfg }

// Stats returns the event counters.
func (c *Cache[T]) Stats() Stats { return c.stats }

// Len returns the number of live blocks.
func (c *Cache[T]) Len() int { return c.active.n + c.dormant.n }

// Active returns the number of tag-resident blocks.
func (c *Cache[T]) Active() int { return c.active.n }

// Dormant returns the number of blocks reachable only by PC.
func (c *Cache[T]) Dormant() int { return c.dormant.n }

func (c *Cache[T]) handle(idx int32) Handle {
	return Handle{index: idx, gen: c.arena[idx].gen}
}

func tagIndex(b *akitacache.Block, ways int) int {
	return b.SetID*ways + b.WayID
}

// Find returns the block for pc. A tag hit promotes the block in its set.
// A block found only by PC is revived into the tags.
func (c *Cache[T]) Find(pc uint32) (Handle, *Block[T], bool) {
	if tb := c.dir.Lookup(0, uint64(pc)); tb != nil {
		idx := c.tags[tagIndex(tb, c.cfg.Ways)]
		if idx == none || c.arena[idx].state != stateActive {
			panic(fmt.Sprintf("blockcache: tag for 0x%08x maps to slot %d", pc, idx))
		}

		c.dir.Visit(tb)
		c.moveToFront(&c.active, idx)
		c.stats.Hits++

		return c.handle(idx), &c.arena[idx].block, true
	}

	idx, ok := c.index[pc]
	if !ok {
		c.stats.Misses++
		return Handle{}, nil, false
	}

	s := &c.arena[idx]
	if s.state != stateDormant {
		panic(fmt.Sprintf("blockcache: untagged block 0x%08x is %s", pc, s.state))
	}

	c.unlink(&c.dormant, idx)
	c.activate(idx)
	c.stats.Revivals++

	return c.handle(idx), &s.block, true
}

// Get returns the block named by h, or false if h is stale. Block
// pointers stay valid until the next Insert.
func (c *Cache[T]) Get(h Handle) (*Block[T], bool) {
	if !h.Valid() || int(h.index) >= len(c.arena) {
		return nil, false
	}

	s := &c.arena[h.index]
	if s.gen != h.gen || s.state == stateFree {
		return nil, false
	}

	return &s.block, true
}

// Insert adds a block for pc, replacing any block already cached there.
func (c *Cache[T]) Insert(pc uint32, span Span, data T) Handle {
	if idx, ok := c.index[pc]; ok {
		c.release(idx)
	}

	idx := c.alloc()
	s := &c.arena[idx]
	s.block = Block[T]{PC: pc, Span: span, Data: data}
	c.index[pc] = idx
	c.activate(idx)
	c.stats.Inserts++

	return c.handle(idx)
}

// Link records that block from exits to pc in link slot i, where target
// was found.
func (c *Cache[T]) Link(from Handle, i int, pc uint32, target Handle) {
	b, ok := c.Get(from)
	if !ok {
		return
	}

	b.Links[i] = Link{PC: pc, Target: target}
}

// Linked returns the live block chained from b for pc, if any.
func (c *Cache[T]) Linked(b *Block[T], pc uint32) (Handle, *Block[T], bool) {
	for i := range b.Links {
		l := &b.Links[i]
		if l.PC != pc || !l.Target.Valid() {
			continue
		}

		if t, ok := c.Get(l.Target); ok && t.PC == pc {
			return l.Target, t, true
		}

		l.Target = Handle{}
	}

	return Handle{}, nil, false
}

// InvalidateRange frees every block overlapping [start, end) and returns
// how many were freed.
func (c *Cache[T]) InvalidateRange(start, end uint32) int {
	if start >= end {
		return 0
	}

	n := c.sweep(&c.active, start, end) + c.sweep(&c.dormant, start, end)
	c.stats.Invalidations += uint64(n)

	return n
}

func (c *Cache[T]) sweep(l *list, start, end uint32) int {
	n := 0
	for idx := l.head; idx != none; {
		next := c.arena[idx].next
		if c.arena[idx].block.Covers(start, end) {
			c.release(idx)
			n++
		}
		idx = next
	}

	return n
}

// Clear frees every block.
func (c *Cache[T]) Clear() {
	for idx := range c.arena {
		if c.arena[idx].state != stateFree {
			c.release(int32(idx))
		}
	}

	c.dir.Reset()
	c.stats.Flushes++
}

// Each calls fn for every live block, active blocks first from most
// recently used.
func (c *Cache[T]) Each(fn func(Handle, *Block[T])) {
	for _, l := range []*list{&c.active, &c.dormant} {
		for idx := l.head; idx != none; idx = c.arena[idx].next {
			fn(c.handle(idx), &c.arena[idx].block)
		}
	}
}

// alloc returns a free arena slot, reclaiming dormant blocks and finally
// clearing the cache when the arena is full.
func (c *Cache[T]) alloc() int32 {
	if len(c.free) == 0 && len(c.arena) < c.cfg.MaxBlocks {
		c.arena = append(c.arena, slot[T]{gen: 1, prev: none, next: none, tag: -1})
		c.free = append(c.free, int32(len(c.arena)-1))
	}

	if len(c.free) == 0 && c.dormant.tail != none {
		c.release(c.dormant.tail)
	}

	if len(c.free) == 0 {
		c.Clear()
	}

	idx := c.free[len(c.free)-1]
	c.free = c.free[:len(c.free)-1]

	return idx
}

// activate places a block into the tags, demoting the victim way.
func (c *Cache[T]) activate(idx int32) {
	s := &c.arena[idx]

	victim := c.dir.FindVictim(uint64(s.block.PC))
	ti := tagIndex(victim, c.cfg.Ways)

	if victim.IsValid {
		old := c.tags[ti]
		if old == none || c.arena[old].state != stateActive {
			panic(fmt.Sprintf("blockcache: valid way %d maps to slot %d", ti, old))
		}

		c.unlink(&c.active, old)
		c.arena[old].state = stateDormant
		c.arena[old].tag = -1
		c.pushFront(&c.dormant, old)
		c.stats.Demotions++
	}

	victim.Tag = uint64(s.block.PC)
	victim.PID = 0
	victim.IsValid = true
	c.dir.Visit(victim)

	c.tags[ti] = idx
	s.tag = ti
	s.state = stateActive
	c.pushFront(&c.active, idx)
}

// release frees a live block.
func (c *Cache[T]) release(idx int32) {
	s := &c.arena[idx]

	switch s.state {
	case stateActive:
		c.unlink(&c.active, idx)
		c.dropTag(s.tag)
	case stateDormant:
		c.unlink(&c.dormant, idx)
	default:
		panic(fmt.Sprintf("blockcache: double free of slot %d", idx))
	}

	if c.index[s.block.PC] == idx {
		delete(c.index, s.block.PC)
	}

	if c.onFree != nil {
		c.onFree(&s.block)
	}

	s.block = Block[T]{}
	s.state = stateFree
	s.tag = -1
	s.gen++
	c.free = append(c.free, idx)
}

func (c *Cache[T]) dropTag(ti int) {
	sets := c.dir.GetSets()
	set := &sets[ti/c.cfg.Ways]

	for _, b := range set.Blocks {
		if b.WayID == ti%c.cfg.Ways {
			b.IsValid = false
			break
		}
	}

	c.tags[ti] = none
}

func (c *Cache[T]) pushFront(l *list, idx int32) {
	s := &c.arena[idx]
	s.prev = none
	s.next = l.head

	if l.head != none {
		c.arena[l.head].prev = idx
	} else {
		l.tail = idx
	}

	l.head = idx
	l.n++
}

func (c *Cache[T]) unlink(l *list, idx int32) {
	s := &c.arena[idx]

	if s.prev != none {
		c.arena[s.prev].next = s.next
	} else {
		l.head = s.next
	}

	if s.next != none {
		c.arena[s.next].prev = s.prev
	} else {
		l.tail = s.prev
	}

	s.prev, s.next = none, none
	l.n--
}

func (c *Cache[T]) moveToFront(l *list, idx int32) {
	if l.head == idx {
		return
	}

	c.unlink(l, idx)
	c.pushFront(l, idx)
}
