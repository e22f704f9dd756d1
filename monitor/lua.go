package monitor

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/sarchlab/sheepcore/emu"
)

// RunScript runs Lua source against c.
func (m *Monitor) RunScript(c *emu.CPU, src string) error {
	L := m.luaState(c)
	defer L.Close()

	return L.DoString(src)
}

// RunFile runs a Lua script file against c.
func (m *Monitor) RunFile(c *emu.CPU, path string) error {
	L := m.luaState(c)
	defer L.Close()

	return L.DoFile(path)
}

// luaState binds gpr, setgpr, pc, setpc, peek32, poke32 and print.
func (m *Monitor) luaState(c *emu.CPU) *lua.LState {
	if m.w == nil {
		m.w = m.out
	}

	L := lua.NewState()
	mem := c.Memory()

	reg := func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n < 0 || n > 31 {
			L.ArgError(1, "register out of range")
		}

		return n
	}

	word := func(L *lua.LState, i int) uint32 {
		return uint32(int64(L.CheckNumber(i)))
	}

	fns := map[string]lua.LGFunction{
		"gpr": func(L *lua.LState) int {
			L.Push(lua.LNumber(c.Regs.GPR[reg(L)]))
			return 1
		},
		"setgpr": func(L *lua.LState) int {
			c.Regs.GPR[reg(L)] = word(L, 2)
			return 0
		},
		"pc": func(L *lua.LState) int {
			L.Push(lua.LNumber(c.Regs.PC))
			return 1
		},
		"setpc": func(L *lua.LState) int {
			c.Regs.PC = word(L, 1)
			return 0
		},
		"peek32": func(L *lua.LState) int {
			v, f := mem.Load32(word(L, 1))
			if f != nil {
				L.RaiseError("peek32: %v", f)
			}
			L.Push(lua.LNumber(v))

			return 1
		},
		"poke32": func(L *lua.LState) int {
			addr := word(L, 1)
			if !mem.IsMapped(addr, 4) {
				L.RaiseError("poke32: 0x%08x is not mapped", addr)
			}
			mem.Write32(addr, word(L, 2))

			return 0
		},
		"print": func(L *lua.LState) int {
			parts := make([]string, L.GetTop())
			for i := range parts {
				parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
			}
			fmt.Fprintln(m.w, strings.Join(parts, "\t"))

			return 0
		},
	}

	for name, fn := range fns {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	return L
}
