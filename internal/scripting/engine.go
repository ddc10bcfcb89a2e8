// Package scripting embeds a Lua host satisfying the design note's
// script-host contract: prepare(function-name), push typed arg,
// execute -> int, an update-tick hook, and death/removal hooks. NPC
// script bodies, free script attachments, and Item-Class script
// handles (spec §6 "Map format", §3 Item-Class) are all ordinary Lua
// globals loaded at startup and invoked through this contract.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Single-goroutine access only (the
// game loop's tick is the only caller) — a script runs to completion
// before the tick resumes (spec §5 "Suspension points").
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// scriptDirs are searched, in order, under the configured scripts root.
// core holds shared helpers (exp tables, constants); npc holds NPC
// script bodies and free map attachments; item holds Item-Class script
// handles.
var scriptDirs = []string{"core", "npc", "item"}

// NewEngine creates a Lua engine and loads every .lua file under the
// configured script directories.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, sub := range scriptDirs {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Call is a prepared invocation of a named Lua global function: step (a)
// of the script-host contract. Args are pushed with the PushX methods
// (step b), then Execute runs it (step c).
type Call struct {
	engine *Engine
	fn     lua.LValue
	name   string
	args   []lua.LValue
}

// Prepare resolves a global Lua function by name. It is not an error for
// the function to be missing — Prepare then returns a Call with no
// function, and Execute on it returns (0, ErrNotDefined) so callers can
// fall back to a default.
func (e *Engine) Prepare(fnName string) *Call {
	fn := e.vm.GetGlobal(fnName)
	if fn == lua.LNil {
		return &Call{engine: e, name: fnName}
	}
	return &Call{engine: e, fn: fn, name: fnName}
}

func (c *Call) PushInt(v int)       { c.args = append(c.args, lua.LNumber(v)) }
func (c *Call) PushFloat(v float64) { c.args = append(c.args, lua.LNumber(v)) }
func (c *Call) PushString(v string) { c.args = append(c.args, lua.LString(v)) }
func (c *Call) PushBool(v bool) {
	if v {
		c.args = append(c.args, lua.LTrue)
	} else {
		c.args = append(c.args, lua.LFalse)
	}
}

// ErrNotDefined is returned by Execute when Prepare's function name had
// no matching Lua global — e.g. an NPC with no script body, or an
// Item-Class with no script handle.
var ErrNotDefined = fmt.Errorf("scripting: function not defined")

// Execute runs the prepared call to completion and returns its first
// return value coerced to int (step d of the contract covers the
// subsequent per-tick re-invocation; Execute itself is the one-shot
// call a caller makes from within a tick).
func (c *Call) Execute() (int, error) {
	if c.fn == nil {
		return 0, ErrNotDefined
	}
	if err := c.engine.vm.CallByParam(lua.P{
		Fn:      c.fn,
		NRet:    1,
		Protect: true,
	}, c.args...); err != nil {
		return 0, fmt.Errorf("call %s: %w", c.name, err)
	}
	result := c.engine.vm.Get(-1)
	c.engine.vm.Pop(1)
	return int(lua.LVAsNumber(result)), nil
}

// UpdateTick invokes a script's per-tick hook, named "<scriptRef>_update",
// if defined. entityID and dtMillis are passed through so the script can
// run its own timers (spec §5 "Suspension points": a script callback
// runs to completion before the tick resumes).
func (e *Engine) UpdateTick(scriptRef string, entityID uint64, dtMillis int) {
	call := e.Prepare(scriptRef + "_update")
	if call.fn == nil {
		return
	}
	call.PushInt(int(entityID))
	call.PushInt(dtMillis)
	if _, err := call.Execute(); err != nil {
		e.log.Error("script update hook error", zap.String("script", scriptRef), zap.Error(err))
	}
}

// OnDeath invokes a script's death/removal hook, named
// "<scriptRef>_on_death", if defined.
func (e *Engine) OnDeath(scriptRef string, entityID uint64) {
	call := e.Prepare(scriptRef + "_on_death")
	if call.fn == nil {
		return
	}
	call.PushInt(int(entityID))
	if _, err := call.Execute(); err != nil {
		e.log.Error("script death hook error", zap.String("script", scriptRef), zap.Error(err))
	}
}

// OnUse invokes an Item-Class's use hook, named "<scriptRef>_on_use", if
// defined, passing the consuming entity's id. The return value is an
// application-defined result code the caller may ignore.
func (e *Engine) OnUse(scriptRef string, entityID uint64) (int, error) {
	call := e.Prepare(scriptRef + "_on_use")
	if call.fn == nil {
		return 0, ErrNotDefined
	}
	call.PushInt(int(entityID))
	return call.Execute()
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
