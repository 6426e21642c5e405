package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// macroPrefix names Lua functions that become client commands:
// cmd_greet(args) is run by "?greet args".
const macroPrefix = "cmd_"

// Engine wraps a single gopher-lua VM holding the user's command macros.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. A missing directory yields an engine without macros.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if scriptsDir == "" {
		return e, nil
	}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
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

// DoString runs a chunk of Lua source, for tests and the reload command.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Register exposes a Go function to Lua as a global.
func (e *Engine) Register(name string, fn lua.LGFunction) {
	e.vm.SetGlobal(name, e.vm.NewFunction(fn))
}

// HasMacro reports whether cmd_<name> is defined.
func (e *Engine) HasMacro(name string) bool {
	_, ok := e.vm.GetGlobal(macroPrefix + name).(*lua.LFunction)
	return ok
}

// Macros returns the names of all defined macros, sorted.
func (e *Engine) Macros() []string {
	var names []string
	e.vm.G.Global.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok || v.Type() != lua.LTFunction {
			return
		}
		if name, found := strings.CutPrefix(string(key), macroPrefix); found && name != "" {
			names = append(names, name)
		}
	})
	sort.Strings(names)
	return names
}

// MacroHelp returns the cmd_<name>_help string global, if set.
func (e *Engine) MacroHelp(name string) string {
	if s, ok := e.vm.GetGlobal(macroPrefix + name + "_help").(lua.LString); ok {
		return string(s)
	}
	return ""
}

// RunMacro calls cmd_<name>(args).
func (e *Engine) RunMacro(name, args string) error {
	fn, ok := e.vm.GetGlobal(macroPrefix + name).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("macro %q not defined", name)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LString(args)); err != nil {
		return fmt.Errorf("macro %s: %w", name, err)
	}
	return nil
}

func (e *Engine) Close() {
	e.vm.Close()
}
