package scripting

import (
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/uogo/client/internal/net/packet"
	"github.com/uogo/client/internal/world"
)

// Input line prefixes.
const (
	CommandPrefix = '?'
	EmotePrefix   = ':'
	YellPrefix    = '!'
	WhisperPrefix = ';'
)

// macros may call run(), which may call macros again.
const maxCommandDepth = 8

// Host is what commands act on. The client implements it.
type Host interface {
	Speak(typ byte, text string) error
	Disconnect(reason string)
	SystemMessage(text string)
	Weather() world.Weather
}

type builtin struct {
	help string
	run  func(m *CommandManager, args string) error
}

func defaultBuiltins() map[string]builtin {
	return map[string]builtin{
		"say": {"say <text>: speak", func(m *CommandManager, args string) error {
			return m.speak(packet.SpeechRegular, args)
		}},
		"emote": {"emote <text>: emote", func(m *CommandManager, args string) error {
			return m.speak(packet.SpeechEmote, args)
		}},
		"yell": {"yell <text>: yell", func(m *CommandManager, args string) error {
			return m.speak(packet.SpeechYell, args)
		}},
		"whisper": {"whisper <text>: whisper", func(m *CommandManager, args string) error {
			return m.speak(packet.SpeechWhisper, args)
		}},
		"disconnect": {"disconnect: leave the server", func(m *CommandManager, args string) error {
			reason := args
			if reason == "" {
				reason = "user request"
			}
			m.host.Disconnect(reason)
			return nil
		}},
		"help": {"help [command]: list commands or show help for one", func(m *CommandManager, args string) error {
			m.help(args)
			return nil
		}},
		"weather": {"weather: show the current weather", func(m *CommandManager, args string) error {
			w := m.host.Weather()
			m.host.SystemMessage(fmt.Sprintf("Weather: type %d, %d particles, temperature %d", w.Type, w.Count, w.Temperature))
			return nil
		}},
	}
}

// CommandManager turns typed input lines into speech and client commands.
// Commands not built in are looked up as Lua macros.
type CommandManager struct {
	host     Host
	engine   *Engine
	builtins map[string]builtin
	log      *zap.Logger
	depth    int
}

// NewCommandManager wires the Lua API onto the engine. engine may be nil.
func NewCommandManager(host Host, engine *Engine, log *zap.Logger) *CommandManager {
	m := &CommandManager{host: host, engine: engine, builtins: defaultBuiltins(), log: log}
	if engine != nil {
		m.registerLuaAPI()
	}
	return m
}

// HandleInput processes one line: ?command, :emote, !yell, ;whisper, or
// plain speech.
func (m *CommandManager) HandleInput(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	rest := strings.TrimSpace(line[1:])
	switch line[0] {
	case CommandPrefix:
		name, args, _ := strings.Cut(rest, " ")
		return m.Execute(name, strings.TrimSpace(args))
	case EmotePrefix:
		return m.speak(packet.SpeechEmote, rest)
	case YellPrefix:
		return m.speak(packet.SpeechYell, rest)
	case WhisperPrefix:
		return m.speak(packet.SpeechWhisper, rest)
	default:
		return m.speak(packet.SpeechRegular, line)
	}
}

// Execute runs a named command. Unknown commands produce a system message.
func (m *CommandManager) Execute(name, args string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if m.depth >= maxCommandDepth {
		return fmt.Errorf("command %s: nested too deep", name)
	}
	m.depth++
	defer func() { m.depth-- }()

	if b, ok := m.builtins[name]; ok {
		return b.run(m, args)
	}
	if m.engine != nil && m.engine.HasMacro(name) {
		if err := m.engine.RunMacro(name, args); err != nil {
			m.log.Warn("macro failed", zap.String("macro", name), zap.Error(err))
			m.host.SystemMessage("Command failed: " + name)
			return err
		}
		return nil
	}
	m.log.Warn("unknown client command", zap.String("command", name))
	m.host.SystemMessage("Unknown client command: " + name)
	return nil
}

// Commands lists built-ins and macros, sorted.
func (m *CommandManager) Commands() []string {
	names := make([]string, 0, len(m.builtins))
	for name := range m.builtins {
		names = append(names, name)
	}
	if m.engine != nil {
		for _, name := range m.engine.Macros() {
			if _, shadowed := m.builtins[name]; !shadowed {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func (m *CommandManager) help(args string) {
	name := strings.ToLower(strings.TrimSpace(args))
	if name == "" {
		m.host.SystemMessage("Commands: " + strings.Join(m.Commands(), ", "))
		return
	}
	if b, ok := m.builtins[name]; ok {
		m.host.SystemMessage(b.help)
		return
	}
	if m.engine != nil && m.engine.HasMacro(name) {
		text := m.engine.MacroHelp(name)
		if text == "" {
			text = name + ": macro"
		}
		m.host.SystemMessage(text)
		return
	}
	m.host.SystemMessage("Unknown client command: " + name)
}

func (m *CommandManager) speak(typ byte, text string) error {
	if text == "" {
		return nil
	}
	if err := m.host.Speak(typ, text); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

func (m *CommandManager) registerLuaAPI() {
	speech := map[string]byte{
		"say":     packet.SpeechRegular,
		"emote":   packet.SpeechEmote,
		"yell":    packet.SpeechYell,
		"whisper": packet.SpeechWhisper,
	}
	for name, typ := range speech {
		typ := typ
		m.engine.Register(name, func(L *lua.LState) int {
			if err := m.speak(typ, L.CheckString(1)); err != nil {
				L.RaiseError("%s", err.Error())
			}
			return 0
		})
	}
	m.engine.Register("sysmsg", func(L *lua.LState) int {
		m.host.SystemMessage(L.CheckString(1))
		return 0
	})
	m.engine.Register("run", func(L *lua.LState) int {
		if err := m.HandleInput(L.CheckString(1)); err != nil {
			L.RaiseError("%s", err.Error())
		}
		return 0
	})
	m.engine.Register("disconnect", func(L *lua.LState) int {
		reason := L.OptString(1, "macro")
		m.host.Disconnect(reason)
		return 0
	})
	m.engine.Register("weather", func(L *lua.LState) int {
		w := m.host.Weather()
		L.Push(lua.LNumber(w.Type))
		L.Push(lua.LNumber(w.Count))
		L.Push(lua.LNumber(w.Temperature))
		return 3
	})
}
