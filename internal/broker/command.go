package broker

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/embervale/worldserver/internal/resultcode"
)

// CommandPrefix marks a line as an administrative command (spec §6
// "Command syntax").
const CommandPrefix = '.'

// ArgKind tags a command argument's typed placeholder (spec §6:
// "character reference, item class id, map id, integer").
type ArgKind int

const (
	ArgCharRef ArgKind = iota
	ArgItemClassID
	ArgMapID
	ArgInt
)

// CommandSpec is one administrative command's fixed small argument
// grammar.
type CommandSpec struct {
	Name        string
	MinRights   int32
	Args        []ArgKind
	Run         func(caller *CommandContext, args []string) resultcode.Code
}

// CommandContext is what a command's Run function receives: the caller's
// identity and rights, and "#" resolution for self/current-map.
type CommandContext struct {
	CallerCharID   int32
	CallerRights   int32
	SelfCharID     int32
	CurrentMapID   int32
}

// ResolveSelf expands the "#" token to self or current-map depending on
// the argument kind (spec §6: "A `#` stands for 'self' or 'current
// map'").
func (c *CommandContext) ResolveSelf(kind ArgKind, token string) string {
	if token != "#" {
		return token
	}
	switch kind {
	case ArgCharRef:
		return strconv.FormatInt(int64(c.SelfCharID), 10)
	case ArgMapID:
		return strconv.FormatInt(int64(c.CurrentMapID), 10)
	default:
		return token
	}
}

// Dispatcher parses and runs administrative commands. Unknown commands
// and insufficient rights are silent-rejected with an error reply — no
// log noise, no distinguishing response a prober could use to enumerate
// valid command names (spec §6).
type Dispatcher struct {
	commands map[string]CommandSpec
	log      *zap.Logger
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{commands: make(map[string]CommandSpec), log: log}
}

func (d *Dispatcher) Register(spec CommandSpec) {
	d.commands[strings.ToLower(spec.Name)] = spec
}

// Dispatch parses a "."-prefixed line and runs the matching command.
// Returns (consumed, code): consumed is false if the line wasn't a
// command at all.
func (d *Dispatcher) Dispatch(ctx *CommandContext, line string) (consumed bool, code resultcode.Code) {
	if len(line) == 0 || line[0] != CommandPrefix {
		return false, resultcode.OK
	}
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return true, resultcode.InvalidArgument
	}

	spec, ok := d.commands[strings.ToLower(fields[0])]
	if !ok {
		return true, resultcode.InvalidArgument
	}
	if ctx.CallerRights < spec.MinRights {
		return true, resultcode.InsufficientRights
	}

	args := fields[1:]
	if len(args) != len(spec.Args) {
		return true, resultcode.InvalidArgument
	}
	for i, kind := range spec.Args {
		args[i] = ctx.ResolveSelf(kind, args[i])
	}

	return true, spec.Run(ctx, args)
}
