package broker

import (
	"testing"

	"go.uber.org/zap"

	"github.com/embervale/worldserver/internal/resultcode"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(zap.NewNop())
}

func TestDispatchIgnoresNonCommandLines(t *testing.T) {
	d := newTestDispatcher()
	consumed, _ := d.Dispatch(&CommandContext{}, "hello there")
	if consumed {
		t.Fatalf("expected a line without the command prefix to be ignored")
	}
}

func TestDispatchRejectsUnknownCommandSilently(t *testing.T) {
	d := newTestDispatcher()
	consumed, code := d.Dispatch(&CommandContext{}, ".nosuchcommand")
	if !consumed {
		t.Fatalf("expected a prefixed line to be consumed even if unknown")
	}
	if code != resultcode.InvalidArgument {
		t.Fatalf("expected InvalidArgument for an unknown command, got %v", code)
	}
}

func TestDispatchEnforcesMinRights(t *testing.T) {
	d := newTestDispatcher()
	var ran bool
	d.Register(CommandSpec{
		Name:      "restricted",
		MinRights: 5,
		Run: func(c *CommandContext, args []string) resultcode.Code {
			ran = true
			return resultcode.OK
		},
	})

	_, code := d.Dispatch(&CommandContext{CallerRights: 1}, ".restricted")
	if code != resultcode.InsufficientRights {
		t.Fatalf("expected InsufficientRights, got %v", code)
	}
	if ran {
		t.Fatalf("command must not run when rights are insufficient")
	}

	_, code = d.Dispatch(&CommandContext{CallerRights: 5}, ".restricted")
	if code != resultcode.OK || !ran {
		t.Fatalf("expected the command to run once rights are sufficient")
	}
}

func TestDispatchValidatesArgCount(t *testing.T) {
	d := newTestDispatcher()
	d.Register(CommandSpec{
		Name: "needsone",
		Args: []ArgKind{ArgInt},
		Run: func(c *CommandContext, args []string) resultcode.Code {
			return resultcode.OK
		},
	})

	if _, code := d.Dispatch(&CommandContext{}, ".needsone"); code != resultcode.InvalidArgument {
		t.Fatalf("expected InvalidArgument for a missing argument, got %v", code)
	}
	if _, code := d.Dispatch(&CommandContext{}, ".needsone 1 2"); code != resultcode.InvalidArgument {
		t.Fatalf("expected InvalidArgument for too many arguments, got %v", code)
	}
	if _, code := d.Dispatch(&CommandContext{}, ".needsone 1"); code != resultcode.OK {
		t.Fatalf("expected OK with exactly the right argument count, got %v", code)
	}
}

func TestDispatchResolvesSelfTokenByArgKind(t *testing.T) {
	d := newTestDispatcher()
	var gotArg string
	d.Register(CommandSpec{
		Name: "whoami",
		Args: []ArgKind{ArgCharRef},
		Run: func(c *CommandContext, args []string) resultcode.Code {
			gotArg = args[0]
			return resultcode.OK
		},
	})

	d.Dispatch(&CommandContext{SelfCharID: 77}, ".whoami #")
	if gotArg != "77" {
		t.Fatalf("expected '#' to resolve to the caller's own char id, got %q", gotArg)
	}
}

func TestDispatchCommandNamesAreCaseInsensitive(t *testing.T) {
	d := newTestDispatcher()
	var ran bool
	d.Register(CommandSpec{
		Name: "Kick",
		Run: func(c *CommandContext, args []string) resultcode.Code {
			ran = true
			return resultcode.OK
		},
	})

	if _, code := d.Dispatch(&CommandContext{}, ".KICK"); code != resultcode.OK || !ran {
		t.Fatalf("expected case-insensitive command matching to succeed")
	}
}
