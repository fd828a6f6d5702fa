// Package command is the administrative command boundary: it parses
// prefix commands from chat messages, gates them on the invoking
// member's role, and dispatches validated (actor, target, reason) tuples
// to the moderation pipeline. Rejections are turned into specific
// operator-visible text here; the pipeline below trusts that the gate
// has already passed.
package command

import (
	"errors"
	"regexp"
	"strings"
)

// Prefix starts every administrative command.
const Prefix = "!"

// Name identifies a parsed command.
type Name string

const (
	CmdKick   Name = "kick"
	CmdBan    Name = "ban"
	CmdMute   Name = "mute"
	CmdUnmute Name = "unmute"
	CmdReport Name = "report"
	CmdWhois  Name = "whois"
)

var (
	// ErrNotCommand marks ordinary chat that does not carry the prefix.
	ErrNotCommand = errors.New("command: not a command")
	// ErrUnknownCommand marks a prefixed word with no handler.
	ErrUnknownCommand = errors.New("command: unknown command")
	// ErrMissingTarget marks a command invoked without a target member.
	ErrMissingTarget = errors.New("command: missing target")
)

// Command is one parsed invocation. Target is the bare external
// identifier with any platform mention decoration stripped.
type Command struct {
	Name   Name
	Target string
	Reason string
}

// needsTarget lists which commands require a target argument. All of
// them do today; the table keeps parsing uniform if that changes.
var needsTarget = map[Name]bool{
	CmdKick:   true,
	CmdBan:    true,
	CmdMute:   true,
	CmdUnmute: true,
	CmdReport: true,
	CmdWhois:  true,
}

// mentionRe matches platform mention syntax: <@123>, <@!123>.
var mentionRe = regexp.MustCompile(`^<@!?(\d+)>$`)

// Parse splits a raw chat message into a Command. The expected shape is
// "!name @target optional reason text". Everything after the target is
// the free-text reason, whitespace-normalized.
func Parse(content string) (*Command, error) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, Prefix) {
		return nil, ErrNotCommand
	}

	fields := strings.Fields(strings.TrimPrefix(content, Prefix))
	if len(fields) == 0 {
		return nil, ErrNotCommand
	}

	name := Name(strings.ToLower(fields[0]))
	if _, ok := needsTarget[name]; !ok {
		return nil, ErrUnknownCommand
	}

	cmd := &Command{Name: name}
	if len(fields) > 1 {
		cmd.Target = stripMention(fields[1])
	}
	if cmd.Target == "" && needsTarget[name] {
		return nil, ErrMissingTarget
	}
	if len(fields) > 2 {
		cmd.Reason = strings.Join(fields[2:], " ")
	}

	return cmd, nil
}

func stripMention(s string) string {
	if m := mentionRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
