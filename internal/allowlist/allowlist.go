// Package allowlist implements the project + user command allowlist
// (spec.md §4.5): exact, prefix+context, and risk-acknowledged regex
// entries that suppress a single destructive rule without short-circuiting
// the rest of the evaluation.
package allowlist

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ContextTag narrows a Prefix entry to the specific textual context the
// authoritative destructive match must also carry (spec.md §3).
type ContextTag string

const (
	ContextStringArgument ContextTag = "string-argument"
	ContextSearchPattern  ContextTag = "search-pattern"
	ContextHeredocExample ContextTag = "heredoc-example"
	ContextComment        ContextTag = "comment"
	ContextDisabledCode   ContextTag = "disabled-code"
)

// ErrUnacknowledgedRegex is returned (as a load warning, not a fatal
// error) when a Regex entry omits risk_acknowledged = true.
var ErrUnacknowledgedRegex = errors.New("allowlist: regex entry without risk_acknowledged is rejected")

// Kind discriminates the AllowlistEntry tagged variant (spec.md §3).
type Kind string

const (
	KindExact  Kind = "exact"
	KindPrefix Kind = "prefix"
	KindRegex  Kind = "regex"
)

// Entry is one allowlist rule, already validated and (for Regex) compiled.
type Entry struct {
	Kind    Kind
	Exact   string
	Prefix  string
	Context ContextTag
	Pattern string
	Regex   *regexp.Regexp

	RiskAcknowledged bool
	Reason           string
	AddedBy          string
	AddedAt          *time.Time
	ExpiresAt        *time.Time

	Source string // file path this entry was loaded from, for diagnostics
}

func (e Entry) expired(now time.Time) bool {
	return e.ExpiresAt != nil && !e.ExpiresAt.After(now)
}

// List is the merged, loaded allowlist, entries in file order with
// project entries preceding user entries (spec.md §4.5: "Merge project
// .dcg/allowlist.toml over user allowlist").
type List struct {
	Entries  []Entry
	Warnings []string
}

// rawFile mirrors the on-disk TOML shape of an allowlist file.
type rawFile struct {
	Allow []rawEntry `toml:"allow"`
}

type rawEntry struct {
	Command          string `toml:"command"`
	CommandPrefix    string `toml:"command_prefix"`
	Context          string `toml:"context"`
	Pattern          string `toml:"pattern"`
	RiskAcknowledged bool   `toml:"risk_acknowledged"`
	Reason           string `toml:"reason"`
	AddedBy          string `toml:"added_by"`
	AddedAt          string `toml:"added_at"`
	ExpiresAt        string `toml:"expires_at"`
}

// Load reads and merges allowlist files in the given order (typically
// project path first, then user path), dropping expired entries,
// compiling Regex entries, and rejecting any Regex entry without
// risk_acknowledged (spec.md §4.5 "Load"). A missing file is treated as
// empty, not an error (fail-open, consistent with §4.8.2 IoError policy).
func Load(paths []string, now time.Time) (*List, error) {
	list := &List{}
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			list.Warnings = append(list.Warnings, fmt.Sprintf("allowlist: read %s: %v", path, err))
			continue
		}
		var raw rawFile
		if _, err := toml.Decode(string(data), &raw); err != nil {
			list.Warnings = append(list.Warnings, fmt.Sprintf("allowlist: parse %s: %v", path, err))
			continue
		}
		for _, re := range raw.Allow {
			entry, warn, ok := compileEntry(re, path)
			if warn != "" {
				list.Warnings = append(list.Warnings, warn)
			}
			if !ok {
				continue
			}
			if entry.expired(now) {
				continue
			}
			list.Entries = append(list.Entries, entry)
		}
	}
	return list, nil
}

func compileEntry(re rawEntry, source string) (Entry, string, bool) {
	entry := Entry{
		Reason:           re.Reason,
		AddedBy:          re.AddedBy,
		RiskAcknowledged: re.RiskAcknowledged,
		Source:           source,
	}
	if re.AddedAt != "" {
		if t, err := time.Parse(time.RFC3339, re.AddedAt); err == nil {
			entry.AddedAt = &t
		}
	}
	if re.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, re.ExpiresAt); err == nil {
			entry.ExpiresAt = &t
		}
	}

	switch {
	case re.Pattern != "":
		if !re.RiskAcknowledged {
			return Entry{}, fmt.Sprintf("allowlist: %s: %v: pattern %q", source, ErrUnacknowledgedRegex, re.Pattern), false
		}
		compiled, err := regexp.Compile(re.Pattern)
		if err != nil {
			return Entry{}, fmt.Sprintf("allowlist: %s: invalid regex %q: %v", source, re.Pattern, err), false
		}
		if compiled.MatchString("") {
			return Entry{}, fmt.Sprintf("allowlist: %s: regex %q matches the empty string, dangerously broad", source, re.Pattern), false
		}
		entry.Kind = KindRegex
		entry.Pattern = re.Pattern
		entry.Regex = compiled
		return entry, "", true

	case re.CommandPrefix != "":
		entry.Kind = KindPrefix
		entry.Prefix = re.CommandPrefix
		if re.Context != "" {
			entry.Context = ContextTag(re.Context)
		}
		return entry, "", true

	case re.Command != "":
		entry.Kind = KindExact
		entry.Exact = re.Command
		return entry, "", true

	default:
		return Entry{}, fmt.Sprintf("allowlist: %s: entry with no command/command_prefix/pattern, skipped", source), false
	}
}

// Suppresses reports whether the list contains an entry that suppresses
// the given raw command under the given context tag (the tag carried by
// the authoritative destructive match, spec.md §4.5 "Match").
func (l *List) Suppresses(rawCommand string, matchContext ContextTag) bool {
	if l == nil {
		return false
	}
	for _, e := range l.Entries {
		switch e.Kind {
		case KindExact:
			if e.Exact == rawCommand {
				return true
			}
		case KindPrefix:
			if !strings.HasPrefix(rawCommand, e.Prefix) {
				continue
			}
			rest := rawCommand[len(e.Prefix):]
			if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
				continue
			}
			if e.Context != "" && e.Context != matchContext {
				continue
			}
			return true
		case KindRegex:
			if e.Regex != nil && e.Regex.MatchString(rawCommand) {
				return true
			}
		}
	}
	return false
}
