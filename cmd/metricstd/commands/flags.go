package commands

import (
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"
)

// StripUnknownFlags drops flags that no command defines, logging a warning
// for each, so scripts written for other versions keep working. Values of
// unknown flags are only removed in the --flag=value form.
func StripUnknownFlags(parser *kong.Kong, args []string) []string {
	return stripUnknownFlags(args, KnownFlags(parser.Model.Node))
}

// KnownFlags collects the long names, aliases and short names of every flag
// in the command tree. Long names map to "--name", short ones to "-x".
func KnownFlags(node *kong.Node) map[string]bool {
	known := map[string]bool{"--help": true, "-h": true}
	var walk func(n *kong.Node)
	walk = func(n *kong.Node) {
		for _, f := range n.Flags {
			known["--"+f.Name] = true
			for _, alias := range f.Aliases {
				known["--"+alias] = true
			}
			if f.Short != 0 {
				known["-"+string(f.Short)] = true
			}
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(node)
	return known
}

func stripUnknownFlags(args []string, known map[string]bool) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" || isNumber(arg) {
			out = append(out, arg)
			continue
		}

		var name string
		if strings.HasPrefix(arg, "--") {
			name, _, _ = strings.Cut(arg, "=")
		} else {
			// Short flags may be clustered (-vy) or carry a value (-oreport.md);
			// the first letter decides.
			name = arg[:2]
		}
		if known[name] {
			out = append(out, arg)
			continue
		}
		slog.Warn("Ignoring unknown flag", slog.String("flag", arg))
	}
	return out
}

func isNumber(arg string) bool {
	rest := strings.TrimPrefix(arg, "-")
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
