package commands

import (
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli, kong.Name("metricstd"), kong.Vars{"version": "test"})
	require.NoError(t, err)
	return parser
}

func TestKnownFlags(t *testing.T) {
	known := KnownFlags(newParser(t, &CLI{}).Model.Node)

	for _, flag := range []string{
		"--config", "-c", "--verbose", "-v", "--version",
		"--check", "--fix", "--report", "--output", "-o", "--format", "-f",
		"--yes", "-y", "--dry-run", "--force", "--registry", "--no-seed",
		"--limit", "-n", "--category", "--tag", "--debounce", "--interval",
		"--help", "-h",
	} {
		assert.True(t, known[flag], flag)
	}
	assert.False(t, known["--colour"])
}

func TestStripUnknownFlags(t *testing.T) {
	known := map[string]bool{"--fix": true, "--output": true, "-o": true, "-v": true, "--help": true}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"nothing unknown", []string{"--fix", "-o", "r.md", "src"}, []string{"--fix", "-o", "r.md", "src"}},
		{"unknown long", []string{"--colour", "--fix"}, []string{"--fix"}},
		{"unknown with value", []string{"--theme=dark", "--output=r.md"}, []string{"--output=r.md"}},
		{"unknown short", []string{"-x", "-v"}, []string{"-v"}},
		{"short cluster", []string{"-vx"}, []string{"-vx"}},
		{"attached short value", []string{"-oreport.md"}, []string{"-oreport.md"}},
		{"negative number", []string{"-5"}, []string{"-5"}},
		{"stdin", []string{"-"}, []string{"-"}},
		{"after terminator", []string{"--", "--colour", "-x"}, []string{"--", "--colour", "-x"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripUnknownFlags(tt.args, known))
		})
	}
}

func TestParse_DefaultsToRun(t *testing.T) {
	tests := []struct {
		args    []string
		command string
		path    string
	}{
		{nil, "run", ""},
		{[]string{"--fix", "--yes", "services"}, "run <path>", "services"},
		{[]string{"--colour", "--report", "-f", "md", "."}, "run <path>", "."},
	}
	for _, tt := range tests {
		cli := &CLI{}
		parser := newParser(t, cli)
		ctx, err := parser.Parse(StripUnknownFlags(parser, tt.args))
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.command, ctx.Command())
		assert.Equal(t, tt.path, cli.Run.Path)
	}
}

func TestParse_Subcommands(t *testing.T) {
	cli := &CLI{}
	parser := newParser(t, cli)

	ctx, err := parser.Parse([]string{"registry", "search", "rate", "--category", "quality", "--tag", "sla", "--tag", "api"})
	require.NoError(t, err)
	assert.Equal(t, "registry search <text>", ctx.Command())
	assert.Equal(t, "rate", cli.Registry.Search.Text)
	assert.Equal(t, []string{"sla", "api"}, cli.Registry.Search.Tag)

	cli = &CLI{}
	parser = newParser(t, cli)
	ctx, err = parser.Parse([]string{"history", "-n", "5"})
	require.NoError(t, err)
	assert.Equal(t, "history", ctx.Command())
	assert.Equal(t, 5, cli.History.Limit)
}
