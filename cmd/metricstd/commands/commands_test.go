package commands

import (
	"bytes"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const cleanSource = "export const defaults = {\n  responseTime: 250,\n  successRate: 97.5,\n};\n"

// testEnv isolates one command invocation: a temp source tree, a config
// file and captured stdout.
type testEnv struct {
	dir    string
	src    string
	out    *bytes.Buffer
	global *Global
}

func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	for name, content := range files {
		writeFile(t, filepath.Join(src, filepath.FromSlash(name)), content)
	}

	out := &bytes.Buffer{}
	return &testEnv{
		dir: dir,
		src: src,
		out: out,
		global: &Global{
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			Out:    out,
			Err:    io.Discard,
		},
	}
}

// cli writes yaml as the configuration file and returns a CLI using it.
func (e *testEnv) cli(t *testing.T, yaml string) *CLI {
	t.Helper()
	path := filepath.Join(e.dir, "metricstd.yaml")
	writeFile(t, path, yaml)
	return &CLI{Config: path}
}

func (e *testEnv) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.src, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// exitCode mirrors main: nil is 0, ExitCodeError carries its code and any
// other error is -1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec *ExitCodeError
	if stderrors.As(err, &ec) {
		return ec.Code
	}
	return -1
}

func stubConfirm(t *testing.T, answer bool) *int {
	t.Helper()
	calls := 0
	orig := confirm
	confirm = func(string) (bool, error) {
		calls++
		return answer, nil
	}
	t.Cleanup(func() { confirm = orig })
	return &calls
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a polling
// reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
