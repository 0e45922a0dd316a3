package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

const testRootCrate = `{
	"@context": {"@vocab": "http://schema.org/"},
	"@graph": [
		{"@id": "ro-crate-metadata.json", "@type": "CreativeWork", "about": {"@id": "./"}},
		{"@id": "./", "@type": "Dataset", "name": "Field Survey",
		 "hasPart": [{"@id": "data/"}, {"@id": "sub/ro-crate-metadata.json"}]},
		{"@id": "data/", "@type": "Dataset", "name": "data",
		 "hasPart": [{"@id": "data/temperature.csv"}, {"@id": "data/notes.txt"}]},
		{"@id": "data/temperature.csv", "@type": "File", "name": "Temperature readings",
		 "author": {"@id": "#alice"}},
		{"@id": "data/notes.txt", "@type": "File"},
		{"@id": "sub/ro-crate-metadata.json", "@type": "CreativeWork", "name": "Sub survey"},
		{"@id": "#alice", "@type": "Person", "name": "Alice"}
	]
}`

const testSubCrate = `{
	"@context": {"@vocab": "http://schema.org/"},
	"@graph": [
		{"@id": "./", "@type": "Dataset", "name": "Sub survey", "hasPart": [{"@id": "wind.csv"}]},
		{"@id": "wind.csv", "@type": "File", "name": "Wind speed"}
	]
}`

// writeTestPackage creates a package with one nested package and returns
// its directory.
func writeTestPackage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "ro-crate-metadata.json"), testRootCrate)
	writeFile(t, filepath.Join(dir, "sub", "ro-crate-metadata.json"), testSubCrate)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newTestCLI returns a CLI with a quiet logger and isolated config home.
func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return &CLI{Logger: log.New(io.Discard)}
}

// execute runs the root command with args and returns the command's own
// output stream.
func execute(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}
