// Package buildinfo holds version information injected at build time:
//
//	go build -ldflags "-X github.com/matzehuels/crateview/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/crateview/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/crateview/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the commit and build date, one per line.
func String() string {
	return fmt.Sprintf("commit: %s\nbuilt:  %s", Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt:  %s\n", Version, Commit, Date)
}
