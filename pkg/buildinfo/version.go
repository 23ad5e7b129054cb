// Package buildinfo holds the version stamped into the jarmill binary.
//
// Release builds set the values with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/jarmill/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/jarmill/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/jarmill/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/jarmill
package buildinfo

import "fmt"

// Unstamped builds report dev.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Template is the `jarmill --version` output.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, built %s)\n", Version, Commit, Date)
}

// UserAgent is sent with manifest and jar downloads.
func UserAgent() string {
	return "jarmill/" + Version
}
