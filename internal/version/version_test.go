package version

import (
	"strings"
	"testing"
)

func TestDefaultVersionShape(t *testing.T) {
	if Version == "" {
		t.Fatal("Version must carry a default")
	}
	// Color codes may wrap the components, so check shape, not content.
	if strings.Count(Version, ".") < 2 {
		t.Fatalf("Version %q does not look like major.minor.patch", Version)
	}
	if !strings.HasSuffix(Version, "-dev") {
		t.Fatalf("a development build must carry the -dev suffix, got %q", Version)
	}
}

func TestBuildTimeOverride(t *testing.T) {
	origVersion, origCommit, origMessage, origDate := Version, GitCommit, GitMessage, BuildDate
	defer func() {
		Version, GitCommit, GitMessage, BuildDate = origVersion, origCommit, origMessage, origDate
	}()

	// Simulates what -ldflags does at link time.
	Version = "1.2.3"
	GitCommit = "abc123def456"
	GitMessage = "cut the 1.2.3 release"
	BuildDate = "2026-08-30T10:30:00Z"

	if Version != "1.2.3" || GitCommit != "abc123def456" {
		t.Fatalf("override failed: Version=%q GitCommit=%q", Version, GitCommit)
	}
	if GitMessage == "" || BuildDate == "" {
		t.Fatalf("optional fields must keep their overridden values: %q %q", GitMessage, BuildDate)
	}
}
