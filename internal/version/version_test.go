package version

import "testing"

func TestStringStripsPrefix(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "v1.4.2"
	if got := String(); got != "1.4.2" {
		t.Errorf("String() = %q, want %q", got, "1.4.2")
	}
}

func TestStringFallback(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = ""
	if got := String(); got == "" {
		t.Error("String() returned empty version")
	}
}

func TestFullIncludesCommit(t *testing.T) {
	origV, origC := Version, Commit
	defer func() { Version, Commit = origV, origC }()

	Version = "1.0.0"
	Commit = "0123456789abcdef"
	if got := Full(); got != "1.0.0 (0123456789ab)" {
		t.Errorf("Full() = %q", got)
	}

	Commit = ""
	if got := Full(); got != "1.0.0" {
		t.Errorf("Full() = %q", got)
	}
}
