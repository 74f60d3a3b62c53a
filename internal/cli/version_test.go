package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetBuildInfo(t *testing.T) {
	SetBuildInfo("1.2.3", "abc1234", "2026-08-29")

	version, commit, date := BuildInfo()
	if version != "1.2.3" || commit != "abc1234" || date != "2026-08-29" {
		t.Fatalf("BuildInfo = %q %q %q", version, commit, date)
	}
	if rootCmd.Version != "1.2.3 (abc1234) 2026-08-29" {
		t.Fatalf("root version = %q", rootCmd.Version)
	}
}

func TestSetBuildInfoKeepsDefaultsForEmptyValues(t *testing.T) {
	SetBuildInfo("2.0.0", "def5678", "2026-08-29")
	SetBuildInfo("", "", "")

	version, commit, date := BuildInfo()
	if version != "2.0.0" || commit != "def5678" || date != "2026-08-29" {
		t.Fatalf("empty values must not reset build info, got %q %q %q", version, commit, date)
	}
}

func TestVersionCommandOutput(t *testing.T) {
	SetBuildInfo("3.1.0", "fffeee1", "2026-08-29")

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	got := out.String()
	for _, want := range []string{"ghaudit 3.1.0", "commit: fffeee1", "built:  2026-08-29"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
