package version

import (
	"strings"
	"testing"
)

func TestIsVersionGreaterOrEqualThan(t *testing.T) {
	testCases := []struct {
		version  string
		target   string
		expected bool
	}{
		{"0.2.0", "0.1.0", true},
		{"0.1.0", "0.1.0", true},
		{"0.1.0", "0.2.0", false},
		{"1.0.0", "0.9.9", true},
		{"0.1.0", "0.1.0-dev", true},
		{"0.1.0-dev", "0.1.0", false},
	}
	for _, tc := range testCases {
		if got := IsVersionGreaterOrEqualThan(tc.version, tc.target); got != tc.expected {
			t.Errorf("IsVersionGreaterOrEqualThan(%q, %q) = %v, want %v", tc.version, tc.target, got, tc.expected)
		}
	}
}

func TestGetCurrentVersion(t *testing.T) {
	if got := GetCurrentVersion("dev"); got != DevVersion {
		t.Errorf("GetCurrentVersion(dev) = %q, want %q", got, DevVersion)
	}
	if got := GetCurrentVersion("prod"); got != Version {
		t.Errorf("GetCurrentVersion(prod) = %q, want %q", got, Version)
	}
}

func TestStringFull(t *testing.T) {
	if !strings.Contains(StringFull(), "Version="+Version) {
		t.Errorf("StringFull() = %q, expected to contain the version", StringFull())
	}
}
