package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Targets", KeyTargets, "js,css", Targets([]string{"js", "css"})},
		{"Task", KeyTask, "css:compile", Task("css:compile")},
		{"State", KeyState, "done", State("done")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Command", KeyCommand, "sass", Command("sass")},
		{"URL", KeyURL, "http://example", URL("http://example")},
		{"Branch", KeyBranch, "gh-pages", Branch("gh-pages")},
		{"Name", KeyName, "n", Name("n")},
		{"Rule", KeyRule, "src/**/*.js", Rule("src/**/*.js")},
		{"Error", KeyError, "boom", Error(errors.New("boom"))},
		{"NilError", KeyError, "", Error(nil)},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestDurationMS(t *testing.T) {
	a := DurationMS(12.5)
	if a.Key != KeyDurationMS || a.Value.Float64() != 12.5 {
		t.Fatalf("unexpected attr %v", a)
	}
}
