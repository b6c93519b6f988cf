package utils

import (
	"testing"
	"time"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"enabled", true},
		{"  true  ", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		if got := ParseBool(tt.input); got != tt.expected {
			t.Errorf("ParseBool(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestTrimQuotes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"hello"`, "hello"},
		{`'hello'`, "hello"},
		{`hello`, "hello"},
		{`"hello'`, `"hello'`},
		{`""`, ""},
		{`"`, `"`},
	}

	for _, tt := range tests {
		if got := TrimQuotes(tt.input); got != tt.expected {
			t.Errorf("TrimQuotes(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSplitKeyValue(t *testing.T) {
	tests := []struct {
		line      string
		wantKey   string
		wantValue string
		wantOK    bool
	}{
		{"KEY=value", "KEY", "value", true},
		{"KEY = value ", "KEY", "value", true},
		{`KEY="quoted value"`, "KEY", "quoted value", true},
		{`KEY="value" # comment`, "KEY", "value", true},
		{"KEY=value # comment", "KEY", "value", true},
		{`KEY="value # not a comment"`, "KEY", "value # not a comment", true},
		{"KEY=", "KEY", "", true},
		{"no equals sign", "", "", false},
	}

	for _, tt := range tests {
		key, value, ok := SplitKeyValue(tt.line)
		if ok != tt.wantOK || key != tt.wantKey || value != tt.wantValue {
			t.Errorf("SplitKeyValue(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.line, key, value, ok, tt.wantKey, tt.wantValue, tt.wantOK)
		}
	}
}

func TestIsComment(t *testing.T) {
	tests := []struct {
		line     string
		expected bool
	}{
		{"# comment", true},
		{"   # indented", true},
		{"", true},
		{"   ", true},
		{"KEY=value", false},
		{"KEY=value # trailing", false},
	}

	for _, tt := range tests {
		if got := IsComment(tt.line); got != tt.expected {
			t.Errorf("IsComment(%q) = %v, want %v", tt.line, got, tt.expected)
		}
	}
}

func TestFindInlineCommentIndex(t *testing.T) {
	tests := []struct {
		line     string
		expected int
	}{
		{"value # comment", 6},
		{`"val # ue"`, -1},
		{`'val # ue'`, -1},
		{`val\# ue`, -1},
		{"plain", -1},
		{"#leading", 0},
	}

	for _, tt := range tests {
		if got := FindInlineCommentIndex(tt.line); got != tt.expected {
			t.Errorf("FindInlineCommentIndex(%q) = %d, want %d", tt.line, got, tt.expected)
		}
	}
}

func TestHumanizeAge(t *testing.T) {
	tests := []struct {
		age      time.Duration
		expected string
	}{
		{90 * time.Minute, "1h 30m ago"},
		{26*time.Hour + 3*time.Minute, "1d 2h 3m ago"},
		{48 * time.Hour, "2d ago"},
		{30 * time.Second, "0m ago"},
		{-time.Minute, "in the future"},
	}

	for _, tt := range tests {
		if got := HumanizeAge(tt.age); got != tt.expected {
			t.Errorf("HumanizeAge(%v) = %q, want %q", tt.age, got, tt.expected)
		}
	}
}
