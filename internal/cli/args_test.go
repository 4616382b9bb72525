package cli

import (
	"strings"
	"testing"
)

func TestParseArgs_Defaults(t *testing.T) {
	args, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}

	if args.IntervalMs != 100 {
		t.Errorf("IntervalMs = %d, want 100", args.IntervalMs)
	}
	if args.IntervalSet {
		t.Error("IntervalSet = true, want false for omitted option")
	}
	if args.DurationSet {
		t.Error("DurationSet = true, want false for omitted option")
	}
	if args.ProcessName != "" {
		t.Errorf("ProcessName = %q, want empty", args.ProcessName)
	}
}

func TestParseArgs_Flags(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		expected Args
	}{
		{
			name:     "duration short",
			argv:     []string{"-d", "30", "worker"},
			expected: Args{DurationSeconds: 30, DurationSet: true, IntervalMs: 100, ProcessName: "worker"},
		},
		{
			name:     "duration long",
			argv:     []string{"--duration", "30"},
			expected: Args{DurationSeconds: 30, DurationSet: true, IntervalMs: 100},
		},
		{
			name:     "duration slash",
			argv:     []string{"/d", "30"},
			expected: Args{DurationSeconds: 30, DurationSet: true, IntervalMs: 100},
		},
		{
			name:     "interval short",
			argv:     []string{"-i", "250"},
			expected: Args{IntervalMs: 250, IntervalSet: true},
		},
		{
			name:     "interval long",
			argv:     []string{"--interval", "250"},
			expected: Args{IntervalMs: 250, IntervalSet: true},
		},
		{
			name:     "interval slash",
			argv:     []string{"/i", "250"},
			expected: Args{IntervalMs: 250, IntervalSet: true},
		},
		{
			name:     "filename short",
			argv:     []string{"-f", "run.csv"},
			expected: Args{IntervalMs: 100, Filename: "run.csv"},
		},
		{
			name:     "filename slash",
			argv:     []string{"/f", "run.csv"},
			expected: Args{IntervalMs: 100, Filename: "run.csv"},
		},
		{
			name:     "verbose",
			argv:     []string{"-v"},
			expected: Args{IntervalMs: 100, Verbose: true},
		},
		{
			name:     "verbose slash",
			argv:     []string{"/v"},
			expected: Args{IntervalMs: 100, Verbose: true},
		},
		{
			name:     "help short",
			argv:     []string{"-h"},
			expected: Args{IntervalMs: 100, Help: true},
		},
		{
			name:     "help question mark",
			argv:     []string{"/?"},
			expected: Args{IntervalMs: 100, Help: true},
		},
		{
			name:     "process before flags",
			argv:     []string{"worker", "-v"},
			expected: Args{IntervalMs: 100, Verbose: true, ProcessName: "worker"},
		},
		{
			name:     "combined session",
			argv:     []string{"-d", "5", "-i", "1000", "-f", "bench.csv", "worker"},
			expected: Args{DurationSeconds: 5, DurationSet: true, IntervalMs: 1000, IntervalSet: true, Filename: "bench.csv", ProcessName: "worker"},
		},
		{
			// Negative values parse; the settings validation rejects them.
			name:     "negative duration",
			argv:     []string{"-d", "-5"},
			expected: Args{DurationSeconds: -5, DurationSet: true, IntervalMs: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ParseArgs(tt.argv)
			if err != nil {
				t.Fatalf("ParseArgs(%v) error = %v", tt.argv, err)
			}
			if args != tt.expected {
				t.Errorf("ParseArgs(%v) = %+v, want %+v", tt.argv, args, tt.expected)
			}
		})
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		message string
	}{
		{name: "unknown short option", argv: []string{"-x"}, message: "unrecognized option"},
		{name: "unknown slash option", argv: []string{"/x"}, message: "unrecognized option"},
		{name: "bare dash", argv: []string{"-"}, message: "unrecognized option"},
		{name: "bare slash", argv: []string{"/"}, message: "unrecognized option"},
		{name: "bare double dash", argv: []string{"--"}, message: "unrecognized option"},
		{name: "duration missing value", argv: []string{"-d"}, message: "requires a numeric value"},
		{name: "interval missing value", argv: []string{"worker", "-i"}, message: "requires a numeric value"},
		{name: "interval non-numeric", argv: []string{"-i", "abc"}, message: "requires a numeric value"},
		{name: "duration eats next flag", argv: []string{"-d", "-i"}, message: "requires a numeric value"},
		{name: "filename missing value", argv: []string{"-f"}, message: "requires a value"},
		{name: "second positional", argv: []string{"worker", "extra"}, message: "unexpected argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.argv)
			if err == nil {
				t.Fatalf("ParseArgs(%v) expected error, got nil", tt.argv)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("ParseArgs(%v) error = %q, want it to mention %q", tt.argv, err, tt.message)
			}
		})
	}
}

func TestUsage(t *testing.T) {
	usage := Usage()
	for _, want := range []string{"Usage:", "--duration", "--interval", "--filename", "--verbose", "--help", "/?"} {
		if !strings.Contains(usage, want) {
			t.Errorf("Usage() missing %q", want)
		}
	}
}
