package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// Args is the parsed command line. Set flags record whether the user gave
// a value, so configuration defaults only apply to omitted options.
type Args struct {
	DurationSeconds int
	DurationSet     bool
	IntervalMs      int
	IntervalSet     bool
	Filename        string
	Verbose         bool
	Help            bool
	ProcessName     string
}

const usageText = `Usage: procmon [options] [process]

Samples CPU, RAM and GPU usage of a process at a fixed interval and writes
the series to a CSV log file.

Arguments:
  process                Target process name. Prompted interactively if omitted.

Options:
  -d, --duration <s>     Session length in seconds, 0 runs until interrupted (default 0)
  -i, --interval <ms>    Sampling interval in milliseconds, minimum 10 (default 100)
  -f, --filename <name>  Log file name (default <prefix>-<process>-<timestamp>.csv)
  -v, --verbose          Print every sample and enable debug events
  -h, --help             Show this help and exit

Windows-style switches /d, /i, /f, /v, /h and /? are accepted as synonyms.
`

// Usage returns the help text.
func Usage() string {
	return usageText
}

// ParseArgs interprets the raw argument vector. The first token that is not
// an option names the target process. Flag-like tokens that match no known
// option are hard errors, as are options missing their value or given a
// non-numeric one.
func ParseArgs(argv []string) (Args, error) {
	args := Args{IntervalMs: 100}

	positional := 0
	for i := 0; i < len(argv); i++ {
		token := argv[i]

		if !isFlagToken(token) {
			if positional > 0 {
				return Args{}, fmt.Errorf("unexpected argument %q after process name", token)
			}
			args.ProcessName = token
			positional++
			continue
		}

		name, ok := flagName(token)
		if !ok {
			return Args{}, fmt.Errorf("unrecognized option %q", token)
		}

		switch name {
		case "help":
			args.Help = true
		case "verbose":
			args.Verbose = true
		case "duration":
			value, err := intValue(argv, &i, token)
			if err != nil {
				return Args{}, err
			}
			args.DurationSeconds = value
			args.DurationSet = true
		case "interval":
			value, err := intValue(argv, &i, token)
			if err != nil {
				return Args{}, err
			}
			args.IntervalMs = value
			args.IntervalSet = true
		case "filename":
			if i+1 >= len(argv) {
				return Args{}, fmt.Errorf("option %s requires a value", token)
			}
			i++
			args.Filename = argv[i]
		}
	}

	return args, nil
}

// isFlagToken reports whether a token claims to be an option. Bare "-",
// "--" and "/" count as flag-like and fail name resolution later.
func isFlagToken(token string) bool {
	return strings.HasPrefix(token, "-") || strings.HasPrefix(token, "/")
}

// flagName canonicalizes the accepted spellings of each option.
func flagName(token string) (string, bool) {
	switch token {
	case "-d", "--duration", "/d":
		return "duration", true
	case "-i", "--interval", "/i":
		return "interval", true
	case "-f", "--filename", "/f":
		return "filename", true
	case "-v", "--verbose", "/v":
		return "verbose", true
	case "-h", "--help", "/h", "/?":
		return "help", true
	default:
		return "", false
	}
}

// intValue consumes the next token as the numeric value of option flag.
func intValue(argv []string, i *int, flag string) (int, error) {
	if *i+1 >= len(argv) {
		return 0, fmt.Errorf("option %s requires a numeric value", flag)
	}
	*i++
	raw := argv[*i]
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("option %s requires a numeric value, got %q", flag, raw)
	}
	return value, nil
}
