package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"procmon/internal/procs"
)

// maxAlternatives bounds the suggestion list shown when a named process
// cannot be found.
const maxAlternatives = 10

// resolveTarget turns the (possibly empty) process name argument into one
// concrete process. An empty name lists everything visible and asks for a
// 1-based selection; an ambiguous name lists the PID-qualified instances
// and asks for a single-digit selection; an unmatched name fails after
// suggesting alternatives.
func resolveTarget(lister procs.Lister, name string, in io.Reader, out io.Writer) (procs.Info, error) {
	if name == "" {
		return selectFromAll(lister, in, out)
	}

	matches, err := lister.FindByName(name)
	if err != nil {
		return procs.Info{}, fmt.Errorf("failed to enumerate processes: %w", err)
	}

	switch len(matches) {
	case 0:
		listAlternatives(lister, out)
		return procs.Info{}, fmt.Errorf("no running process matches %q", name)
	case 1:
		return matches[0], nil
	default:
		return selectInstance(name, matches, in, out)
	}
}

// selectFromAll lists every visible process and reads a 1-based selection.
func selectFromAll(lister procs.Lister, in io.Reader, out io.Writer) (procs.Info, error) {
	infos, err := lister.List()
	if err != nil {
		return procs.Info{}, fmt.Errorf("failed to enumerate processes: %w", err)
	}
	if len(infos) == 0 {
		return procs.Info{}, fmt.Errorf("no accessible processes found")
	}

	fmt.Fprintln(out, "No process given. Visible processes:")
	for i, info := range infos {
		fmt.Fprintf(out, "%4d. %s (pid %d)\n", i+1, info.Name, info.PID)
	}
	fmt.Fprintf(out, "Select a process (1-%d): ", len(infos))

	choice, err := readNumber(in)
	if err != nil {
		return procs.Info{}, err
	}
	if choice < 1 || choice > len(infos) {
		return procs.Info{}, fmt.Errorf("selection %d is out of range 1-%d", choice, len(infos))
	}
	return infos[choice-1], nil
}

// selectInstance disambiguates a name matching several running instances.
func selectInstance(name string, matches []procs.Info, in io.Reader, out io.Writer) (procs.Info, error) {
	limit := len(matches)
	if limit > 9 {
		// Selection is a single digit; further instances are not offered.
		limit = 9
	}

	fmt.Fprintf(out, "%d running instances match %q:\n", len(matches), name)
	for i := 0; i < limit; i++ {
		fmt.Fprintf(out, "  %d. %s (pid %d)\n", i+1, matches[i].Name, matches[i].PID)
	}
	fmt.Fprintf(out, "Select an instance (1-%d): ", limit)

	choice, err := readNumber(in)
	if err != nil {
		return procs.Info{}, err
	}
	if choice < 1 || choice > limit {
		return procs.Info{}, fmt.Errorf("selection %d is out of range 1-%d", choice, limit)
	}
	return matches[choice-1], nil
}

// listAlternatives prints up to maxAlternatives visible process names as a
// hint next to a no-match error.
func listAlternatives(lister procs.Lister, out io.Writer) {
	infos, err := lister.List()
	if err != nil || len(infos) == 0 {
		return
	}

	fmt.Fprintln(out, "Available processes include:")
	shown := 0
	lastName := ""
	for _, info := range infos {
		if info.Name == lastName {
			continue
		}
		lastName = info.Name
		fmt.Fprintf(out, "  %s\n", info.Name)
		shown++
		if shown >= maxAlternatives {
			break
		}
	}
}

// readNumber reads one line and parses it as a decimal selection.
func readNumber(in io.Reader) (int, error) {
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("failed to read selection: %w", err)
		}
		return 0, fmt.Errorf("no selection given")
	}

	raw := scanner.Text()
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("selection %q is not a number", raw)
	}
	return value, nil
}
