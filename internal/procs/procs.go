// Package procs provides the process capability: enumerate visible
// processes, resolve a name to candidates, and hold a session target whose
// liveness and resource accounting are re-checked every sampling tick.
package procs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"procmon/internal/logging"
)

// Info identifies one running process.
type Info struct {
	PID  int32
	Name string
}

// Lister enumerates running processes. The console driver depends on this
// interface so tests can substitute fixtures.
type Lister interface {
	List() ([]Info, error)
	FindByName(name string) ([]Info, error)
}

// SystemLister is the gopsutil-backed Lister for the local machine.
type SystemLister struct {
	logger *logging.Logger
}

// NewSystemLister creates a Lister over the local process table.
func NewSystemLister(logger *logging.Logger) *SystemLister {
	return &SystemLister{logger: logger}
}

// List returns all visible processes with a readable name, sorted by name
// then PID. Processes whose name cannot be read are skipped.
func (s *SystemLister) List() ([]Info, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate processes: %w", err)
	}

	infos := make([]Info, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		infos = append(infos, Info{PID: p.Pid, Name: name})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name != infos[j].Name {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].PID < infos[j].PID
	})

	return infos, nil
}

// FindByName returns the running instances matching name. Matching is
// case-insensitive and ignores a Windows-style .exe suffix on either side.
func (s *SystemLister) FindByName(name string) ([]Info, error) {
	infos, err := s.List()
	if err != nil {
		return nil, err
	}

	want := normalizeName(name)
	var matches []Info
	for _, info := range infos {
		if normalizeName(info.Name) == want {
			matches = append(matches, info)
		}
	}

	return matches, nil
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".exe")
}
