// Package drm reads GPU utilization and video-memory counters from the
// Linux DRM sysfs tree. It is the counter-tier backend for GPU metrics,
// used when the vendor management library is unavailable.
package drm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"procmon/internal/logging"
)

const (
	drmClassPath      = "class/drm"
	gpuBusyFilename   = "gpu_busy_percent"
	vramUsedFilename  = "mem_info_vram_used"
	vramTotalFilename = "mem_info_vram_total"
	vendorFilename    = "vendor"
	deviceFilename    = "device"
)

// DefaultSysfsRoot is where the kernel mounts sysfs.
const DefaultSysfsRoot = "/sys"

// Counters reads the utilization and VRAM counters of a single DRM card.
// The sysfs root is injectable so tests can point it at a fixture tree.
type Counters struct {
	card       string
	devicePath string
	logger     *logging.Logger
}

// New binds to the first DRM card under root that exposes a device
// directory. Returns an error when no card is present, which callers treat
// as the counter tier being unavailable.
func New(root string, logger *logging.Logger) (*Counters, error) {
	pattern := filepath.Join(root, drmClassPath, "card[0-9]*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan drm class dir: %w", err)
	}

	sort.Strings(matches)
	for _, match := range matches {
		card := filepath.Base(match)
		// Skip connector entries like card0-DP-1
		if strings.Contains(card, "-") {
			continue
		}
		counters, err := NewForCard(root, card, logger)
		if err == nil {
			return counters, nil
		}
	}

	return nil, fmt.Errorf("no drm card found under %s", filepath.Join(root, drmClassPath))
}

// NewForCard binds to a specific card identifier (e.g. "card0").
func NewForCard(root, card string, logger *logging.Logger) (*Counters, error) {
	devicePath := filepath.Join(root, drmClassPath, card, "device")
	if _, err := os.Stat(devicePath); err != nil {
		return nil, fmt.Errorf("failed to stat device path: %w", err)
	}

	counters := &Counters{
		card:       card,
		devicePath: devicePath,
		logger:     logger,
	}

	if logger != nil {
		logger.Debug("drm.card.bound", "Bound to DRM card", map[string]interface{}{
			"card":   card,
			"device": devicePath,
		})
	}

	return counters, nil
}

// Card returns the bound card identifier.
func (c *Counters) Card() string {
	return c.card
}

// BusyPercent reads the GPU core busy counter (0-100).
func (c *Counters) BusyPercent() (float64, error) {
	value, err := c.readFloat(filepath.Join(c.devicePath, gpuBusyFilename))
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, fmt.Errorf("negative busy value %f", value)
	}
	// Some kernels report busy % scaled by 100
	if value > 100 {
		value = value / 100
		if value > 100 {
			value = 100
		}
	}
	return value, nil
}

// VRAMUsed reads used video memory in bytes.
func (c *Counters) VRAMUsed() (uint64, error) {
	return c.readUint(filepath.Join(c.devicePath, vramUsedFilename))
}

// VRAMTotal reads total video memory in bytes.
func (c *Counters) VRAMTotal() (uint64, error) {
	return c.readUint(filepath.Join(c.devicePath, vramTotalFilename))
}

// DeviceName resolves the card's product name from its PCI ids. Empty when
// the ids or the PCI database are unavailable; diagnostic use only.
func (c *Counters) DeviceName() string {
	vendorID, err := c.readString(filepath.Join(c.devicePath, vendorFilename))
	if err != nil {
		return ""
	}
	deviceID, err := c.readString(filepath.Join(c.devicePath, deviceFilename))
	if err != nil {
		return ""
	}
	return lookupDeviceName(vendorID, deviceID)
}

func (c *Counters) readString(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- paths are built from the configured sysfs root
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (c *Counters) readFloat(path string) (float64, error) {
	raw, err := c.readString(path)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("drm.read.unparseable", "Counter file held a non-numeric value", map[string]interface{}{
				"path":  path,
				"value": raw,
			})
		}
		return 0, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return value, nil
}

func (c *Counters) readUint(path string) (uint64, error) {
	raw, err := c.readString(path)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("drm.read.unparseable", "Counter file held a non-numeric value", map[string]interface{}{
				"path":  path,
				"value": raw,
			})
		}
		return 0, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return value, nil
}
