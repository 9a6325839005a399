package volume

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var bootMounts = map[string]struct{}{
	"/boot":     {},
	"/boot/efi": {},
	"/efi":      {},
}

// MountTable lists volumes from a mounts(5) formatted file and classifies
// removable devices through sysfs.
type MountTable struct {
	MountsPath string // usually /proc/self/mounts
	SysBlock   string // usually /sys/class/block
}

// List parses the mount table. Only entries backed by /dev block devices
// are kept; each device is reported once, at its first mount point.
func (m MountTable) List() ([]ScanRoot, error) {
	f, err := os.Open(m.MountsPath)
	if err != nil {
		return nil, fmt.Errorf("open mount table: %w", err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var roots []ScanRoot

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		device := unescapeMount(fields[0])
		mountPoint := unescapeMount(fields[1])

		if !strings.HasPrefix(device, "/dev/") {
			continue
		}
		if _, dup := seen[device]; dup {
			continue
		}
		seen[device] = struct{}{}

		roots = append(roots, ScanRoot{
			Path: mountPoint,
			Name: device,
			Role: m.role(device, mountPoint),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mount table: %w", err)
	}

	for _, r := range roots {
		slog.Debug("volume", "device", r.Name, "mount", r.Path, "role", r.Role)
	}
	return roots, nil
}

func (m MountTable) role(device, mountPoint string) Role {
	if m.removable(device) {
		return Removable
	}
	if mountPoint == "/" {
		return Root
	}
	if _, ok := bootMounts[mountPoint]; ok {
		return Boot
	}
	return Generic
}

// removable checks the sysfs removable flag of the device, falling back to
// the parent disk for partitions.
func (m MountTable) removable(device string) bool {
	if m.SysBlock == "" {
		return false
	}
	name := filepath.Base(device)
	dir := filepath.Join(m.SysBlock, name)

	if flag, ok := readFlag(filepath.Join(dir, "removable")); ok {
		return flag
	}

	// Partitions live under their disk: /sys/devices/.../sdb/sdb1.
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return false
	}
	flag, _ := readFlag(filepath.Join(filepath.Dir(resolved), "removable"))
	return flag
}

func readFlag(path string) (value, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, false
	}
	return strings.TrimSpace(string(data)) == "1", true
}

// unescapeMount decodes the octal escapes (\040 etc.) used in mounts(5).
func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
