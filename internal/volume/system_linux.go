//go:build linux

package volume

// NewSystemLister returns the lister for the running system.
//
//nolint:ireturn // platform factory
func NewSystemLister() Lister {
	return MountTable{
		MountsPath: "/proc/self/mounts",
		SysBlock:   "/sys/class/block",
	}
}
