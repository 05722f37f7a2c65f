//go:build linux

package watcher

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// statfs magic numbers, see statfs(2).
const (
	nfsMagic  = 0x6969
	smbMagic  = 0x517B
	smb2Magic = 0xFE534D42
	cifsMagic = 0xFF534D42
	fuseMagic = 0x65735546
)

func detectFilesystemType(path string) FilesystemType {
	var st unix.Statfs_t
	target := path
	for {
		err := unix.Statfs(target, &st)
		if err == nil {
			break
		}
		parent := filepath.Dir(target)
		if parent == target {
			return FSTypeUnknown
		}
		target = parent
	}

	switch int64(st.Type) {
	case nfsMagic:
		return FSTypeNFS
	case smbMagic, smb2Magic, cifsMagic:
		return FSTypeSMB
	case fuseMagic:
		if mountFSType(target) == "fuse.sshfs" {
			return FSTypeSSHFS
		}
		return FSTypeFUSE
	default:
		return FSTypeLocal
	}
}

// mountFSType returns the fstype column of the longest mount point covering
// path, read from /proc/self/mounts.
func mountFSType(path string) string {
	f, err := os.Open("/proc/self/mounts")
	if err != nil {
		return ""
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	var best, fstype string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		mnt := fields[1]
		if (abs == mnt || strings.HasPrefix(abs, strings.TrimSuffix(mnt, "/")+"/")) && len(mnt) > len(best) {
			best, fstype = mnt, fields[2]
		}
	}
	return fstype
}
