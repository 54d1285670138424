package util

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileInfo identifies a file on disk well enough to notice rotation:
// a changed inode or a shrinking size means the file was replaced or truncated.
type FileInfo struct {
	ModTime int64
	Size    int64
	Inode   uint64
}

// GetFileInfo stats path, including its inode number.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &FileInfo{
		ModTime: stat.ModTime().Unix(),
		Size:    stat.Size(),
		Inode:   uint64(st.Ino),
	}, nil
}

// Rotated reports whether cur is a different file than prev or was truncated.
func (prev *FileInfo) Rotated(cur *FileInfo) bool {
	if prev == nil || cur == nil {
		return false
	}
	return prev.Inode != cur.Inode || cur.Size < prev.Size
}
