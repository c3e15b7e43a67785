package optimizer

import "os"

// BackupSuffix is appended to the full file name, so image.jpg backs up
// to image.jpg.bak.
const BackupSuffix = ".bak"

// writeBackup copies the pre-optimization bytes to a .bak sibling before
// the destination is overwritten. An existing backup is replaced; backups
// never accumulate versions. The write goes through the same temp+rename
// path as regular output so an interrupted backup is never half-written.
func writeBackup(path string, original []byte, mode os.FileMode) error {
	return writeAtomic(path+BackupSuffix, original, mode)
}
