//go:build unix

package shell

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// maxRSS returns the peak resident set size of the process in bytes.
func maxRSS() int64 {
	var ru unix.Rusage

	err := unix.Getrusage(unix.RUSAGE_SELF, &ru)
	if err != nil {
		return 0
	}

	// Linux and the BSDs report KiB, darwin reports bytes.
	if runtime.GOOS == "darwin" {
		return int64(ru.Maxrss)
	}

	return int64(ru.Maxrss) * 1024
}
