package ginst

import "os"

// hasRoot reports whether the process runs with an effective uid of 0.
// Package installation and the /usr/local prefix both require it.
func hasRoot() bool {
	return os.Geteuid() == 0
}
