package ginst

import (
	"errors"
	"runtime"

	"github.com/gookit/color"
)

const (
	// DefaultVersion is built when no version is selected on the CLI.
	DefaultVersion = "12.2.0"

	defaultSourceMirror = "http://ftpmirror.gnu.org/gcc"
	defaultFTPHost      = "mirrors.ocf.berkeley.edu"
	ftpVersionDir       = "gnu/gcc"

	// archiveName is the fixed local name of the downloaded source tarball.
	archiveName = "gcc.tar.gz"
)

// Global variables
var (
	Debug      bool
	ConfigFile = "/etc/ginst.conf"
	version    = "dev" // overridden at build time
	arch       = runtime.GOARCH
	buildDate  = "unknown" // overridden at build time

	errQuit              = errors.New("selection aborted by user")
	errDownloaderMissing = errors.New("curl is not available")
)

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
