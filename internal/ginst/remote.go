package ginst

import (
	"fmt"
	"regexp"
	"time"

	"github.com/jlaffaye/ftp"
)

// versionPattern extracts the dotted release number from listing
// entries like "gnu/gcc/gcc-12.2.0".
var versionPattern = regexp.MustCompile(ftpVersionDir + `/gcc-(\d?\.\d*\.\d*)$`)

// versionLister enumerates the GCC releases a mirror offers.
type versionLister interface {
	ListVersions() ([]string, error)
}

// ftpLister queries the version listing over anonymous FTP.
type ftpLister struct {
	host    string
	dir     string
	timeout time.Duration
}

func newFTPLister(cfg *Config) *ftpLister {
	return &ftpLister{
		host:    cfg.FTPHost,
		dir:     ftpVersionDir,
		timeout: 30 * time.Second,
	}
}

// ListVersions returns the releases in listing order. The remote
// listing is not sorted and may repeat entries; both properties are
// preserved.
func (l *ftpLister) ListVersions() ([]string, error) {
	conn, err := ftp.Dial(l.host+":21", ftp.DialWithTimeout(l.timeout))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", l.host, err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, fmt.Errorf("anonymous login to %s: %w", l.host, err)
	}

	entries, err := conn.NameList(l.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s on %s: %w", l.dir, l.host, err)
	}

	return parseVersionListing(entries), nil
}

func parseVersionListing(entries []string) []string {
	var versions []string
	for _, entry := range entries {
		if m := versionPattern.FindStringSubmatch(entry); m != nil {
			versions = append(versions, m[1])
		}
	}
	return versions
}
