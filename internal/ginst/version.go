package ginst

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GccVersion describes one GCC release to build. It is constructed once
// at startup, from a CLI argument or interactive selection, and is
// immutable afterwards. The version string is interpolated into the
// source URL and local paths without format validation; any non-empty
// string is accepted.
type GccVersion struct {
	raw                string
	extraConfigureArgs string
}

func NewGccVersion(raw, extraConfigureArgs string) (*GccVersion, error) {
	if raw == "" {
		return nil, errors.New("version string must not be empty")
	}
	return &GccVersion{raw: raw, extraConfigureArgs: extraConfigureArgs}, nil
}

func (v *GccVersion) String() string { return v.raw }

// SourceURL returns the archive URL on the given mirror. The version
// appears twice: once in the release directory, once in the filename.
func (v *GccVersion) SourceURL(mirror string) string {
	if mirror == "" {
		mirror = defaultSourceMirror
	}
	return fmt.Sprintf("%s/gcc-%s/gcc-%s.tar.gz", strings.TrimRight(mirror, "/"), v.raw, v.raw)
}

// LocalSourceDir is where the extracted source tree lands.
func (v *GccVersion) LocalSourceDir(workDir string) string {
	return filepath.Join(workDir, "gcc-"+v.raw)
}

// LocalBuildDir is the out-of-tree build directory inside the source tree.
func (v *GccVersion) LocalBuildDir(workDir string) string {
	return filepath.Join(v.LocalSourceDir(workDir), "build")
}

// ConfigureArgs returns the configure invocation as an argument list.
// The install prefix is /usr/local/ with elevated privileges and the
// user's home directory without them. Extra configure arguments are
// split on whitespace and appended verbatim at the end.
func (v *GccVersion) ConfigureArgs(elevated bool, workDir string) []string {
	prefix := "/usr/local/"
	if !elevated {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.Getenv("HOME")
		}
		prefix = home + "/"
	}

	args := []string{
		filepath.Join(v.LocalSourceDir(workDir), "configure"),
		"-v",
		"--with-system-zlib",
		"--build=x86_64-linux-gnu",
		"--host=x86_64-linux-gnu",
		"--target=x86_64-linux-gnu",
		fmt.Sprintf("--prefix=%sgcc-%s", prefix, v.raw),
		"--enable-checking=release",
		"--enable-languages=c,c++",
		"--enable-multilib",
		"--program-suffix=-" + v.raw,
	}
	args = append(args, strings.Fields(v.extraConfigureArgs)...)
	return args
}
