package ginst

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// prereqPackages is the fixed toolchain set installed before building.
var prereqPackages = []string{
	"wget", "gcc", "g++", "gcc-multilib", "g++-multilib",
	"build-essential", "libc6-dev", "zlib1g-dev",
	"flex", "bison", "texinfo", "automake",
}

// runner abstracts the Executor so pipeline tests can fake commands.
type runner interface {
	Run(name string, args ...string) *CommandResult
	RunIn(dir string, name string, args ...string) *CommandResult
}

// BuildContext carries the resolved absolute paths every stage works
// in. Stages never change the process working directory; each command
// is told its directory explicitly.
type BuildContext struct {
	WorkDir     string // where the archive lands and the tree is extracted
	SrcDir      string // extracted source tree
	BuildDir    string // out-of-tree build directory inside SrcDir
	ArchivePath string // downloaded tarball
}

// Installer drives the full pipeline: prereqs, download, extraction,
// prerequisite fetch, configure, make, make install. Stages run
// strictly in order and any fatal stage error aborts the rest. There
// is no resume and no rollback; partial trees are left in place.
type Installer struct {
	ctx     context.Context
	version *GccVersion
	cfg     *Config
	run     runner
	paths   BuildContext

	// seams for tests
	rootCheck func() bool
	fetch     func(ctx context.Context, url, dest string) error
	extract   func(archivePath, dest string) error
}

func NewInstaller(ctx context.Context, v *GccVersion, cfg *Config, exec *Executor) *Installer {
	return &Installer{
		ctx:     ctx,
		version: v,
		cfg:     cfg,
		run:     exec,
		paths: BuildContext{
			WorkDir:     cfg.WorkDir,
			SrcDir:      v.LocalSourceDir(cfg.WorkDir),
			BuildDir:    v.LocalBuildDir(cfg.WorkDir),
			ArchivePath: filepath.Join(cfg.WorkDir, archiveName),
		},
		rootCheck: hasRoot,
		fetch:     downloadFile,
		extract:   extractArchive,
	}
}

// Install runs the whole pipeline for the bound version.
func (inst *Installer) Install() error {
	if err := inst.installPrereqs(); err != nil {
		return err
	}
	if err := inst.downloadSource(); err != nil {
		return err
	}
	if err := inst.extractSource(); err != nil {
		return err
	}
	return inst.buildAndInstall()
}

// InstallFromFolder skips download and extraction: it relocates an
// already-present source folder into the expected source path and
// continues from the prerequisite-fetch stage.
func (inst *Installer) InstallFromFolder(folder string) error {
	if err := inst.installPrereqs(); err != nil {
		return err
	}
	stagef("Moving %s to the expected source path", folder)
	if err := inst.moveSourceFolder(folder); err != nil {
		return err
	}
	return inst.buildAndInstall()
}

// buildAndInstall is the tail of the pipeline shared by both entry points.
func (inst *Installer) buildAndInstall() error {
	inst.fetchPrereqScript()
	if err := inst.configureBuild(); err != nil {
		return err
	}
	if err := inst.build(); err != nil {
		return err
	}
	if err := inst.installBuild(); err != nil {
		return err
	}
	stagef("Done installing gcc %s", inst.version)
	return nil
}

// installPrereqs refreshes the package index and installs the build
// toolchain. Without root the stage is skipped with a warning and the
// pipeline proceeds optimistically.
func (inst *Installer) installPrereqs() error {
	if !inst.rootCheck() {
		cPrintln(colWarn, "No root detected, skipping build prerequisites... if this fails, run as root/sudo")
		return nil
	}

	stagef("Installing build prerequisites")
	if inst.run.Run("apt-get", "update", "-y").Failed() {
		return fmt.Errorf("failed to apt-get update")
	}
	if inst.run.Run("apt-get", "upgrade", "-y").Failed() {
		return fmt.Errorf("failed to apt-get upgrade")
	}
	args := append([]string{"install", "-y"}, prereqPackages...)
	if inst.run.Run("apt-get", args...).Failed() {
		return fmt.Errorf("failed to install build prerequisites")
	}
	return nil
}

// downloadSource fetches the source archive, retrying up to the stage
// budget. The downloader's availability is checked first; its absence
// is a distinct fatal error. A cached archive whose recorded digest
// still matches skips the download entirely.
func (inst *Installer) downloadSource() error {
	stagef("Downloading the gcc %s source", inst.version)

	if _, err := lookPath("curl"); err != nil {
		return fmt.Errorf("%w to download the gcc source", errDownloaderMissing)
	}

	if cachedArchiveValid(inst.paths.ArchivePath) {
		stagef("Archive already downloaded and verified, skipping")
		return nil
	}

	url := inst.version.SourceURL(inst.cfg.Mirror)
	err := downloadWithRetry(downloadAttempts, func(int) error {
		return inst.fetch(inst.ctx, url, inst.paths.ArchivePath)
	})
	if err != nil {
		return fmt.Errorf("failed to download the gcc source: %w", err)
	}

	if sum, err := recordDigest(inst.paths.ArchivePath); err == nil {
		debugf("archive blake3: %s\n", sum)
	} else {
		debugf("could not record archive digest: %v\n", err)
	}
	return nil
}

// extractSource unpacks the archive into the work directory. One
// attempt; any failure is fatal.
func (inst *Installer) extractSource() error {
	stagef("Extracting the gcc source")
	if err := inst.extract(inst.paths.ArchivePath, inst.paths.WorkDir); err != nil {
		return fmt.Errorf("unable to extract the gcc source: %w", err)
	}
	return nil
}

// fetchPrereqScript runs the helper bundled with the source tree.
// Older releases lack it, so failure is a warning, never fatal.
func (inst *Installer) fetchPrereqScript() {
	stagef("Fetching in-tree prerequisites (contrib/download_prerequisites)")
	if inst.run.RunIn(inst.paths.SrcDir, "./contrib/download_prerequisites").Failed() {
		cPrintln(colWarn, "Unable to download prerequisites via the source script... that might be ok if this is an old gcc")
	}
}

// configureBuild creates the build directory and runs configure inside it.
func (inst *Installer) configureBuild() error {
	stagef("Configuring the build")
	if err := os.MkdirAll(inst.paths.BuildDir, 0o755); err != nil {
		return fmt.Errorf("unable to create build directory: %w", err)
	}
	args := inst.version.ConfigureArgs(inst.rootCheck(), inst.paths.WorkDir)
	if inst.run.RunIn(inst.paths.BuildDir, args[0], args[1:]...).Failed() {
		return fmt.Errorf("unable to configure the build")
	}
	return nil
}

// build runs make clean then a parallel make across all cores.
func (inst *Installer) build() error {
	jobs := inst.cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	stagef("Calling make -j%d... this will take a while", jobs)
	if inst.run.RunIn(inst.paths.BuildDir, "make", "clean").Failed() {
		return fmt.Errorf("make clean failed")
	}
	if inst.run.RunIn(inst.paths.BuildDir, "make", "-j"+strconv.Itoa(jobs)).Failed() {
		return fmt.Errorf("compilation via make failed")
	}
	return nil
}

// installBuild installs the freshly built toolchain under the prefix.
func (inst *Installer) installBuild() error {
	stagef("Installing the new gcc")
	if inst.run.RunIn(inst.paths.BuildDir, "make", "install").Failed() {
		return fmt.Errorf("unable to install the new gcc")
	}
	return nil
}

// moveSourceFolder relocates folder into the expected source path,
// falling back to mv when a plain rename crosses filesystems.
func (inst *Installer) moveSourceFolder(folder string) error {
	if folder == inst.paths.SrcDir {
		return nil
	}
	if err := os.Rename(folder, inst.paths.SrcDir); err == nil {
		return nil
	}
	if inst.run.Run("mv", folder, inst.paths.SrcDir).Failed() {
		return fmt.Errorf("unable to move %s to %s", folder, inst.paths.SrcDir)
	}
	return nil
}
