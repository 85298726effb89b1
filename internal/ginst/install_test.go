package ginst

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner records every command and fails those matching a
// configured substring.
type fakeRunner struct {
	calls []string
	fail  map[string]int
}

func (f *fakeRunner) Run(name string, args ...string) *CommandResult {
	return f.RunIn("", name, args...)
}

func (f *fakeRunner) RunIn(dir string, name string, args ...string) *CommandResult {
	cmd := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, cmd)
	for sub, code := range f.fail {
		if strings.Contains(cmd, sub) {
			return &CommandResult{Cmd: cmd, ExitCode: code}
		}
	}
	return &CommandResult{Cmd: cmd}
}

func (f *fakeRunner) called(sub string) bool {
	for _, c := range f.calls {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}

func testInstaller(t *testing.T, fr *fakeRunner, root bool) *Installer {
	t.Helper()
	cfg := &Config{Values: map[string]string{}}
	cfg.WorkDir = t.TempDir()
	cfg.Mirror = defaultSourceMirror
	cfg.FTPHost = defaultFTPHost

	v, err := NewGccVersion("12.2.0", "")
	if err != nil {
		t.Fatal(err)
	}
	inst := NewInstaller(context.Background(), v, cfg, nil)
	inst.run = fr
	inst.rootCheck = func() bool { return root }
	return inst
}

func swapLookPath(t *testing.T, fn func(string) (string, error)) {
	t.Helper()
	prev := lookPath
	lookPath = fn
	t.Cleanup(func() { lookPath = prev })
}

func lookPathFound(name string) (string, error) { return "/usr/bin/" + name, nil }

func lookPathMissing(name string) (string, error) {
	return "", fmt.Errorf("%s: executable file not found", name)
}

func TestPrereqScriptFailureDoesNotAbortPipeline(t *testing.T) {
	fr := &fakeRunner{fail: map[string]int{"download_prerequisites": 1}}
	inst := testInstaller(t, fr, false)

	if err := inst.buildAndInstall(); err != nil {
		t.Fatalf("pipeline aborted on prereq-script failure: %v", err)
	}
	if !fr.called("make install") {
		t.Errorf("install stage never reached; calls: %v", fr.calls)
	}
}

func TestConfigureFailureAbortsBeforeMake(t *testing.T) {
	fr := &fakeRunner{fail: map[string]int{"configure": 2}}
	inst := testInstaller(t, fr, false)

	if err := inst.buildAndInstall(); err == nil {
		t.Fatal("expected configure failure to abort the pipeline")
	}
	if fr.called("make") {
		t.Errorf("make ran after configure failed; calls: %v", fr.calls)
	}
}

func TestBuildFailureAbortsBeforeInstall(t *testing.T) {
	fr := &fakeRunner{fail: map[string]int{"make -j": 2}}
	inst := testInstaller(t, fr, false)

	if err := inst.buildAndInstall(); err == nil {
		t.Fatal("expected make failure to abort the pipeline")
	}
	if fr.called("make install") {
		t.Errorf("install ran after make failed; calls: %v", fr.calls)
	}
}

func TestMakeCleanFailureIsFatal(t *testing.T) {
	fr := &fakeRunner{fail: map[string]int{"make clean": 2}}
	inst := testInstaller(t, fr, false)

	if err := inst.buildAndInstall(); err == nil {
		t.Fatal("expected make clean failure to abort the pipeline")
	}
}

func TestPrereqsSkippedWithoutRoot(t *testing.T) {
	fr := &fakeRunner{}
	inst := testInstaller(t, fr, false)

	if err := inst.installPrereqs(); err != nil {
		t.Fatalf("prereq stage should warn, not fail, without root: %v", err)
	}
	if fr.called("apt-get") {
		t.Errorf("apt-get ran without root; calls: %v", fr.calls)
	}
}

func TestPrereqsFailureIsFatalWithRoot(t *testing.T) {
	fr := &fakeRunner{fail: map[string]int{"apt-get update": 100}}
	inst := testInstaller(t, fr, true)

	if err := inst.installPrereqs(); err == nil {
		t.Fatal("expected apt-get update failure to be fatal")
	}
	if fr.called("apt-get install") {
		t.Errorf("install ran after update failed; calls: %v", fr.calls)
	}
}

func TestPrereqsInstallPackageSet(t *testing.T) {
	fr := &fakeRunner{}
	inst := testInstaller(t, fr, true)

	if err := inst.installPrereqs(); err != nil {
		t.Fatalf("installPrereqs: %v", err)
	}
	if !fr.called("build-essential") || !fr.called("texinfo") {
		t.Errorf("package set incomplete; calls: %v", fr.calls)
	}
}

func TestDownloadSourceMissingDownloaderIsDistinctError(t *testing.T) {
	swapLookPath(t, lookPathMissing)
	fr := &fakeRunner{}
	inst := testInstaller(t, fr, false)
	inst.fetch = func(context.Context, string, string) error {
		t.Error("fetch attempted despite missing downloader")
		return nil
	}

	err := inst.downloadSource()
	if !errors.Is(err, errDownloaderMissing) {
		t.Fatalf("expected errDownloaderMissing, got %v", err)
	}
}

func TestDownloadSourceRetriesFiveTimes(t *testing.T) {
	swapLookPath(t, lookPathFound)
	fr := &fakeRunner{}
	inst := testInstaller(t, fr, false)

	attempts := 0
	inst.fetch = func(context.Context, string, string) error {
		attempts++
		return errors.New("network down")
	}

	if err := inst.downloadSource(); err == nil {
		t.Fatal("expected download stage to fail")
	}
	if attempts != downloadAttempts {
		t.Errorf("made %d attempts, want %d", attempts, downloadAttempts)
	}
}

func TestDownloadSourceSucceedsMidBudget(t *testing.T) {
	swapLookPath(t, lookPathFound)
	fr := &fakeRunner{}
	inst := testInstaller(t, fr, false)

	attempts := 0
	inst.fetch = func(_ context.Context, _ string, dest string) error {
		attempts++
		if attempts < 3 {
			return errors.New("flaky mirror")
		}
		return os.WriteFile(dest, []byte("tarball"), 0o644)
	}

	if err := inst.downloadSource(); err != nil {
		t.Fatalf("expected success on third attempt: %v", err)
	}
	if attempts != 3 {
		t.Errorf("made %d attempts, want 3", attempts)
	}
}

func TestDownloadSourceSkipsVerifiedCache(t *testing.T) {
	swapLookPath(t, lookPathFound)
	fr := &fakeRunner{}
	inst := testInstaller(t, fr, false)

	if err := os.WriteFile(inst.paths.ArchivePath, []byte("cached tarball"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := recordDigest(inst.paths.ArchivePath); err != nil {
		t.Fatal(err)
	}
	inst.fetch = func(context.Context, string, string) error {
		t.Error("fetch attempted despite valid cached archive")
		return nil
	}

	if err := inst.downloadSource(); err != nil {
		t.Fatalf("downloadSource with valid cache: %v", err)
	}
}

func TestInstallFromFolderSkipsDownloadAndExtract(t *testing.T) {
	fr := &fakeRunner{}
	inst := testInstaller(t, fr, false)
	inst.fetch = func(context.Context, string, string) error {
		t.Error("download ran in from-folder mode")
		return nil
	}
	inst.extract = func(string, string) error {
		t.Error("extract ran in from-folder mode")
		return nil
	}

	folder := filepath.Join(t.TempDir(), "gcc-source")
	if err := os.MkdirAll(filepath.Join(folder, "contrib"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := inst.InstallFromFolder(folder); err != nil {
		t.Fatalf("InstallFromFolder: %v", err)
	}
	if _, err := os.Stat(inst.paths.SrcDir); err != nil {
		t.Errorf("source folder not relocated to %s: %v", inst.paths.SrcDir, err)
	}
	if !fr.called("make install") {
		t.Errorf("install stage never reached; calls: %v", fr.calls)
	}
}

func TestInstallRunsStagesInOrder(t *testing.T) {
	swapLookPath(t, lookPathFound)
	fr := &fakeRunner{}
	inst := testInstaller(t, fr, false)

	var order []string
	inst.fetch = func(_ context.Context, _ string, dest string) error {
		order = append(order, "download")
		return os.WriteFile(dest, []byte("tarball"), 0o644)
	}
	inst.extract = func(string, string) error {
		order = append(order, "extract")
		return nil
	}

	if err := inst.Install(); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if len(order) != 2 || order[0] != "download" || order[1] != "extract" {
		t.Errorf("stage order wrong: %v", order)
	}

	joined := strings.Join(fr.calls, " | ")
	cfgIdx := strings.Index(joined, "configure")
	makeIdx := strings.Index(joined, "make -j")
	instIdx := strings.Index(joined, "make install")
	if cfgIdx == -1 || makeIdx == -1 || instIdx == -1 || !(cfgIdx < makeIdx && makeIdx < instIdx) {
		t.Errorf("configure/make/install out of order: %v", fr.calls)
	}
}
