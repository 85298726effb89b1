package ginst

import (
	"context"
	"errors"
	"flag"
	"fmt"
)

// printHelp prints the flags table
func printHelp(fs *flag.FlagSet) {
	colSuccess.Println("Usage: ginst [flags]")
	colSuccess.Println("Download, build and install a gcc release from source")
	fmt.Println()
	colInfo.Println("Flags:")
	fs.PrintDefaults()
	fmt.Println()
	colInfo.Println("Environment:")
	fmt.Println("  GINST_WORK_DIR   directory for the archive and source tree (default: cwd)")
	fmt.Println("  GINST_MIRROR     GNU source mirror base URL")
	fmt.Println("  GINST_FTP_HOST   FTP host for version discovery")
	fmt.Println("  GINST_JOBS       parallel make jobs (default: all cores)")
	fmt.Println("  GINST_DEBUG      set to 1 for command output at debug level")
}

// Run parses the command line and drives the install pipeline.
// It returns the process exit code.
func Run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("ginst", flag.ContinueOnError)

	var (
		gccVersion    string
		interactive   bool
		fromFolder    string
		configureArgs string
		debug         bool
		showVersion   bool
	)
	fs.StringVar(&gccVersion, "g", DefaultVersion, "gcc version to build")
	fs.StringVar(&gccVersion, "gcc", DefaultVersion, "gcc version to build (long form)")
	fs.BoolVar(&interactive, "select", false, "pick the version interactively from the mirror listing")
	fs.StringVar(&fromFolder, "from-folder", "", "build from an already-present source folder instead of downloading")
	fs.StringVar(&configureArgs, "configure-args", "", "extra arguments appended verbatim to configure")
	fs.BoolVar(&debug, "debug", false, "log every command and its output")
	fs.BoolVar(&showVersion, "version", false, "print version information")
	fs.Usage = func() { printHelp(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if showVersion {
		fmt.Printf("ginst %s (%s) built %s\n", version, arch, buildDate)
		return 0
	}

	if debug {
		Debug = true
	}

	cfg, err := LoadConfig(ConfigFile)
	if err != nil {
		colError.Println("Error reading config:", err)
		return 1
	}

	if interactive {
		selected, err := SelectVersion(cfg)
		if err != nil {
			if errors.Is(err, errQuit) {
				return 1
			}
			colError.Println("Error:", err)
			return 1
		}
		gccVersion = selected
	}

	v, err := NewGccVersion(gccVersion, configureArgs)
	if err != nil {
		colError.Println("Error:", err)
		return 1
	}

	inst := NewInstaller(ctx, v, cfg, NewExecutor(ctx))

	if fromFolder != "" {
		err = inst.InstallFromFolder(fromFolder)
	} else {
		err = inst.Install()
	}
	if err != nil {
		colError.Println("Error:", err)
		return 1
	}
	return 0
}
