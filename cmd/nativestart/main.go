// Package main is the entry point for the nativestart launcher binary.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/nativestart-go/launcher/config"
	"github.com/nativestart-go/launcher/orchestrator"
	"github.com/nativestart-go/launcher/progress"
	"github.com/nativestart-go/launcher/splash"
)

// version/commit and the three application identity constants below are all
// injected at build time via -ldflags "-X main.xxx=...", the same mechanism
// original_source/src/bin/generic.rs achieves by patching padded placeholder
// strings into the compiled binary post-build. A dev build left unpatched
// has no descriptor URL and fails fast at startup.
var (
	version = "dev"
	commit  = "none"

	productName           = ""
	descriptorURLTemplate = ""
	trustAnchorHex        = ""
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run takes no required arguments: per spec.md §6, every command-line
// argument the binary receives is forwarded verbatim to the child runtime's
// main(String[]). It wires logging and config, then drives the orchestrator
// to completion.
func run(args []string) int {
	if descriptorURLTemplate == "" {
		fmt.Fprintln(os.Stderr, "error: this binary was not built with a descriptor URL (missing -ldflags -X main.descriptorURLTemplate=...)")
		return 1
	}
	if productName == "" {
		fmt.Fprintln(os.Stderr, "error: this binary was not built with a product name (missing -ldflags -X main.productName=...)")
		return 1
	}

	descriptorURL := expandDescriptorURL(descriptorURLTemplate, version)

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: resolving cache directory: %v\n", err)
		return 1
	}
	installRoot := filepath.Join(cacheDir, productName)

	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: resolving executable path: %v\n", err)
		return 1
	}
	cfg, err := config.Load(filepath.Dir(exe))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		return 1
	}

	if err := os.MkdirAll(installRoot, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: creating install root %s: %v\n", installRoot, err)
		return 1
	}
	logFile, err := os.OpenFile(filepath.Join(installRoot, "launcher.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: opening launcher.log: %v\n", err)
		return 1
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, logFile), nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	events := progress.NewChannel()
	counter := progress.New(0)

	params := orchestrator.Params{
		ProductName:    productName,
		DescriptorURL:  descriptorURL,
		TrustAnchorHex: trustAnchorHex,
		InstallRoot:    installRoot,
		Config:         cfg,
		Args:           args,
	}
	orch := orchestrator.New(params, logger, events, counter)

	runErr := make(chan error, 1)
	go func() { runErr <- orch.Run(ctx) }()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return headlessWait(runErr, logger)
	}
	return interactiveWait(runErr, events, counter, cfg)
}

// expandDescriptorURL replaces the ${OS}/${VERSION} placeholders spec.md §6
// documents: ${OS} is one of "windows", "mac", "linux"; ${VERSION} is the
// launcher's own build version.
func expandDescriptorURL(template, version string) string {
	var osName string
	switch runtime.GOOS {
	case "windows":
		osName = "windows"
	case "darwin":
		osName = "mac"
	default:
		osName = "linux"
	}
	r := strings.NewReplacer("${OS}", osName, "${VERSION}", version)
	return r.Replace(template)
}

// headlessWait drains the orchestrator without a splash UI, for CI and
// service-managed launches where stdout is not a terminal.
func headlessWait(runErr <-chan error, logger *slog.Logger) int {
	if err := <-runErr; err != nil {
		logger.Error("launch failed", "err", err)
		return 1
	}
	return 0
}

// interactiveWait starts the splash program and blocks on the orchestrator,
// since the splash script itself is only known once the descriptor is
// parsed — the splash Model is built lazily on the first EventSplashReady.
func interactiveWait(runErr <-chan error, events progress.Channel, counter *progress.Counter, cfg *config.LauncherConfig) int {
	var program *tea.Program
	programDone := make(chan struct{})

	go func() {
		for ev := range events {
			switch ev.Kind {
			case progress.EventSplashReady:
				script, err := loadSplashScript(ev.Splash)
				if err != nil {
					slog.Error("loading splash script", "err", err)
					continue
				}
				model := splash.NewModel(script, counter, events, version, cfg.Splash.FrameRateHz)
				program = tea.NewProgram(model)
				go func() {
					defer close(programDone)
					if _, err := program.Run(); err != nil {
						slog.Error("splash program exited with error", "err", err)
					}
				}()
			}
		}
	}()

	err := <-runErr
	if program != nil {
		<-programDone
	}
	if err != nil {
		slog.Error("launch failed", "err", err)
		return 1
	}
	return 0
}

func loadSplashScript(dir string) (*splash.Script, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "splash.txt"))
	if err != nil {
		return nil, err
	}
	return splash.Parse(string(raw))
}
