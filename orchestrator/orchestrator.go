// Package orchestrator drives the launcher's top-level state machine:
// create the installation root, fetch and parse the descriptor, reconcile
// the splash artifact and the application artifacts, sweep orphans,
// acquire shared locks, re-verify, launch the embedded runtime, then
// unlock. Every state transition is sequential and the first error is
// fatal — there is no retry logic anywhere in this package.
package orchestrator

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nativestart-go/launcher/config"
	"github.com/nativestart-go/launcher/descriptor"
	"github.com/nativestart-go/launcher/download"
	"github.com/nativestart-go/launcher/launcherrors"
	"github.com/nativestart-go/launcher/lock"
	"github.com/nativestart-go/launcher/progress"
	"github.com/nativestart-go/launcher/runtime"
	"github.com/nativestart-go/launcher/store"
	"github.com/nativestart-go/launcher/validate"
)

// State names the orchestrator's position in the launch sequence.
type State int

const (
	StateInit State = iota
	StateFetchDescriptor
	StateParseDescriptor
	StateReconcileSplash
	StateShowSplash
	StateReconcileArtifacts
	StateSweepOrphans
	StateLock
	StateVerify
	StateLaunchRuntime
	StateUnlock
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateFetchDescriptor:
		return "FetchDescriptor"
	case StateParseDescriptor:
		return "ParseDescriptor"
	case StateReconcileSplash:
		return "ReconcileSplash"
	case StateShowSplash:
		return "ShowSplash"
	case StateReconcileArtifacts:
		return "ReconcileArtifacts"
	case StateSweepOrphans:
		return "SweepOrphans"
	case StateLock:
		return "Lock"
	case StateVerify:
		return "Verify"
	case StateLaunchRuntime:
		return "LaunchRuntime"
	case StateUnlock:
		return "Unlock"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Params are the orchestrator's fixed launch-time inputs: a product name,
// a descriptor URL, an optional trust anchor, and the launcher's own
// ambient config.
type Params struct {
	ProductName    string
	DescriptorURL  string
	TrustAnchorHex string
	InstallRoot    string
	Config         *config.LauncherConfig
	Args           []string // forwarded verbatim to the child runtime's main
}

// Orchestrator runs the state machine described in spec §4.6, reporting
// state transitions and progress over events.
type Orchestrator struct {
	params Params
	log    *slog.Logger

	store   *store.Store
	engine  *download.Engine
	alg     validate.Algorithm
	events  progress.Channel
	counter *progress.Counter

	state      State
	descriptor *descriptor.Descriptor
	splashDir  string
	pendingRaw []byte
	pinner     *lock.Pinner
}

// New builds an Orchestrator ready to Run. events is the single-producer/
// single-consumer channel the splash UI drains; counter is shared with the
// download engine and polled by the splash renderer.
func New(params Params, logger *slog.Logger, events progress.Channel, counter *progress.Counter) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	alg := validate.SHA256
	if params.Config != nil && params.Config.Checksum.Algorithm == "blake3" {
		alg = validate.BLAKE3
	}
	var mirrorBase string
	var maxDownloadBytes uint64
	httpClient := &http.Client{Timeout: download.DefaultTimeout}
	if params.Config != nil {
		mirrorBase = params.Config.HTTP.MirrorBase
		maxDownloadBytes = params.Config.HTTP.MaxDownloadBytes
		httpClient = &http.Client{Timeout: params.Config.HTTPTimeout()}
	}
	return &Orchestrator{
		params: params,
		log:    logger,
		engine: download.New(
			download.WithMirrorBase(mirrorBase),
			download.WithHTTPClient(httpClient),
			download.WithMaxDownloadBytes(maxDownloadBytes),
		),
		alg:     alg,
		events:  events,
		counter: counter,
		state:   StateInit,
	}
}

// State returns the orchestrator's current position in the launch sequence.
func (o *Orchestrator) State() State { return o.state }

// Run drives the state machine to completion (StateDone) or to the first
// fatal error, matching the transition table in spec §4.6 exactly:
// Init -> FetchDescriptor -> ParseDescriptor -> ReconcileSplash ->
// ShowSplash -> ReconcileArtifacts -> SweepOrphans -> Lock -> Verify ->
// LaunchRuntime -> Unlock -> Done.
func (o *Orchestrator) Run(ctx context.Context) error {
	steps := []struct {
		state State
		run   func(context.Context) error
	}{
		{StateInit, o.runInit},
		{StateFetchDescriptor, o.runFetchDescriptor},
		{StateParseDescriptor, o.runParseDescriptor},
		{StateReconcileSplash, o.runReconcileSplash},
		{StateShowSplash, o.runShowSplash},
		{StateReconcileArtifacts, o.runReconcileArtifacts},
		{StateSweepOrphans, o.runSweepOrphans},
		{StateLock, o.runLock},
		{StateVerify, o.runVerify},
		{StateLaunchRuntime, o.runLaunchRuntime},
		{StateUnlock, o.runUnlock},
	}

	for _, step := range steps {
		o.state = step.state
		o.log.Debug("entering state", "state", step.state.String())
		if err := step.run(ctx); err != nil {
			o.log.Error("fatal error", "state", step.state.String(), "err", err)
			o.emitError(err)
			return err
		}
	}

	o.state = StateDone
	o.log.Info("launch complete")
	return nil
}

func (o *Orchestrator) emitError(err error) {
	if o.events == nil {
		return
	}
	select {
	case o.events <- progress.Event{Kind: progress.EventError, Err: err}:
	default:
	}
}

func (o *Orchestrator) runInit(ctx context.Context) error {
	st, err := store.New(o.params.InstallRoot)
	if err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "creating installation root %s", o.params.InstallRoot)
	}
	o.store = st
	return nil
}

func (o *Orchestrator) runFetchDescriptor(ctx context.Context) error {
	if raw, ok := o.engine.DownloadAndGet(ctx, o.params.DescriptorURL); ok {
		o.pendingRaw = []byte(raw)
		return nil
	}
	o.log.Warn("descriptor fetch failed, falling back to cache", "url", o.params.DescriptorURL)
	raw, found, err := o.store.LoadDescriptor()
	if err != nil {
		return launcherrors.Wrap(launcherrors.Download, err, "loading cached descriptor")
	}
	if !found {
		return launcherrors.New(launcherrors.Download, "descriptor fetch failed and no cached app.json present")
	}
	o.pendingRaw = raw
	return nil
}

func (o *Orchestrator) runParseDescriptor(ctx context.Context) error {
	if err := o.store.StoreDescriptor(o.pendingRaw); err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "persisting descriptor snapshot")
	}
	d, err := descriptor.Parse(o.pendingRaw, o.params.TrustAnchorHex)
	if err != nil {
		return err
	}
	o.descriptor = d
	o.counter.SetTotal(totalDownloadSize(d))
	return nil
}

func (o *Orchestrator) runReconcileSplash(ctx context.Context) error {
	target := o.store.ValidateTarget(o.descriptor.Splash)
	ok, err := validate.Validate(o.alg, target)
	if err != nil {
		return launcherrors.Wrap(launcherrors.Validation, err, "validating splash artifact")
	}
	if !ok {
		if err := o.engine.DownloadAndStore(ctx, []descriptor.Artifact{o.descriptor.Splash}, o.store, o.counter, o.events); err != nil {
			return err
		}
	}
	o.splashDir = o.store.Path(o.descriptor.Splash.Path)
	return nil
}

func (o *Orchestrator) runShowSplash(ctx context.Context) error {
	if o.events != nil {
		select {
		case o.events <- progress.Event{Kind: progress.EventSplashReady, Splash: o.splashDir}:
		default:
		}
	}
	return nil
}

func (o *Orchestrator) runReconcileArtifacts(ctx context.Context) error {
	missing, err := o.store.GetFilesToDownload(o.alg, o.descriptor.Artifacts)
	if err != nil {
		return launcherrors.Wrap(launcherrors.Validation, err, "computing artifacts to download")
	}
	if len(missing) == 0 {
		return nil
	}
	return o.engine.DownloadAndStore(ctx, missing, o.store, o.counter, o.events)
}

func (o *Orchestrator) runSweepOrphans(ctx context.Context) error {
	paths := make([]string, 0, len(o.descriptor.Artifacts))
	for _, a := range o.descriptor.Artifacts {
		paths = append(paths, a.Path)
	}
	managed := store.NewManagedSet(paths, o.descriptor.Splash.Path, o.descriptor.UnmanagedPaths)
	if err := o.store.DeleteUnusedFiles(managed); err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "sweeping orphaned files")
	}
	return nil
}

func (o *Orchestrator) runLock(ctx context.Context) error {
	paths, err := o.liveFilePaths()
	if err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "enumerating live files to lock")
	}
	pinner, err := lock.Acquire(ctx, paths)
	if err != nil {
		return launcherrors.Wrap(launcherrors.Storage, err, "acquiring shared locks")
	}
	o.pinner = pinner
	return nil
}

func (o *Orchestrator) runVerify(ctx context.Context) error {
	for _, a := range o.descriptor.AllArtifacts() {
		ok, err := validate.Validate(o.alg, o.store.ValidateTarget(a))
		if err != nil {
			return launcherrors.Wrap(launcherrors.Validation, err, "re-verifying %s", a.Path)
		}
		if !ok {
			return launcherrors.New(launcherrors.Validation, "post-lock verification failed for %s", a.Path)
		}
	}
	return nil
}

func (o *Orchestrator) runLaunchRuntime(ctx context.Context) error {
	signals := make(chan runtime.Signal, 2)
	done := make(chan error, 1)
	go func() {
		done <- runtime.Embed(ctx, o.descriptor.JvmParams, o.store.Root(), o.params.Args, signals)
	}()

	for {
		select {
		case sig, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			o.log.Info("runtime signal", "signal", sig.String())
			if sig == runtime.SignalTerminated {
				return <-done
			}
		case err := <-done:
			return err
		}
	}
}

func (o *Orchestrator) runUnlock(ctx context.Context) error {
	if o.pinner == nil {
		return nil
	}
	return o.pinner.Release()
}

func totalDownloadSize(d *descriptor.Descriptor) uint64 {
	var total uint64
	for _, a := range d.AllArtifacts() {
		total += a.EffectiveDownloadSize()
	}
	return total
}

// liveFilePaths enumerates every live file backing the installation per
// spec §4.5: every artifact's resolved path (including the splash artifact,
// per original_source/src/installation_manager.rs's lock_installation,
// which builds its path set from all_artifacts()), every regular file under
// each archive artifact's directory, and the descriptor snapshot.
func (o *Orchestrator) liveFilePaths() ([]string, error) {
	var paths []string
	for _, a := range o.descriptor.AllArtifacts() {
		resolved := o.store.Path(a.Path)
		if !a.IsArchive() {
			paths = append(paths, resolved)
			continue
		}
		walked, err := walkRegularFiles(resolved)
		if err != nil {
			return nil, err
		}
		paths = append(paths, walked...)
	}
	paths = append(paths, o.store.Path(store.DescriptorFileName))
	return paths, nil
}

func walkRegularFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
