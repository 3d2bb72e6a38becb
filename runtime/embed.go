// Package runtime embeds the packaged virtual-machine runtime via a
// dlopen/JNI-style foreign call and transfers control to its main entry
// point. All raw pointer traffic involved in that handshake is isolated
// behind Embed and the platform-specific embedImpl — every other package
// in this module only ever sees (params, root, args) -> error.
package runtime

import (
	"context"
	"os"
	"path/filepath"

	"github.com/nativestart-go/launcher/descriptor"
	"github.com/nativestart-go/launcher/launcherrors"
)

// Signal mirrors the two lifecycle events the embedded runtime reports back
// to the orchestrator: application_visible (once the splash can be hidden)
// and application_terminated (once the runtime's main method returns).
type Signal int

const (
	SignalVisible Signal = iota
	SignalTerminated
)

func (s Signal) String() string {
	switch s {
	case SignalVisible:
		return "application_visible"
	case SignalTerminated:
		return "application_terminated"
	default:
		return "unknown"
	}
}

// Embed loads the runtime library described by params, rooted at root, and
// runs its main entry point to completion. args are forwarded verbatim as
// the child's String[] argv. signals receives SignalVisible once the
// runtime's optional awaitUI hook returns (or immediately if the hook is
// absent) and SignalTerminated once main returns; it is never closed by
// Embed, since the orchestrator owns its lifetime.
//
// ctx is checked once, before the runtime library is located; it is not
// consulted again, so cancelling it interrupts neither the library load nor
// the synchronous call into the runtime's main method.
func Embed(ctx context.Context, params descriptor.JvmParameters, root string, args []string, signals chan<- Signal) error {
	if err := ctx.Err(); err != nil {
		return launcherrors.Wrap(launcherrors.RuntimeExecution, err, "context cancelled before runtime embed")
	}

	libPath := filepath.Join(root, params.JvmPath, params.JvmLibrary)
	if _, err := os.Stat(libPath); err != nil {
		return launcherrors.Wrap(launcherrors.RuntimeExecution, err, "jvm library not found at %s", libPath)
	}

	if err := os.Chdir(root); err != nil {
		return launcherrors.Wrap(launcherrors.RuntimeExecution, err, "changing to installation root %s", root)
	}

	if err := embedImpl(libPath, params, args, signals); err != nil {
		return launcherrors.Wrap(launcherrors.RuntimeExecution, err, "embedding runtime from %s", libPath)
	}
	return nil
}
