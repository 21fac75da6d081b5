package videobackend

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/tauraamui/swingcam/pkg/configdef"
	"github.com/tauraamui/swingcam/pkg/log"
)

var fs = afero.NewOsFs()

// CancelPollInterval bounds the worst case latency between a cancel
// signal being raised and an in-flight Record call returning.
const CancelPollInterval = 100 * time.Millisecond

var (
	ErrConfiguration = errors.New("configuration rejected")
	ErrRecord        = errors.New("recording failed")
)

// Backend is a live hardware/software capture session. A backend is
// owned exclusively by a single controller for its whole lifetime.
// Transitions: uninitialized -> configured (Setup) -> running (Start)
// -> configured (Stop) -> closed (Cleanup).
type Backend interface {
	// Setup applies the given configuration. Idempotent while
	// stopped; tears down any running session first. Failure wraps
	// ErrConfiguration and leaves the backend in its pre-call state.
	Setup(configdef.Values) error
	// Start transitions configured -> running. No-op if running.
	Start() error
	// Stop transitions running -> configured, releasing any
	// in-flight writer resources. No-op if already stopped.
	Stop() error
	// Record blocks writing frames to outputPath for up to the given
	// duration, observing cancel within CancelPollInterval and
	// returning early with whatever has been written so far intact.
	// Returns the actual output path used, which may differ from the
	// requested one where the container extension is normalized.
	// Failures wrap ErrRecord; partial output is never deleted here.
	Record(outputPath string, duration time.Duration, cancel <-chan struct{}) (string, error)
	// Cleanup releases all resources. Safe to call repeatedly; the
	// backend is unusable afterward.
	Cleanup() error
	Name() string
}

// Select probes for the best available backend in priority order:
// global shutter Pi camera, then a generic driver camera, then the
// hardware-free demo backend. Probe failures are logged and skipped,
// never surfaced; the demo backend is always constructible.
func Select(forceDemo bool) Backend {
	if forceDemo {
		log.Info("Demo mode forced")
		return Demo()
	}

	backend, err := PiCamera()
	if err == nil {
		log.Info("PiCamera available - using global shutter camera")
		return backend
	}
	log.Info("PiCamera not available: %v", err)

	backend, err = OpenCV()
	if err == nil {
		log.Info("OpenCV camera available - using generic camera")
		return backend
	}
	log.Info("OpenCV camera not available: %v", err)

	log.Info("No camera hardware detected - using demo mode")
	return Demo()
}

// normalizeOutputPath rewrites a raw codec extension to the
// browser-playable container the backends actually produce.
func normalizeOutputPath(path string) string {
	if strings.HasSuffix(path, ".h264") {
		return strings.TrimSuffix(path, ".h264") + ".mp4"
	}
	return path
}

func recordErrorf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrRecord, fmt.Sprintf(format, a...))
}

func configErrorf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, a...))
}
