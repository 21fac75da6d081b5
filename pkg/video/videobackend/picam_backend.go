package videobackend

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/tauraamui/swingcam/pkg/configdef"
	"github.com/tauraamui/swingcam/pkg/log"
	"github.com/tauraamui/xerror"
)

// PiCamera resolves the global shutter camera path, recording through
// the rpicam-vid hardware encoder. Construction fails if the rpicam
// tooling is missing or enumerates no cameras.
func PiCamera() (Backend, error) {
	if err := probePiCamera(); err != nil {
		return nil, err
	}
	return &piCamBackend{}, nil
}

var lookPath = func(file string) (string, error) {
	return exec.LookPath(file)
}

var enumerateCameras = func() ([]byte, error) {
	return exec.Command("rpicam-still", "--list-cameras").CombinedOutput()
}

func probePiCamera() error {
	if _, err := lookPath("rpicam-vid"); err != nil {
		return xerror.Errorf("rpicam-vid not found: %w", err)
	}

	out, err := enumerateCameras()
	if err != nil {
		return xerror.Errorf("camera enumeration failed: %w", err)
	}

	// rpicam-still reports "No cameras available!" when the tooling is
	// installed but nothing is attached, so a bare substring match on
	// "camera" would accept the failure output too.
	listing := strings.ToLower(string(out))
	if strings.Contains(listing, "no cameras") {
		return xerror.New("no libcamera devices enumerated")
	}
	if !strings.Contains(listing, "available cameras") {
		return xerror.Errorf("unrecognized camera enumeration output: %q", strings.TrimSpace(string(out)))
	}

	return nil
}

type piCamBackend struct {
	mu         sync.Mutex
	config     configdef.Values
	configured bool
	running    bool
	closed     bool
	recordCmd  *exec.Cmd
}

func (b *piCamBackend) Setup(config configdef.Values) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return configErrorf("backend already cleaned up")
	}

	if config.Width <= 0 || config.Height <= 0 || config.FPS <= 0 {
		return configErrorf("width, height and fps must all be positive")
	}

	if b.running {
		b.stopLocked()
	}

	// Sensor level crop must happen before the capture process runs.
	// Best effort only: failure degrades achievable frame rate but
	// never fails setup.
	if !applySensorCrop(config.Width, config.Height) {
		log.Warn("Sensor crop failed for %dx%d", config.Width, config.Height)
		if config.FPS > 60 {
			log.Warn("Will be limited to ~60 FPS")
		}
	}

	if !config.AutoExposure {
		if period := config.FramePeriodMicros(); config.ShutterSpeed > period {
			log.Warn("Shutter time %dus exceeds frame period %dus, clamping", config.ShutterSpeed, period)
			config.ShutterSpeed = period
		}
	}

	b.config = config
	b.configured = true
	log.Info("Camera configured: %s @ %d FPS", config.Resolution(), config.FPS)
	return nil
}

func (b *piCamBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.running {
		return nil
	}
	if !b.configured {
		return configErrorf("cannot start unconfigured backend")
	}
	b.running = true
	log.Info("PiCamera started")
	return nil
}

func (b *piCamBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return nil
	}
	b.stopLocked()
	log.Info("PiCamera stopped")
	return nil
}

func (b *piCamBackend) stopLocked() {
	if b.recordCmd != nil && b.recordCmd.Process != nil {
		killRecordProcess(b.recordCmd)
	}
	b.recordCmd = nil
	b.running = false
}

func (b *piCamBackend) Record(outputPath string, duration time.Duration, cancel <-chan struct{}) (string, error) {
	b.mu.Lock()
	if b.closed || !b.configured {
		b.mu.Unlock()
		return "", recordErrorf("backend not configured")
	}
	config := b.config
	b.mu.Unlock()

	outputPath = normalizeOutputPath(outputPath)

	log.Info("Starting recording at %d FPS (frame duration: %dus)", config.FPS, config.FramePeriodMicros())

	cmd := newRecordCmd("rpicam-vid", rpicamArgs(config, outputPath, duration)...)
	if err := drainCmdStderr(cmd); err != nil {
		return "", recordErrorf("unable to attach to rpicam-vid stderr: %v", err)
	}

	if err := startRecordProcess(cmd); err != nil {
		return "", recordErrorf("unable to start rpicam-vid: %v", err)
	}

	b.mu.Lock()
	b.recordCmd = cmd
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.recordCmd = nil
		b.mu.Unlock()
	}()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	start := time.Now()
	for {
		select {
		case err := <-done:
			if err != nil {
				return "", recordErrorf("rpicam-vid: %v", err)
			}
			log.Info("Recorded at %dfps - all frames preserved", config.FPS)
			return outputPath, nil
		case <-cancel:
			log.Info("Recording cancelled after %.1fs (shot detected)", time.Since(start).Seconds())
			// Interrupt rather than kill so the encoder finalizes
			// the container; whatever was captured stays playable.
			interruptRecordProcess(cmd)
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				killRecordProcess(cmd)
				<-done
			}
			return outputPath, nil
		}
	}
}

func rpicamArgs(config configdef.Values, outputPath string, duration time.Duration) []string {
	args := []string{
		"-t", fmt.Sprintf("%d", duration.Milliseconds()),
		"--width", fmt.Sprintf("%d", config.Width),
		"--height", fmt.Sprintf("%d", config.Height),
		"--framerate", fmt.Sprintf("%d", config.FPS),
		"--codec", "h264",
		"--libav-format", "mp4",
		"--inline",
		"-n",
	}

	if config.AutoExposure {
		args = append(args, "--denoise", "off")
	} else {
		args = append(args,
			"--shutter", fmt.Sprintf("%d", config.ShutterSpeed),
			"--gain", fmt.Sprintf("%.2f", config.AnalogueGain),
			"--awbgains", "1,1",
			"--denoise", "off",
		)
	}

	return append(args, "-o", outputPath)
}

func (b *piCamBackend) Cleanup() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.stopLocked()
	b.configured = false
	b.closed = true
	return nil
}

func (b *piCamBackend) Name() string {
	return "PiCamera (Global Shutter)"
}

var newRecordCmd = func(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

var startRecordProcess = func(cmd *exec.Cmd) error {
	return cmd.Start()
}

var interruptRecordProcess = func(cmd *exec.Cmd) {
	if cmd.Process != nil {
		cmd.Process.Signal(os.Interrupt) //nolint
	}
}

var killRecordProcess = func(cmd *exec.Cmd) {
	if cmd.Process != nil {
		cmd.Process.Kill() //nolint
	}
}

func drainCmdStderr(cmd *exec.Cmd) error {
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := stderr.Read(buf)
			if n > 0 {
				log.Debug("rpicam-vid: %s", string(buf[:n]))
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}
