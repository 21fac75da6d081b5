package swing

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/tauraamui/swingcam/pkg/configdef"
	"github.com/tauraamui/swingcam/pkg/log"
	"github.com/tauraamui/swingcam/pkg/video/videobackend"
	"github.com/tauraamui/swingcam/pkg/video/videoclip"
)

var fs = afero.NewOsFs()

// LMState is the launch monitor state machine's current position.
type LMState string

const (
	LMIdle       LMState = "idle"
	LMArmed      LMState = "armed"
	LMProcessing LMState = "processing"
)

// workerJoinTimeout bounds how long ShotDetected and Cancel block
// waiting for the continuous recording worker to observe the cancel
// signal and return. Past the bound they proceed best-effort.
const workerJoinTimeout = 5 * time.Second

type ArmResult struct {
	Status      string `json:"status"`
	MaxDuration int    `json:"max_duration"`
}

type ShotResult struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

type CancelResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type LMStatus struct {
	State             LMState `json:"state"`
	RecordingDuration float64 `json:"recording_duration"`
	MaxDuration       int     `json:"max_duration"`
}

// Controller owns the single backend instance for its whole process
// lifetime and mediates every recording operation on it. Single-shot
// capture and launch monitor activity are mutually exclusive; the
// long-running Record calls themselves run outside the controller
// lock so Status reads never starve.
type Controller struct {
	mu       sync.Mutex
	config   configdef.Values
	backend  videobackend.Backend
	uploader Uploader

	recording bool

	lmState      LMState
	lmSessionID  string
	lmTempFile   string
	lmArmedAt    time.Time
	lmCancel     chan struct{}
	lmCancelOnce *sync.Once
	lmDone       chan struct{}
}

// NewController configures the given backend and takes ownership of
// it. The output directory is created if missing.
func NewController(config configdef.Values, backend videobackend.Backend) (*Controller, error) {
	if err := fs.MkdirAll(config.OutputDir, os.ModeDir|os.ModePerm); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}

	log.Info("Using camera backend: %s", backend.Name())
	if err := backend.Setup(config); err != nil {
		return nil, err
	}

	return &Controller{
		config:   config,
		backend:  backend,
		uploader: newUploader(config),
		lmState:  LMIdle,
	}, nil
}

func (c *Controller) Start() error {
	return c.backend.Start()
}

func (c *Controller) Stop() error {
	return c.backend.Stop()
}

// Config returns the controller's configuration snapshot.
func (c *Controller) Config() configdef.Values {
	return c.config
}

// IsRecording reports whether any recording, single-shot or launch
// monitor, is currently writing through the backend.
func (c *Controller) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

func (c *Controller) BackendName() string {
	return c.backend.Name()
}

// CaptureSwing records a single clip of the configured duration.
// Fails with ErrBusy, with no side effects, if any recording or
// launch monitor activity is in progress.
func (c *Controller) CaptureSwing(customName string) (string, error) {
	c.mu.Lock()
	if c.recording {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: already recording", ErrBusy)
	}
	if c.lmState != LMIdle {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: launch monitor is %s", ErrBusy, c.lmState)
	}
	c.recording = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.recording = false
		c.mu.Unlock()
	}()

	ts := videoclip.Timestamp()
	name := customName
	if len(name) == 0 {
		name = videoclip.SwingName(ts)
	}

	outputPath := videoclip.SwingPath(c.config.OutputDir, name, c.config.Format)
	log.Info("Starting recording: %s", outputPath)

	actualPath, err := c.backend.Record(outputPath, time.Duration(c.config.Duration)*time.Second, nil)
	if err != nil {
		log.Error("Recording failed: %v", err)
		return "", err
	}

	log.Info("Recording complete: %s", actualPath)

	if _, err := WriteMetadata(actualPath, ts, c.config); err != nil {
		// The capture itself succeeded; a sidecar failure is not
		// allowed to fail the call.
		log.Error("Failed to save metadata: %v", err)
	}

	if c.config.UploadEnabled {
		c.uploader.Upload(actualPath)
	}

	return actualPath, nil
}

// Arm starts a continuous recording of up to the configured maximum
// duration and returns immediately. The recording runs on a
// background worker until a shot is signalled, the monitor is
// cancelled, or the maximum duration elapses.
func (c *Controller) Arm() (ArmResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lmState != LMIdle {
		log.Warn("Cannot arm: already in state %s", c.lmState)
		return ArmResult{}, fmt.Errorf("%w: already %s", ErrBusy, c.lmState)
	}
	if c.recording {
		log.Warn("Cannot arm: regular recording in progress")
		return ArmResult{}, fmt.Errorf("%w: camera busy with regular recording", ErrBusy)
	}

	ts := videoclip.Timestamp()
	c.lmTempFile = videoclip.TempMonitorPath(c.config.OutputDir, c.config.Format, ts)
	c.lmState = LMArmed
	c.lmArmedAt = time.Now()
	c.lmSessionID = uuid.NewString()
	c.lmCancel = make(chan struct{})
	c.lmCancelOnce = &sync.Once{}
	c.lmDone = make(chan struct{})

	go c.continuousRecord(c.lmSessionID, c.lmTempFile, c.lmCancel, c.lmDone)

	log.Info("Launch monitor armed [session %s], recording to %s", c.lmSessionID, c.lmTempFile)
	return ArmResult{
		Status:      "armed",
		MaxDuration: c.config.LMMaxRecordingDuration,
	}, nil
}

// ShotDetected stops the continuous recording and extracts the final
// configured-duration window from it into a finished recording.
func (c *Controller) ShotDetected() (ShotResult, error) {
	c.mu.Lock()
	if c.lmState != LMArmed {
		state := c.lmState
		c.mu.Unlock()
		log.Warn("Cannot detect shot: not armed (state: %s)", state)
		return ShotResult{}, fmt.Errorf("%w: state is %s", ErrNotArmed, state)
	}

	log.Info("Shot detected, stopping recording and extracting clip...")
	c.lmState = LMProcessing
	c.raiseCancelLocked()
	done := c.lmDone
	c.mu.Unlock()

	waitForWorker(done)

	c.mu.Lock()
	tempFile := c.lmTempFile
	c.mu.Unlock()

	ts := videoclip.Timestamp()
	name := videoclip.SwingName(ts)
	outputPath := filepath.Join(c.config.OutputDir, name+filepath.Ext(tempFile))
	duration := time.Duration(c.config.Duration) * time.Second

	if len(tempFile) == 0 || !extractTail(tempFile, outputPath, duration) {
		// Never leave the machine stuck in processing; the temp
		// file, if any survived, is left for manual cleanup.
		c.mu.Lock()
		c.lmState = LMIdle
		c.clearTransientLocked()
		c.mu.Unlock()
		return ShotResult{}, fmt.Errorf("%w: unable to extract final clip", ErrExtraction)
	}

	if _, err := WriteMetadata(outputPath, ts, c.config); err != nil {
		log.Error("Failed to save metadata: %v", err)
	}

	if c.config.UploadEnabled {
		c.uploader.Upload(outputPath)
	}

	log.Info("Clip extracted successfully: %s", outputPath)

	c.mu.Lock()
	c.lmState = LMIdle
	c.clearTransientLocked()
	c.mu.Unlock()

	return ShotResult{
		Status:   "success",
		Filename: filepath.Base(outputPath),
		Path:     outputPath,
	}, nil
}

var extractTail = func(inputPath, outputPath string, duration time.Duration) bool {
	return videoclip.ExtractTail(inputPath, outputPath, duration)
}

// Cancel abandons any launch monitor activity and deletes the temp
// recording. Idempotent: cancelling from idle reports "already idle".
func (c *Controller) Cancel() CancelResult {
	c.mu.Lock()
	if c.lmState == LMIdle {
		c.mu.Unlock()
		return CancelResult{Status: "ok", Message: "Already idle"}
	}

	log.Info("Cancelling launch monitor recording...")
	c.raiseCancelLocked()
	c.lmState = LMIdle
	done := c.lmDone
	c.mu.Unlock()

	waitForWorker(done)

	c.mu.Lock()
	c.removeTempFileLocked()
	c.clearTransientLocked()
	c.mu.Unlock()

	return CancelResult{Status: "cancelled"}
}

// Status is a pure read of the launch monitor: current state,
// elapsed seconds since arming and the configured maximum window.
func (c *Controller) Status() LMStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	var elapsed float64
	if !c.lmArmedAt.IsZero() {
		elapsed = time.Since(c.lmArmedAt).Seconds()
	}

	return LMStatus{
		State:             c.lmState,
		RecordingDuration: float64(int(elapsed*100)) / 100,
		MaxDuration:       c.config.LMMaxRecordingDuration,
	}
}

// Shutdown cancels any in-flight launch monitor activity and
// releases the backend. Cleanup failures are logged only.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	active := c.lmState != LMIdle
	c.mu.Unlock()

	if active {
		c.Cancel()
	}

	if err := c.backend.Stop(); err != nil {
		log.Error("Backend stop failed: %v", err)
	}
	if err := c.backend.Cleanup(); err != nil {
		log.Error("Backend cleanup failed: %v", err)
	}
}

// continuousRecord is the launch monitor's background worker. It
// holds the recording flag for the lifetime of the backend Record
// call. Two outcomes: the cancel signal was raised and the temp file
// is left for ShotDetected/Cancel to consume, or the maximum window
// elapsed and the worker itself performs the idle transition and
// temp file deletion. That transition races explicit cancellation,
// so every cleanup step checks before acting.
func (c *Controller) continuousRecord(session, tempFile string, cancel <-chan struct{}, done chan struct{}) {
	defer close(done)

	c.mu.Lock()
	c.recording = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.recording = false
		c.mu.Unlock()
	}()

	maxDuration := time.Duration(c.config.LMMaxRecordingDuration) * time.Second
	log.Info("Starting continuous recording (max %.0fs)", maxDuration.Seconds())

	actualPath, err := c.backend.Record(tempFile, maxDuration, cancel)
	if err != nil {
		log.Error("Continuous recording failed: %v", err)
		c.mu.Lock()
		if c.lmSessionID == session {
			c.lmState = LMIdle
			c.clearTransientLocked()
		}
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	if c.lmSessionID == session && len(c.lmTempFile) > 0 {
		// Backends may normalize the extension; track what was
		// really written so extraction and deletion find it.
		c.lmTempFile = actualPath
	}
	c.mu.Unlock()

	select {
	case <-cancel:
		log.Info("Continuous recording cancelled")
	default:
		log.Warn("Launch monitor timeout (%.0fs) - cancelling", maxDuration.Seconds())
		c.mu.Lock()
		if c.lmSessionID == session {
			c.lmState = LMIdle
			c.removeTempFileLocked()
			c.clearTransientLocked()
		}
		c.mu.Unlock()
	}
}

func (c *Controller) raiseCancelLocked() {
	if c.lmCancelOnce == nil {
		return
	}
	cancel := c.lmCancel
	c.lmCancelOnce.Do(func() { close(cancel) })
}

func (c *Controller) removeTempFileLocked() {
	if len(c.lmTempFile) == 0 {
		return
	}
	exists, err := afero.Exists(fs, c.lmTempFile)
	if err != nil || !exists {
		return
	}
	if err := fs.Remove(c.lmTempFile); err != nil {
		log.Error("Failed to delete temp file %s: %v", c.lmTempFile, err)
		return
	}
	log.Info("Deleted temp file: %s", c.lmTempFile)
}

func (c *Controller) clearTransientLocked() {
	c.lmTempFile = ""
	c.lmArmedAt = time.Time{}
	c.lmSessionID = ""
}

func waitForWorker(done <-chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(workerJoinTimeout):
		log.Warn("Recording worker did not stop within %.0fs, proceeding", workerJoinTimeout.Seconds())
	}
}
