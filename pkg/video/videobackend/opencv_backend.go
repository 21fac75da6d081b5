package videobackend

import (
	"sync"
	"time"

	"github.com/tauraamui/swingcam/pkg/configdef"
	"github.com/tauraamui/swingcam/pkg/log"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

type videoCapturable interface {
	IsOpened() bool
	Set(gocv.VideoCaptureProperties, float64)
	Get(gocv.VideoCaptureProperties) float64
	Read(*gocv.Mat) bool
	Close() error
}

type videoWriteable interface {
	IsOpened() bool
	Write(gocv.Mat) error
	Close() error
}

// OpenCV resolves a generic driver camera. Limited control compared
// to the Pi path: no global shutter, no manual exposure.
func OpenCV() (Backend, error) {
	vc, err := openVideoCapture(0)
	if err != nil {
		return nil, xerror.Errorf("unable to open video capture device: %w", err)
	}
	if !vc.IsOpened() {
		vc.Close() //nolint
		return nil, xerror.New("no video capture device detected")
	}
	vc.Close() //nolint
	return &openCVBackend{}, nil
}

var openVideoCapture = func(device interface{}) (videoCapturable, error) {
	return gocv.OpenVideoCapture(device)
}

var openVideoWriter = func(filename, codec string, fps float64, width, height int, isColor bool) (videoWriteable, error) {
	return gocv.VideoWriterFile(filename, codec, fps, width, height, isColor)
}

var readFromVideoCapture = func(vc videoCapturable, mat *gocv.Mat) bool {
	if vc.IsOpened() {
		return vc.Read(mat)
	}
	return false
}

// Codecs tried in order of browser playability.
var preferredCodecs = []string{"avc1", "H264", "h264", "X264", "mp4v"}

type openCVBackend struct {
	mu         sync.Mutex
	config     configdef.Values
	configured bool
	running    bool
	closed     bool
	vc         videoCapturable
	writer     videoWriteable
}

func (b *openCVBackend) Setup(config configdef.Values) error {
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

	vc, err := openVideoCapture(0)
	if err != nil {
		return configErrorf("unable to open capture device: %v", err)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(config.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(config.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(config.FPS))

	if b.vc != nil {
		b.vc.Close() //nolint
	}
	b.vc = vc
	b.config = config
	b.configured = true

	log.Info(
		"OpenCV camera configured: %dx%d @ %dfps",
		int(vc.Get(gocv.VideoCaptureFrameWidth)),
		int(vc.Get(gocv.VideoCaptureFrameHeight)),
		int(vc.Get(gocv.VideoCaptureFPS)),
	)
	log.Warn("OpenCV backend has limited control: global shutter and manual exposure unavailable")
	return nil
}

func (b *openCVBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.running {
		return nil
	}
	if !b.configured {
		return configErrorf("cannot start unconfigured backend")
	}
	b.running = true
	log.Info("OpenCV camera started")
	return nil
}

func (b *openCVBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return nil
	}
	b.stopLocked()
	log.Info("OpenCV camera stopped")
	return nil
}

func (b *openCVBackend) stopLocked() {
	if b.writer != nil {
		b.writer.Close() //nolint
		b.writer = nil
	}
	b.running = false
}

func (b *openCVBackend) Record(outputPath string, duration time.Duration, cancel <-chan struct{}) (string, error) {
	b.mu.Lock()
	if b.closed || !b.configured || b.vc == nil {
		b.mu.Unlock()
		return "", recordErrorf("backend not configured")
	}
	vc := b.vc
	config := b.config
	b.mu.Unlock()

	outputPath = normalizeOutputPath(outputPath)

	writer, err := openWriterWithCodecFallback(outputPath, config)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	b.writer = writer
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		if b.writer != nil {
			b.writer.Close() //nolint
			b.writer = nil
		}
		b.mu.Unlock()
	}()

	// Frames are read on their own goroutine so a slow or stalled
	// frame delivery never delays cancellation: the select below
	// observes the cancel signal regardless of frame rate. The reader
	// drains itself in the background once stop closes.
	stop := make(chan struct{})
	defer close(stop)
	frames := readFrames(vc, stop)

	frameCount := 0
	deadline := time.After(duration)
	start := time.Now()
	for {
		select {
		case <-cancel:
			log.Info("Recording cancelled after %.1fs (shot detected)", time.Since(start).Seconds())
			return outputPath, nil
		case <-deadline:
			log.Info("Recorded %d frames at %dfps - preserving all frames", frameCount, config.FPS)
			return outputPath, nil
		case mat, ok := <-frames:
			if !ok {
				if frameCount == 0 {
					return "", recordErrorf("unable to read from capture device")
				}
				log.Warn("Failed to read frame")
				log.Info("Recorded %d frames at %dfps - preserving all frames", frameCount, config.FPS)
				return outputPath, nil
			}

			err := writer.Write(mat)
			mat.Close()
			if err != nil {
				return "", recordErrorf("unable to write frame: %v", err)
			}
			frameCount++
		}
	}
}

// readFrames pumps frames from the capture device until a read fails
// or stop closes. Empty frames are skipped. The returned channel
// closes when the device stops producing.
func readFrames(vc videoCapturable, stop <-chan struct{}) <-chan gocv.Mat {
	frames := make(chan gocv.Mat)
	go func() {
		defer close(frames)
		for {
			select {
			case <-stop:
				return
			default:
			}

			mat := gocv.NewMat()
			if ok := readFromVideoCapture(vc, &mat); !ok {
				mat.Close()
				return
			}
			if mat.Empty() {
				mat.Close()
				continue
			}

			select {
			case frames <- mat:
			case <-stop:
				mat.Close()
				return
			}
		}
	}()
	return frames
}

func openWriterWithCodecFallback(outputPath string, config configdef.Values) (videoWriteable, error) {
	for _, codec := range preferredCodecs {
		writer, err := openVideoWriter(
			outputPath, codec, float64(config.FPS), config.Width, config.Height, true,
		)
		if err != nil {
			continue
		}
		if writer.IsOpened() {
			if codec == "mp4v" {
				log.Warn("Using mp4v codec - may not play in all browsers")
			} else {
				log.Info("Using codec: %s", codec)
			}
			return writer, nil
		}
		writer.Close() //nolint
	}
	return nil, recordErrorf("no usable video writer codec found")
}

func (b *openCVBackend) Cleanup() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.stopLocked()
	if b.vc != nil {
		b.vc.Close() //nolint
		b.vc = nil
	}
	b.configured = false
	b.closed = true
	return nil
}

func (b *openCVBackend) Name() string {
	return "OpenCV (Generic Camera)"
}
