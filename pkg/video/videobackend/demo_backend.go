package videobackend

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/spf13/afero"
	"github.com/tauraamui/swingcam/pkg/configdef"
	"github.com/tauraamui/swingcam/pkg/log"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Demo is the hardware-free backend. Always constructible, used for
// UI and state machine testing when no camera is attached.
func Demo() Backend {
	return &demoBackend{}
}

type demoBackend struct {
	mu         sync.Mutex
	config     configdef.Values
	configured bool
	running    bool
	closed     bool
}

func (b *demoBackend) Setup(config configdef.Values) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return configErrorf("backend already cleaned up")
	}

	if config.Width <= 0 || config.Height <= 0 || config.FPS <= 0 {
		return configErrorf("width, height and fps must all be positive")
	}

	if b.running {
		b.running = false
	}

	b.config = config
	b.configured = true
	log.Info("Demo camera configured: %s @ %dfps", config.Resolution(), config.FPS)
	return nil
}

func (b *demoBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.running {
		return nil
	}
	if !b.configured {
		return configErrorf("cannot start unconfigured backend")
	}
	b.running = true
	log.Info("Demo camera started (simulated)")
	return nil
}

func (b *demoBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return nil
	}
	b.running = false
	log.Info("Demo camera stopped (simulated)")
	return nil
}

func (b *demoBackend) Record(outputPath string, duration time.Duration, cancel <-chan struct{}) (string, error) {
	b.mu.Lock()
	if b.closed || !b.configured {
		b.mu.Unlock()
		return "", recordErrorf("backend not configured")
	}
	config := b.config
	b.mu.Unlock()

	log.Info("Demo recording for %.0fs (simulated)", duration.Seconds())
	outputPath = normalizeOutputPath(outputPath)

	if writeSyntheticVideo(outputPath, config, duration, cancel) {
		return outputPath, nil
	}

	// No usable encoder: write a placeholder and sleep the duration
	// out so timing behavior still matches a real capture.
	if err := writePlaceholderFile(outputPath, config, duration); err != nil {
		return "", recordErrorf("unable to write placeholder recording: %v", err)
	}
	sleepWithCancel(duration, cancel)
	log.Warn("Demo mode: no encoder available, created placeholder file")
	return outputPath, nil
}

func (b *demoBackend) Cleanup() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.running = false
	b.configured = false
	b.closed = true
	log.Info("Demo camera cleaned up (simulated)")
	return nil
}

func (b *demoBackend) Name() string {
	return "Demo Mode (No Camera)"
}

func sleepWithCancel(duration time.Duration, cancel <-chan struct{}) {
	start := time.Now()
	ticker := time.NewTicker(CancelPollInterval)
	defer ticker.Stop()
	for time.Since(start) < duration {
		select {
		case <-cancel:
			return
		case <-ticker.C:
		}
	}
}

// writeSyntheticVideo renders an animated marker with a text overlay
// into a real video file, so downstream trimming and playback behave
// exactly as with footage from a camera.
func writeSyntheticVideo(outputPath string, config configdef.Values, duration time.Duration, cancel <-chan struct{}) bool {
	writer, err := openVideoWriter(
		outputPath, "mp4v", float64(config.FPS), config.Width, config.Height, true,
	)
	if err != nil || !writer.IsOpened() {
		if writer != nil {
			writer.Close() //nolint
		}
		return false
	}
	defer writer.Close() //nolint

	numFrames := int(float64(config.FPS) * duration.Seconds())
	lastPoll := time.Now()
	for i := 0; i < numFrames; i++ {
		if time.Since(lastPoll) >= CancelPollInterval {
			lastPoll = time.Now()
			select {
			case <-cancel:
				log.Info("Demo recording cancelled at frame %d", i)
				return true
			default:
			}
		}

		frame := renderDemoFrame(config.Width, config.Height, i, numFrames)
		mat, err := gocv.ImageToMatRGB(frame)
		if err != nil {
			log.Error("unable to convert demo frame to mat: %v", err)
			return true
		}
		writer.Write(mat) //nolint
		mat.Close()
	}

	log.Info("Created demo video with %d frames at %dfps", numFrames, config.FPS)
	return true
}

func renderDemoFrame(width, height, index, total int) image.Image {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	progress := 0.0
	if total > 0 {
		progress = float64(index) / float64(total)
	}

	centerX := float64(width) * (0.2 + 0.6*progress)
	centerY := float64(height) / 2
	radius := float64(minInt(width, height)) / 8
	marker := circle{X: centerX, Y: centerY, R: radius}

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			canvas.Set(x, y, color.RGBA{0, marker.Brightness(float64(x), float64(y)), 0, 255})
		}
	}

	if err := drawText(canvas, 10, 50, fmt.Sprintf("DEMO MODE - Frame %d/%d", index+1, total)); err != nil {
		log.Debug("unable to draw demo frame overlay: %v", err)
	}

	return canvas
}

func drawText(canvas *image.RGBA, x, y int, text string) error {
	fontFace, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return err
	}

	fontDrawer := &font.Drawer{
		Dst: canvas,
		Src: image.White,
		Face: truetype.NewFace(fontFace, &truetype.Options{
			Size:    32.0,
			Hinting: font.HintingFull,
		}),
	}
	fontDrawer.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	fontDrawer.DrawString(text)
	return nil
}

type circle struct {
	X, Y, R float64
}

func (c circle) Brightness(x, y float64) uint8 {
	dx, dy := c.X-x, c.Y-y
	if (dx*dx + dy*dy) > c.R*c.R {
		return 0
	}
	return 255
}

func writePlaceholderFile(outputPath string, config configdef.Values, duration time.Duration) error {
	content := fmt.Sprintf(
		"DEMO VIDEO FILE - Generated in demo mode\nWould have recorded: %s @ %dfps\nDuration: %.0fs\n",
		config.Resolution(), config.FPS, duration.Seconds(),
	)
	return afero.WriteFile(fs, outputPath, []byte(content), 0644)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
