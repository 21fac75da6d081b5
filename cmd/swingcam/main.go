package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tacusci/logging/v2"
	"github.com/takama/daemon"
	"github.com/tauraamui/swingcam/pkg/config"
	"github.com/tauraamui/swingcam/pkg/configdef"
	"github.com/tauraamui/swingcam/pkg/log"
	"github.com/tauraamui/swingcam/pkg/swing"
	"github.com/tauraamui/swingcam/pkg/video/videobackend"
)

const (
	name        = "swingcam"
	description = "High speed golf swing capture daemon"
)

type Service struct {
	daemon.Daemon
}

// Setup writes the default config file if one does not exist yet.
func (service *Service) Setup() (string, error) {
	log.Info("Setting up swingcam service...")

	err := config.DefaultCreator().Create()
	if err != nil {
		if !errors.Is(err, configdef.ErrConfigAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	return "Setup successful...", nil
}

func (service *Service) RemoveSetup() (string, error) {
	log.Info("Removing setup for swingcam service...")
	if err := config.DefaultDestroyer().Destroy(); err != nil {
		log.Error("unable to delete config file: %s", err.Error())
	}

	return "Removing setup successful...", nil
}

func (service *Service) Manage() (string, error) {
	usage := "Usage: swingcam setup | remove-setup | install | remove | start | stop | status"

	if len(os.Args) > 1 {
		command := os.Args[1]
		switch command {
		case "setup":
			return service.Setup()
		case "remove-setup":
			return service.RemoveSetup()
		case "install":
			return service.Install()
		case "remove":
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		default:
			return usage, nil
		}
	}

	values, err := config.DefaultResolver().Resolve()
	if err != nil {
		return "", err
	}

	backend := videobackend.Select(len(os.Getenv("SWINGCAM_DEMO_MODE")) > 0)
	controller, err := swing.NewController(values, backend)
	if err != nil {
		return "", err
	}
	defer controller.Shutdown()

	if err := controller.Start(); err != nil {
		return "", err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	go runTriggerLoop(controller)

	killSignal := <-interrupt
	fmt.Print("\r")
	log.Error("Received signal: %s", killSignal)
	log.Info("Shutting down...")

	return "Shutdown successful... BYE! 👋", nil
}

// runTriggerLoop stands in for the external trigger sources (HTTP
// handler, physical button): plain ENTER captures a single swing,
// named commands drive the launch monitor.
func runTriggerLoop(controller *swing.Controller) {
	fmt.Println("\nGolf Swing Camera Ready!")
	fmt.Printf("Using backend: %s\n", controller.BackendName())
	fmt.Printf("ENTER to record a %ds swing, or: arm | shot | cancel | status | list\n", controller.Config().Duration)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "":
			path, err := controller.CaptureSwing("")
			if err != nil {
				fmt.Printf("recording failed: %v\n", err)
				continue
			}
			fmt.Printf("✓ Recording saved: %s\n", path)
		case "arm":
			result, err := controller.Arm()
			if err != nil {
				fmt.Printf("arm failed: %v\n", err)
				continue
			}
			fmt.Printf("armed, recording up to %ds\n", result.MaxDuration)
		case "shot":
			result, err := controller.ShotDetected()
			if err != nil {
				fmt.Printf("shot failed: %v\n", err)
				continue
			}
			fmt.Printf("✓ Clip saved: %s\n", result.Path)
		case "cancel":
			result := controller.Cancel()
			fmt.Printf("%s %s\n", result.Status, result.Message)
		case "status":
			status := controller.Status()
			fmt.Printf("state: %s, elapsed: %.2fs, max: %ds\n",
				status.State, status.RecordingDuration, status.MaxDuration)
		case "list":
			recordings, err := controller.Recordings()
			if err != nil {
				fmt.Printf("unable to list recordings: %v\n", err)
				continue
			}
			fmt.Printf("Found %d recordings:\n", len(recordings))
			for _, recording := range recordings {
				fmt.Printf("  %s - %.2f MB\n", recording.Name, float64(recording.Size)/1024/1024)
			}
		default:
			fmt.Println("commands: ENTER | arm | shot | cancel | status | list")
		}
	}
}

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Debug("no .env file loaded: %v", err)
	}
	log.ConfigureFromEnv()
}

func main() {
	daemonType := daemon.SystemDaemon
	if runtime.GOOS == "darwin" {
		daemonType = daemon.UserAgent
	}

	srv, err := daemon.New(name, description, daemonType)
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	service := &Service{srv}
	status, err := service.Manage()
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	logging.Info(status) //nolint
}
