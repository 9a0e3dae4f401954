// Command consumer connects to a producer, renders the incoming video
// stream in a window, and forwards pointer drags as gimbal commands over
// the control channel.
package main

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gimbalcam/streamer/internal/camio"
	"github.com/gimbalcam/streamer/internal/config"
	"github.com/gimbalcam/streamer/internal/consumerpipe"
	"github.com/gimbalcam/streamer/internal/metrics"
	"github.com/gimbalcam/streamer/internal/session"
	"github.com/gimbalcam/streamer/internal/transport"
	"github.com/gimbalcam/streamer/internal/ui"
)

func main() {
	var (
		cfgPath       string
		host          string
		dataPort      int
		statusPort    int
		width, height int
	)

	root := &cobra.Command{
		Use:   "consumer",
		Short: "Connect to a producer and view its camera stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("consumer: %w", err)
			}

			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Host = host
			}
			if flags.Changed("data-port") {
				cfg.DataPort = dataPort
			}
			if flags.Changed("status-port") {
				cfg.StatusPort = statusPort
			}
			if flags.Changed("width") {
				cfg.Width = width
			}
			if flags.Changed("height") {
				cfg.Height = height
			}

			if ok, warnings := cfg.Validate(); !ok {
				for _, w := range warnings {
					log.Printf("[Config] %s", w)
				}
				return fmt.Errorf("consumer: invalid configuration")
			}

			cleanup, err := config.ConfigureLogging(cfg)
			if err != nil {
				return fmt.Errorf("consumer: %w", err)
			}
			defer cleanup()

			return run(cfg)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config.ini")
	root.Flags().StringVar(&host, "host", "", "override producer host")
	root.Flags().IntVar(&dataPort, "data-port", 0, "override data (UDP) port")
	root.Flags().IntVar(&statusPort, "status-port", 0, "override control (TCP) port")
	root.Flags().IntVar(&width, "width", 0, "override requested frame width")
	root.Flags().IntVar(&height, "height", 0, "override requested frame height")

	if err := root.Execute(); err != nil {
		log.Fatalf("[Consumer] %v", err)
	}
}

func run(cfg *config.Config) error {
	sessionID := uuid.New().String()
	log.Printf("[Consumer] starting, session id %s, connecting to %s (data=%d status=%d)",
		sessionID, cfg.Host, cfg.DataPort, cfg.StatusPort)

	reg := metrics.NewRegistry("gimbalcam_consumer")
	go session.RunHealthLoop(make(chan struct{}), time.Duration(cfg.HealthLogIntervalSec*float64(time.Second)), reg)

	sup := session.NewSupervisor(func() {
		log.Printf("[Session] reset")
	})
	session.WireMetrics(sup, reg)

	if err := sup.Start(); err != nil {
		return err
	}

	control, err := transport.DialControl(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.StatusPort)), transport.DefaultIOTimeout)
	if err != nil {
		sup.Fail(err)
		sup.FinishDraining()
		return fmt.Errorf("consumer: dial control: %w", err)
	}
	defer control.Close()
	if err := sup.ControlEstablished(); err != nil {
		sup.Fail(err)
		sup.FinishDraining()
		return err
	}

	data, err := transport.DialData(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.DataPort)), cfg.Width, cfg.Height, transport.DefaultIOTimeout)
	if err != nil {
		sup.Fail(err)
		sup.FinishDraining()
		return fmt.Errorf("consumer: dial data: %w", err)
	}
	defer data.Close()
	if err := sup.DataEstablished(); err != nil {
		sup.Fail(err)
		sup.FinishDraining()
		return err
	}

	win := ui.NewWindow("Gimbal Cam", cfg.Width, cfg.Height)

	ccfg := consumerpipe.DefaultConfig()
	ccfg.Width, ccfg.Height = cfg.Width, cfg.Height
	ccfg.FrameBufferCapacity = cfg.BufferCapacity
	ccfg.ReassemblyConcurrency = cfg.ReassemblyConcurrency
	ccfg.ReassemblyIdleTimeout = time.Duration(cfg.ReassemblyIdleTimeoutMS) * time.Millisecond

	codec := camio.NewJPEGCodec(80)
	compressor := camio.NewZlibCompressor(6)

	pipe := consumerpipe.New(ccfg, win, codec, compressor, control, data, sup, reg)

	go func() {
		runErr := pipe.Run()
		sup.Fail(runErr)
		sup.FinishDraining()
	}()

	// Fyne's event loop must run on the main goroutine.
	win.Run()
	return nil
}
