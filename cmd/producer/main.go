// Command producer runs the camera/gimbal side of a session: it accepts
// one control-channel connection and one data-channel handshake at a
// time, streaming compressed JPEG frames out and applying pointer-
// translated gimbal angles as they arrive, looping Draining->Idle
// forever so a new viewer can reconnect.
package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gimbalcam/streamer/internal/camio"
	"github.com/gimbalcam/streamer/internal/config"
	"github.com/gimbalcam/streamer/internal/metrics"
	"github.com/gimbalcam/streamer/internal/producerpipe"
	"github.com/gimbalcam/streamer/internal/session"
	"github.com/gimbalcam/streamer/internal/transport"
)

func main() {
	var (
		cfgPath       string
		host          string
		dataPort      int
		statusPort    int
		width, height int
		fps           int
		maxPacketSize int
		logGimbal     bool
		listCameras   bool
	)

	root := &cobra.Command{
		Use:   "producer",
		Short: "Stream camera frames and accept gimbal commands over a dual-channel session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listCameras {
				devices := camio.DiscoverCameras()
				if len(devices) == 0 {
					fmt.Println("no V4L2 video-capture devices found")
					return nil
				}
				for _, d := range devices {
					fmt.Println(d)
				}
				return nil
			}

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("producer: %w", err)
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
			if flags.Changed("fps") {
				cfg.FPS = fps
			}
			if flags.Changed("max-packet-size") {
				cfg.MaxPacketSize = maxPacketSize
			}

			if ok, warnings := cfg.Validate(); !ok {
				for _, w := range warnings {
					log.Printf("[Config] %s", w)
				}
				return fmt.Errorf("producer: invalid configuration")
			}

			cleanup, err := config.ConfigureLogging(cfg)
			if err != nil {
				return fmt.Errorf("producer: %w", err)
			}
			defer cleanup()

			return run(cfg, logGimbal)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config.ini")
	root.Flags().StringVar(&host, "host", "", "override bind host")
	root.Flags().IntVar(&dataPort, "data-port", 0, "override data (UDP) port")
	root.Flags().IntVar(&statusPort, "status-port", 0, "override control (TCP) port")
	root.Flags().IntVar(&width, "width", 0, "override capture width")
	root.Flags().IntVar(&height, "height", 0, "override capture height")
	root.Flags().IntVar(&fps, "fps", 0, "override capture fps")
	root.Flags().IntVar(&maxPacketSize, "max-packet-size", 0, "override max UDP payload size")
	root.Flags().BoolVar(&logGimbal, "log-gimbal", false, "log gimbal commands instead of driving GPIO servos")
	root.Flags().BoolVar(&listCameras, "list-cameras", false, "list available V4L2 video-capture devices and exit")

	if err := root.Execute(); err != nil {
		log.Fatalf("[Producer] %v", err)
	}
}

func run(cfg *config.Config, logGimbal bool) error {
	sessionID := uuid.New().String()
	log.Printf("[Producer] starting, session id %s, %s (data=%d status=%d %dx%d@%dfps)",
		sessionID, cfg.Host, cfg.DataPort, cfg.StatusPort, cfg.Width, cfg.Height, cfg.FPS)

	reg := metrics.NewRegistry("gimbalcam_producer")
	if cfg.MetricsEnabled {
		go serveMetrics(cfg.MetricsAddr, reg)
	}
	go session.RunHealthLoop(make(chan struct{}), time.Duration(cfg.HealthLogIntervalSec*float64(time.Second)), reg)

	controlListener, err := transport.ListenControl(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.StatusPort)))
	if err != nil {
		return fmt.Errorf("producer: listen control: %w", err)
	}
	defer controlListener.Close()

	dataEndpoint, err := transport.ListenData(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.DataPort)))
	if err != nil {
		return fmt.Errorf("producer: listen data: %w", err)
	}
	defer dataEndpoint.Close()

	camera := camio.NewV4L2Camera(cfg.CameraDevice, cfg.CameraFormat)
	defer camera.Close()

	gim, err := openGimbal(cfg, logGimbal)
	if err != nil {
		return fmt.Errorf("producer: gimbal: %w", err)
	}

	codec := camio.NewJPEGCodec(80)
	compressor := camio.NewZlibCompressor(6)

	for {
		if err := serveOneSession(cfg, controlListener, dataEndpoint, camera, gim, codec, compressor, reg); err != nil {
			log.Printf("[Producer] session ended: %v", err)
		}
	}
}

func openGimbal(cfg *config.Config, logGimbal bool) (camio.Gimbal, error) {
	if logGimbal {
		return &camio.LoggingGimbal{}, nil
	}
	g, err := camio.NewPiGPIOGimbal(cfg.GimbalXPin, cfg.GimbalYPin)
	if err != nil {
		log.Printf("[Gimbal] falling back to logging gimbal: %v", err)
		return &camio.LoggingGimbal{}, nil
	}
	return g, nil
}

// serveOneSession runs the supervisor through one full Idle->Active->
// Draining->Idle cycle for a single viewer, then returns so the caller's
// loop can accept the next one.
func serveOneSession(cfg *config.Config, controlListener *transport.ControlListener, dataEndpoint *transport.DataEndpoint, camera camio.Camera, gim camio.Gimbal, codec camio.Codec, compressor camio.Compressor, reg *metrics.Registry) error {
	sup := session.NewSupervisor(func() {
		log.Printf("[Session] reset, ready for next viewer")
	})
	session.WireMetrics(sup, reg)

	if err := sup.Start(); err != nil {
		return err
	}

	control, err := controlListener.Accept()
	if err != nil {
		sup.Fail(err)
		return sup.FinishDraining()
	}
	defer control.Close()
	if err := sup.ControlEstablished(); err != nil {
		sup.Fail(err)
		return sup.FinishDraining()
	}

	width, height, err := dataEndpoint.AwaitHandshake()
	if err != nil {
		sup.Fail(err)
		return sup.FinishDraining()
	}
	if width == 0 {
		width, height = cfg.Width, cfg.Height
	}
	if err := sup.DataEstablished(); err != nil {
		sup.Fail(err)
		return sup.FinishDraining()
	}

	pcfg := producerpipe.DefaultConfig()
	pcfg.Width, pcfg.Height, pcfg.FPS = width, height, cfg.FPS
	pcfg.MaxPacketSize = cfg.MaxPacketSize

	pipe := producerpipe.New(pcfg, camera, gim, codec, compressor, control, dataEndpoint, sup, reg)

	runErr := pipe.Run()
	sup.Fail(runErr)
	if err := gim.Apply(0, 0); err != nil {
		log.Printf("[Gimbal] recenter on reset failed: %v", err)
	}
	return sup.FinishDraining()
}

func serveMetrics(addr string, reg *metrics.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	log.Printf("[Metrics] serving on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("[Metrics] server stopped: %v", err)
	}
}
