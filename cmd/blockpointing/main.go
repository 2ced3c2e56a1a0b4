// Package main is the block pointing service binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/blockpointing/config"
	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/pipeline"
	"go.viam.com/blockpointing/rimage"
	"go.viam.com/blockpointing/sensor"
	"go.viam.com/blockpointing/sensor/fake"
	"go.viam.com/blockpointing/vision"
	"go.viam.com/blockpointing/vision/projection"
	"go.viam.com/blockpointing/web/server"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var logger logging.Logger
	return &cli.App{
		Name:  "blockpointing",
		Usage: "find blocks on a table and the one being pointed at",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logger = logging.NewDebugLogger("blockpointing")
			} else {
				logger = logging.NewLogger("blockpointing")
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if logger == nil {
				return nil
			}
			utils.UncheckedError(logger.Sync())
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the pipeline stages over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "load configuration from `FILE`",
					},
				},
				Action: func(c *cli.Context) error {
					cfg := config.Default()
					if path := c.String("config"); path != "" {
						var err error
						if cfg, err = config.Read(path, logger); err != nil {
							return err
						}
					}
					if c.Bool("debug") {
						cfg.LogLevel = logging.DEBUG.String()
						if err := cfg.Validate(""); err != nil {
							return err
						}
					}
					ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()
					return server.RunServer(ctx, cfg, logger)
				},
			},
			{
				Name:      "detect",
				Usage:     "detect blocks in a color image, optionally projecting them with a depth image",
				ArgsUsage: "<color image>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "depth", Usage: "16 bit depth `PNG` registered to the color image"},
					&cli.IntFlag{Name: "window-radius", Value: projection.DefaultWindowRadius, Usage: "projection search half width"},
					&cli.StringFlag{Name: "mode", Value: vision.CameraSpace.String(), Usage: "camera_space or depth_space"},
					&cli.StringFlag{Name: "annotate", Usage: "write the color image with every block marked to `FILE`"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("detect requires exactly one color image")
					}
					return detect(c, logger)
				},
			},
		},
	}
}

func detect(c *cli.Context, logger logging.Logger) (err error) {
	s, err := fake.NewSensorFromConfig(&fake.Config{
		ColorImagePath: c.Args().First(),
		DepthImagePath: c.String("depth"),
	}, logger)
	if err != nil {
		return err
	}
	sensors := sensor.NewContext(s, 5*time.Second, nil, logger)
	defer func() {
		utils.UncheckedError(sensors.Close(context.Background()))
	}()

	cfg := config.Default()
	cfg.Projection.WindowRadius = c.Int("window-radius")
	cfg.Projection.Mode = c.String("mode")
	cfg.Projection.Disabled = c.String("depth") == ""
	if err := cfg.Validate(""); err != nil {
		return err
	}

	var projector *projection.Projector
	if !cfg.Projection.Disabled {
		if projector, err = projection.NewProjector(cfg.Projection.WindowRadius, cfg.Projection.Space(), logger); err != nil {
			return err
		}
	}
	stage := pipeline.NewDetectionStage(sensors, cfg.Segmentation.Segmenter(), projector, logger)
	blocks, err := stage.Detect(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, vision.BlocksTable(blocks))

	if path := c.String("annotate"); path != "" {
		img, err := sensors.AcquireColor(c.Context)
		if err != nil {
			return err
		}
		return rimage.WriteImageToFile(path, annotate(img, blocks))
	}
	return nil
}
