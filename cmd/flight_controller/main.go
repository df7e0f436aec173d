// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/relabs-tech/flight_computer/internal/app"
	"github.com/relabs-tech/flight_computer/internal/config"
)

func main() {
	logger := logrus.New()

	cliApp := cli.NewApp()
	cliApp.Name = "flight_controller"
	cliApp.Usage = "run the attitude estimator, controller and motor output"
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: "flight_config.txt",
			Usage: "KEY=VALUE configuration file",
		},
		cli.BoolFlag{
			Name:  "mock",
			Usage: "use simulated IMU, barometer and RC link",
		},
		cli.StringFlag{
			Name:  "profile",
			Usage: "YAML tuning profile, overrides TUNING_PROFILE",
		},
	}
	cliApp.Action = func(c *cli.Context) error {
		if err := config.InitGlobal(c.GlobalString("config")); err != nil {
			return err
		}
		cfg := config.Get()
		if c.GlobalBool("mock") {
			cfg.UseMockSensors = true
		}
		if p := c.GlobalString("profile"); p != "" {
			cfg.TuningProfile = p
		}
		logger.SetLevel(cfg.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.RunFlightController(ctx, cfg, logger)
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Fatalf("fatal: %v", err)
	}
}
