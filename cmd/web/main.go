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
	cliApp.Name = "web"
	cliApp.Usage = "serve flight telemetry over HTTP and websocket (MQTT subscriber)"
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: "flight_config.txt",
			Usage: "KEY=VALUE configuration file",
		},
		cli.IntFlag{
			Name:  "port",
			Usage: "listening port, overrides WEB_SERVER_PORT",
		},
	}
	cliApp.Action = func(c *cli.Context) error {
		if err := config.InitGlobal(c.GlobalString("config")); err != nil {
			return err
		}
		cfg := config.Get()
		if port := c.GlobalInt("port"); port != 0 {
			cfg.WebServerPort = port
		}
		logger.SetLevel(cfg.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.RunWeb(ctx, cfg, logger)
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Fatalf("fatal: %v", err)
	}
}
