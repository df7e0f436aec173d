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
	cliApp.Name = "console_mqtt"
	cliApp.Usage = "print flight telemetry, GPS fixes and task stats"
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: "flight_config.txt",
			Usage: "KEY=VALUE configuration file",
		},
	}
	cliApp.Action = func(c *cli.Context) error {
		if err := config.InitGlobal(c.GlobalString("config")); err != nil {
			return err
		}
		cfg := config.Get()
		logger.SetLevel(cfg.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.RunConsoleMQTT(ctx, cfg, logger)
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Fatalf("fatal: %v", err)
	}
}
