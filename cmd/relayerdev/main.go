package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/IsabellHansen/zamapp/common"
	"github.com/IsabellHansen/zamapp/interfaces"
	"github.com/IsabellHansen/zamapp/relayerdev"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8545",
		Usage: "address to listen on for the mock node RPC",
	},
	&cli.Uint64Flag{
		Name:  "chain-id",
		Value: 31337,
		Usage: "chain id the mock node reports",
	},
	&cli.StringFlag{
		Name:  "acl-address",
		Value: "0x339EcE85B9E11a3A3AA557582784a15d7F82AAf2",
		Usage: "ACL contract address served in relayer metadata",
	},
	&cli.StringFlag{
		Name:  "input-verifier-address",
		Value: "0x69dE3158643e738a0724418b21a35FAA20CBb1c5",
		Usage: "input verifier contract address served in relayer metadata",
	},
	&cli.StringFlag{
		Name:  "kms-verifier-address",
		Value: "0x9D6891A6240D6130c54ae243d8005063D05fE14b",
		Usage: "KMS verifier contract address served in relayer metadata",
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
	&cli.BoolFlag{
		Name:  "log-uid",
		Value: false,
		Usage: "generate a uuid and add to all log messages",
	},
	&cli.BoolFlag{
		Name:  "pprof",
		Value: false,
		Usage: "enable pprof debug endpoint",
	},
	&cli.Int64Flag{
		Name:  "drain-seconds",
		Value: 45,
		Usage: "seconds to wait in drain HTTP request",
	},
}

func main() {
	app := &cli.App{
		Name:  "relayerdev",
		Usage: "Serve a mock FHE development node for local provisioning",
		Flags: flags,
		Action: func(cCtx *cli.Context) error {
			logger := common.SetupLogger(&common.LoggingOpts{
				Debug:   cCtx.Bool("log-debug"),
				JSON:    cCtx.Bool("log-json"),
				Service: "relayerdev",
				Version: common.Version,
			})

			if cCtx.Bool("log-uid") {
				id := uuid.Must(uuid.NewRandom())
				logger = logger.With("uid", id.String())
			}

			metadata, err := interfaces.ParseRelayerMetadata(
				cCtx.String("acl-address"),
				cCtx.String("input-verifier-address"),
				cCtx.String("kms-verifier-address"),
			)
			if err != nil {
				logger.Error("Invalid relayer metadata flags", "err", err)
				return fmt.Errorf("invalid relayer metadata: %w", err)
			}

			handler := relayerdev.NewHandler(relayerdev.HandlerConfig{
				ChainID:  cCtx.Uint64("chain-id"),
				Metadata: *metadata,
			}, logger)

			server := relayerdev.New(&relayerdev.ServerConfig{
				ListenAddr:               cCtx.String("listen-addr"),
				EnablePprof:              cCtx.Bool("pprof"),
				Log:                      logger,
				DrainDuration:            time.Duration(cCtx.Int64("drain-seconds")) * time.Second,
				GracefulShutdownDuration: 30 * time.Second,
				ReadTimeout:              60 * time.Second,
				WriteTimeout:             30 * time.Second,
			}, handler)

			logger.Info("Starting server")
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
