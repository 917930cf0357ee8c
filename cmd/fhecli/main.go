package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/IsabellHansen/zamapp/common"
	"github.com/IsabellHansen/zamapp/interfaces"
	"github.com/IsabellHansen/zamapp/keycache"
	"github.com/IsabellHansen/zamapp/network"
	"github.com/IsabellHansen/zamapp/provision"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "rpc-addr",
		Value: "http://127.0.0.1:8545",
		Usage: "address to connect to RPC",
	},
	&cli.StringFlag{
		Name:  "contract",
		Usage: "0x-prefixed contract address the encrypted input is bound to",
	},
	&cli.StringFlag{
		Name:  "user",
		Usage: "0x-prefixed user address the encrypted input is bound to",
	},
	&cli.StringSliceFlag{
		Name:  "mock-chain",
		Usage: "mock chain override in chainid=rpcurl form (repeatable)",
	},
	&cli.StringFlag{
		Name:  "artifact-url",
		Value: "",
		Usage: "override the SDK artifact location",
	},
	&cli.StringFlag{
		Name:  "cache-uri",
		Value: "",
		Usage: "public key cache store URI (file://, s3://, vault://, memory://)",
	},
	&cli.DurationFlag{
		Name:  "provision-timeout",
		Value: 60 * time.Second,
		Usage: "how long to wait for provisioning to settle",
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
}

func main() {
	app := &cli.App{
		Name:      "fhecli",
		Usage:     "Provision an FHE instance and build encrypted transaction inputs",
		ArgsUsage: "value [value...]",
		Flags:     flags,
		Action:    runEncrypt,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runEncrypt(cCtx *cli.Context) error {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool("log-debug"),
		JSON:    cCtx.Bool("log-json"),
		Service: "fhecli",
		Version: common.Version,
	})

	if cCtx.Bool("log-uid") {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}

	if cCtx.NArg() == 0 {
		return errors.New("at least one value to encrypt is required")
	}

	values := make([]uint32, 0, cCtx.NArg())
	for _, arg := range cCtx.Args().Slice() {
		v, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", arg, err)
		}
		values = append(values, uint32(v))
	}

	contract, err := interfaces.NewContractAddressFromHex(cCtx.String("contract"))
	if err != nil {
		return fmt.Errorf("invalid contract address: %w", err)
	}
	user, err := interfaces.NewContractAddressFromHex(cCtx.String("user"))
	if err != nil {
		return fmt.Errorf("invalid user address: %w", err)
	}

	mockChains, err := parseMockChains(cCtx.StringSlice("mock-chain"))
	if err != nil {
		return err
	}

	var cache *keycache.Cache
	if cacheURI := cCtx.String("cache-uri"); cacheURI != "" {
		store, err := keycache.NewStoreFactory(logger).StoreFor(cacheURI)
		if err != nil {
			return fmt.Errorf("invalid cache-uri: %w", err)
		}
		cache = keycache.New(store, 0, logger)
	}

	controller, err := provision.New(provision.Config{
		MockChains:  mockChains,
		ArtifactURL: cCtx.String("artifact-url"),
		KeyCache:    cache,
		Log:         logger,
	})
	if err != nil {
		return err
	}
	defer controller.Close()

	settled := make(chan provision.Snapshot, 16)
	controller.OnChange(func(s provision.Snapshot) {
		if s.State == interfaces.StateReady || s.State == interfaces.StateError {
			settled <- s
		}
	})

	rpcAddr := cCtx.String("rpc-addr")
	logger.Info("Connecting to RPC", "address", rpcAddr)
	ctx, cancel := context.WithTimeout(context.Background(), cCtx.Duration("provision-timeout"))
	defer cancel()

	transport, err := network.DialTransport(ctx, rpcAddr)
	if err != nil {
		return fmt.Errorf("could not dial RPC: %w", err)
	}
	defer transport.Close()

	controller.SetTransport(transport, 0)

	var snapshot provision.Snapshot
	select {
	case snapshot = <-settled:
	case <-ctx.Done():
		return errors.New("provisioning did not settle before the timeout")
	}
	if snapshot.State == interfaces.StateError {
		return fmt.Errorf("provisioning failed: %w", snapshot.Err)
	}

	input := snapshot.Instance.CreateEncryptedInput(contract, user)
	for _, v := range values {
		input.Add32(v)
	}

	bundle, err := input.Encrypt(ctx)
	if err != nil {
		return fmt.Errorf("could not encrypt inputs: %w", err)
	}

	for i, handle := range bundle.Handles {
		fmt.Printf("handle[%d]: %s\n", i, handle.String())
	}
	fmt.Printf("inputProof: 0x%x\n", bundle.InputProof)

	return nil
}

func parseMockChains(entries []string) (map[uint64]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	mockChains := make(map[uint64]string, len(entries))
	for _, entry := range entries {
		chainStr, rpcURL, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("invalid mock-chain %q: expected chainid=rpcurl", entry)
		}
		chainID, err := strconv.ParseUint(chainStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mock-chain id %q: %w", chainStr, err)
		}
		mockChains[chainID] = rpcURL
	}
	return mockChains, nil
}
