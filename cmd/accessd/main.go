package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/stacnet/stac-access-backend/cmd/flags"
	"github.com/stacnet/stac-access-backend/cryptoutils"
	"github.com/stacnet/stac-access-backend/httpserver"
	"github.com/stacnet/stac-access-backend/interfaces"
	"github.com/stacnet/stac-access-backend/ledger"
	"github.com/stacnet/stac-access-backend/registry"
	"github.com/stacnet/stac-access-backend/storage"
)

// 0.01 ether in wei.
const defaultPrice = "10000000000000000"

var daemonFlags []cli.Flag = append([]cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for API",
	},
	&cli.StringFlag{
		Name:     "owner",
		Required: true,
		Usage:    "hex address of the registry owner. Only this identity may revoke, reprice and withdraw",
	},
	&cli.StringFlag{
		Name:  "access-price",
		Value: defaultPrice,
		Usage: "access code price in the ledger's smallest unit",
	},
	&cli.StringFlag{
		Name:  "key-price",
		Value: defaultPrice,
		Usage: "access key price in the ledger's smallest unit",
	},
	&cli.DurationFlag{
		Name:  "access-duration",
		Value: registry.DefaultAccessDuration,
		Usage: "validity window of a purchased access code",
	},
	&cli.StringFlag{
		Name:  "commitment-scheme",
		Value: cryptoutils.SchemeKeccak256,
		Usage: "commitment scheme for access codes: 'keccak256' or 'sha3-256'",
	},
	&cli.StringFlag{
		Name:  "snapshot-uri",
		Value: "",
		Usage: "snapshot location, file:///path or s3://bucket/prefix. Empty disables persistence",
	},
	&cli.StringFlag{
		Name:  "genesis-file",
		Value: "",
		Usage: "JSON file mapping hex addresses to initial ledger balances; superseded by a restored snapshot",
	},
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "accessd",
		Usage: "Serve the paid access registry API",
		Flags: daemonFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			owner, err := interfaces.NewUserAddressFromHex(cCtx.String("owner"))
			if err != nil {
				logger.Error("Invalid owner address", "err", err)
				return err
			}

			accessPrice, ok := new(big.Int).SetString(cCtx.String("access-price"), 10)
			if !ok {
				return fmt.Errorf("invalid access-price: %s", cCtx.String("access-price"))
			}
			keyPrice, ok := new(big.Int).SetString(cCtx.String("key-price"), 10)
			if !ok {
				return fmt.Errorf("invalid key-price: %s", cCtx.String("key-price"))
			}

			scheme, err := cryptoutils.NewCommitmentScheme(cCtx.String("commitment-scheme"))
			if err != nil {
				logger.Error("Invalid commitment scheme", "err", err)
				return err
			}

			genesis, err := loadGenesis(cCtx.String("genesis-file"))
			if err != nil {
				logger.Error("Failed to load genesis file", "err", err)
				return err
			}
			bank := ledger.NewInMemoryLedger(genesis)

			feed := registry.NewEventFeed()
			defer feed.Close()

			code, err := registry.NewCodeRegistry(registry.CodeRegistryConfig{
				Owner:          owner,
				Price:          accessPrice,
				AccessDuration: cCtx.Duration("access-duration"),
				Ledger:         bank,
				Scheme:         scheme,
				Feed:           feed,
				Log:            logger,
			})
			if err != nil {
				logger.Error("Failed to create code registry", "err", err)
				return err
			}

			key, err := registry.NewKeyRegistry(registry.KeyRegistryConfig{
				Owner:  owner,
				Price:  keyPrice,
				Ledger: bank,
				Feed:   feed,
				Log:    logger,
			})
			if err != nil {
				logger.Error("Failed to create key registry", "err", err)
				return err
			}

			// Log lifecycle events as they happen.
			events, cancelEvents := feed.Subscribe(64)
			defer cancelEvents()
			go func() {
				for ev := range events {
					logger.Info("Registry event", "kind", ev.Kind, "user", ev.User.String())
				}
			}()

			var persist httpserver.PersistFunc
			if snapshotURI := cCtx.String("snapshot-uri"); snapshotURI != "" {
				backend, err := storage.NewSnapshotBackendFactory(logger).
					BackendFor(interfaces.StorageBackendLocation(snapshotURI))
				if err != nil {
					logger.Error("Failed to create snapshot backend", "err", err)
					return err
				}
				logger.Info("Snapshot persistence enabled", "location", backend.LocationURI())

				if err := restoreSnapshot(backend, bank, code, key); err != nil {
					logger.Error("Failed to restore snapshot", "err", err)
					return err
				}

				persist = func() {
					if err := saveSnapshot(backend, bank, code, key); err != nil {
						logger.Error("Failed to save snapshot", "err", err)
					}
				}
			}

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"))
			srv, err := httpserver.New(cfg, httpserver.NewHandler(code, key, persist, logger))
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}
			srv.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			srv.Shutdown()
			if persist != nil {
				persist()
			}
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadGenesis parses a JSON object mapping hex addresses to decimal balance
// strings. A missing path yields an empty ledger.
func loadGenesis(path string) (map[interfaces.UserAddress]*big.Int, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing genesis file %s: %w", path, err)
	}

	genesis := make(map[interfaces.UserAddress]*big.Int, len(raw))
	for addrHex, amountStr := range raw {
		addr, err := interfaces.NewUserAddressFromHex(addrHex)
		if err != nil {
			return nil, fmt.Errorf("genesis address %s: %w", addrHex, err)
		}
		amount, ok := new(big.Int).SetString(amountStr, 10)
		if !ok {
			return nil, fmt.Errorf("genesis balance for %s: invalid amount %q", addrHex, amountStr)
		}
		genesis[addr] = amount
	}
	return genesis, nil
}

// persistedState is the daemon's snapshot payload: both registries plus the
// ledger that settles them. They restore together so each funds pool stays
// matched by its collection account's balance; restoring registry state onto
// an unfunded ledger would make every later withdrawal fail.
type persistedState struct {
	Registry *registry.Snapshot `json:"registry"`
	Ledger   *ledger.Snapshot   `json:"ledger"`
}

func restoreSnapshot(backend interfaces.SnapshotBackend, bank *ledger.InMemoryLedger, code *registry.CodeRegistry, key *registry.KeyRegistry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := backend.Load(ctx)
	if errors.Is(err, interfaces.ErrSnapshotNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	if state.Ledger != nil {
		if err := bank.Restore(state.Ledger); err != nil {
			return err
		}
	}
	if state.Registry != nil && state.Registry.Code != nil {
		if err := code.Restore(state.Registry.Code); err != nil {
			return err
		}
	}
	if state.Registry != nil && state.Registry.Key != nil {
		if err := key.Restore(state.Registry.Key); err != nil {
			return err
		}
	}
	return nil
}

func saveSnapshot(backend interfaces.SnapshotBackend, bank *ledger.InMemoryLedger, code *registry.CodeRegistry, key *registry.KeyRegistry) error {
	data, err := json.Marshal(&persistedState{
		Registry: &registry.Snapshot{Code: code.Snapshot(), Key: key.Snapshot()},
		Ledger:   bank.Snapshot(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return backend.Save(ctx, data)
}
