package main

import (
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"github.com/stacnet/stac-access-backend/api/clients"
	"github.com/stacnet/stac-access-backend/cmd/flags"
	"github.com/stacnet/stac-access-backend/interfaces"
)

var paymentFlag = &cli.StringFlag{
	Name:     "payment",
	Required: true,
	Usage:    "payment to attach, decimal string in the ledger's smallest unit. Must equal the current price exactly",
}

func main() {
	app := &cli.App{
		Name:  "access-client",
		Usage: "Purchase and check access against the registry",
		Flags: []cli.Flag{
			flags.ServerAddrFlag,
			flags.PrivateKeyFlag,
		},
		Commands: []*cli.Command{
			{
				Name:  "purchase-code",
				Usage: "Purchase an access code. The secret is printed exactly once",
				Flags: []cli.Flag{paymentFlag},
				Action: func(cCtx *cli.Context) error {
					client, payment, err := newClient(cCtx)
					if err != nil {
						return err
					}

					secret, expiry, err := client.PurchaseCode(payment)
					if err != nil {
						return err
					}
					fmt.Printf("secret: %s\nexpiry: %d\n", secret, expiry)
					return nil
				},
			},
			{
				Name:  "purchase-key",
				Usage: "Purchase an access key",
				Flags: []cli.Flag{paymentFlag},
				Action: func(cCtx *cli.Context) error {
					client, payment, err := newClient(cCtx)
					if err != nil {
						return err
					}

					key, err := client.PurchaseKey(payment)
					if err != nil {
						return err
					}
					fmt.Printf("key: %s\n", key)
					return nil
				},
			},
			{
				Name:      "verify",
				Usage:     "Check a secret against a user's stored commitment",
				ArgsUsage: "<user-address> <secret>",
				Action: func(cCtx *cli.Context) error {
					client, _, err := newClient(cCtx)
					if err != nil {
						return err
					}

					user, err := interfaces.NewUserAddressFromHex(cCtx.Args().Get(0))
					if err != nil {
						return fmt.Errorf("invalid user address: %w", err)
					}

					valid, err := client.VerifyCode(user, cCtx.Args().Get(1))
					if err != nil {
						return err
					}
					fmt.Printf("valid: %t\n", valid)
					return nil
				},
			},
			{
				Name:      "key-valid",
				Usage:     "Check whether a key value is currently valid",
				ArgsUsage: "<key>",
				Action: func(cCtx *cli.Context) error {
					client, _, err := newClient(cCtx)
					if err != nil {
						return err
					}

					valid, err := client.KeyValid(cCtx.Args().First())
					if err != nil {
						return err
					}
					fmt.Printf("valid: %t\n", valid)
					return nil
				},
			},
			{
				Name:  "info",
				Usage: "Print the public registry state",
				Action: func(cCtx *cli.Context) error {
					client, _, err := newClient(cCtx)
					if err != nil {
						return err
					}

					info, err := client.Info()
					if err != nil {
						return err
					}
					fmt.Printf("owner:        %s\n", info.Owner)
					fmt.Printf("access price: %s\n", info.AccessPrice)
					fmt.Printf("key price:    %s\n", info.KeyPrice)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) (*clients.AccessClient, *big.Int, error) {
	key, err := crypto.HexToECDSA(cCtx.String(flags.PrivateKeyFlag.Name))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid private key: %w", err)
	}

	payment := new(big.Int)
	if raw := cCtx.String(paymentFlag.Name); raw != "" {
		parsed, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, nil, fmt.Errorf("invalid payment %q", raw)
		}
		payment = parsed
	}

	return clients.NewAccessClient(cCtx.String(flags.ServerAddrFlag.Name), key), payment, nil
}
