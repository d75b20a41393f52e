package main

import (
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"github.com/stacnet/stac-access-backend/api"
	"github.com/stacnet/stac-access-backend/api/clients"
	"github.com/stacnet/stac-access-backend/cmd/flags"
	"github.com/stacnet/stac-access-backend/interfaces"
)

func main() {
	app := &cli.App{
		Name:  "access-admin",
		Usage: "Administer the access registry as its owner",
		Flags: []cli.Flag{
			flags.ServerAddrFlag,
			flags.PrivateKeyFlag,
			flags.VariantFlag,
		},
		Commands: []*cli.Command{
			{
				Name:      "revoke",
				Usage:     "Revoke a user's access",
				ArgsUsage: "<user-address>",
				Action: func(cCtx *cli.Context) error {
					client, err := newAdminClient(cCtx)
					if err != nil {
						return err
					}

					user, err := interfaces.NewUserAddressFromHex(cCtx.Args().First())
					if err != nil {
						return fmt.Errorf("invalid user address: %w", err)
					}

					if err := client.RevokeAccess(cCtx.String(flags.VariantFlag.Name), user); err != nil {
						return err
					}
					fmt.Printf("revoked access for %s\n", user.String())
					return nil
				},
			},
			{
				Name:      "price",
				Usage:     "Set a new purchase price",
				ArgsUsage: "<price>",
				Action: func(cCtx *cli.Context) error {
					client, err := newAdminClient(cCtx)
					if err != nil {
						return err
					}

					price, ok := new(big.Int).SetString(cCtx.Args().First(), 10)
					if !ok {
						return fmt.Errorf("invalid price %q", cCtx.Args().First())
					}

					if err := client.UpdatePrice(cCtx.String(flags.VariantFlag.Name), price); err != nil {
						return err
					}
					fmt.Printf("price updated to %s\n", price.String())
					return nil
				},
			},
			{
				Name:  "withdraw",
				Usage: "Drain the funds pool to the owner",
				Action: func(cCtx *cli.Context) error {
					client, err := newAdminClient(cCtx)
					if err != nil {
						return err
					}

					amount, err := client.Withdraw(cCtx.String(flags.VariantFlag.Name))
					if err != nil {
						return err
					}
					fmt.Printf("withdrew %s\n", amount.String())
					return nil
				},
			},
			{
				Name:  "info",
				Usage: "Print the public registry state",
				Action: func(cCtx *cli.Context) error {
					key, err := crypto.HexToECDSA(cCtx.String(flags.PrivateKeyFlag.Name))
					if err != nil {
						return fmt.Errorf("invalid private key: %w", err)
					}

					info, err := clients.NewAccessClient(cCtx.String(flags.ServerAddrFlag.Name), key).Info()
					if err != nil {
						return err
					}
					return printInfo(info)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newAdminClient(cCtx *cli.Context) (*clients.AdminClient, error) {
	variant := cCtx.String(flags.VariantFlag.Name)
	if variant != api.VariantCode && variant != api.VariantKey {
		return nil, fmt.Errorf("unknown variant %q", variant)
	}

	key, err := crypto.HexToECDSA(cCtx.String(flags.PrivateKeyFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return clients.NewAdminClient(cCtx.String(flags.ServerAddrFlag.Name), key), nil
}

func printInfo(info *api.InfoResponse) error {
	fmt.Printf("owner:        %s\n", info.Owner)
	fmt.Printf("access price: %s\n", info.AccessPrice)
	fmt.Printf("key price:    %s\n", info.KeyPrice)
	fmt.Printf("access pool:  %s\n", info.AccessPool)
	fmt.Printf("key pool:     %s\n", info.KeyPool)
	return nil
}
