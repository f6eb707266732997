package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"asset-tracker-backend/internal/seed"
)

func newSeedCmd(open func(*cobra.Command) (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty database with demo departments and equipment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
			seeded, err := seed.NewSeeder(a.store, rng, a.logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			if !seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "database already has departments, nothing to do")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database seeded")
			return nil
		},
	}
}
