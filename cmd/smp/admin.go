package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/totegamma/smp/internal/config"
	"github.com/totegamma/smp/internal/service"
	"github.com/totegamma/smp/internal/usecase"
)

// openAdminStores opens the configured backend for administrative commands,
// which only make sense against persistent storage.
func openAdminStores(configPath string) (*config.Holder, usecase.Stores, func(), error) {
	conf, err := config.NewHolder(configPath)
	if err != nil {
		return nil, usecase.Stores{}, nil, err
	}
	if conf.Current().Backend == config.BackendMemory {
		return nil, usecase.Stores{}, nil, errors.New("administrative commands need a persistent storage backend")
	}
	stores, closer, err := openStores(conf.Current())
	if err != nil {
		return nil, usecase.Stores{}, nil, err
	}
	return conf, stores, closer, nil
}

func newUserCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users owning service groups",
	}

	var password string
	add := &cobra.Command{
		Use:   "add <user-id>",
		Short: "Create a user or replace its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SMP_PASSWORD")
			}
			_, stores, closer, err := openAdminStores(*configPath)
			if err != nil {
				return err
			}
			defer closer()

			user, err := service.NewAuthService(stores.Users).SetPassword(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s saved\n", user.ID)
			return nil
		},
	}
	add.Flags().StringVarP(&password, "password", "p", "", "password (defaults to $SMP_PASSWORD)")

	cmd.AddCommand(add)
	return cmd
}

func newServiceGroupCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servicegroup",
		Short: "Administer service groups",
	}

	chown := &cobra.Command{
		Use:   "chown <participant-id> <user-id>",
		Short: "Move a service group to another owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, stores, closer, err := openAdminStores(*configPath)
			if err != nil {
				return err
			}
			defer closer()

			id, err := conf.Current().Identifiers().ParseParticipant(args[0])
			if err != nil {
				return err
			}
			coordinator := usecase.NewRegistrationCoordinator(nil, stores.Faults, conf)
			groups := usecase.NewServiceGroupUsecase(stores, coordinator, conf)
			if err := groups.Reassign(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now owned by %s\n", id.URIEncoded(), args[1])
			return nil
		},
	}

	cmd.AddCommand(chown)
	return cmd
}

func newFaultsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "faults",
		Short: "List SML reconciliation faults as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, stores, closer, err := openAdminStores(*configPath)
			if err != nil {
				return err
			}
			defer closer()

			faults, err := stores.Faults.List(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, f := range faults {
				if err := enc.Encode(f); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newVerifyCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify the signature of a service metadata document against the configured certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			keys, err := service.LoadKeyProvider(snap.Signing.CertFile, snap.Signing.KeyFile)
			if err != nil {
				return err
			}
			doc, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := service.VerifySignature(doc, keys.Certificate()); err != nil {
				return errors.Wrap(err, "signature invalid")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signature valid")
			return nil
		},
	}
}
