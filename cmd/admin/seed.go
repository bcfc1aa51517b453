package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/app"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/auth"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/usuario"
)

// NewSeedAdminCommand creates the seed-admin command.
func NewSeedAdminCommand(opts *RootOptions) *cobra.Command {
	var (
		nombre string
		correo string
		cedula string
	)
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the first staff account",
		Long: `Create a staff usuario unless one with the same correo already exists.

The password is read from SOS_ADMIN_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := os.Getenv("SOS_ADMIN_PASSWORD")
			if password == "" {
				return fmt.Errorf("SOS_ADMIN_PASSWORD is not set")
			}
			return withRuntime(cmd, opts, func(ctx context.Context, rt *app.Runtime) error {
				svc := rt.Services.Usuarios
				q, err := svc.Schema().QueryFor(auth.FieldCorreo, correo)
				if err != nil {
					return err
				}
				exists, err := svc.Lookup().Exists(ctx, q)
				if err != nil {
					return err
				}
				if exists {
					fmt.Fprintf(cmd.OutOrStdout(), "usuario %s already exists\n", correo)
					return nil
				}
				rec, err := svc.Create(ctx, entity.Fields{
					auth.FieldNombre:   nombre,
					auth.FieldCorreo:   correo,
					auth.FieldCedula:   cedula,
					auth.FieldPassword: password,
					usuario.FieldRol:   "admin",
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created usuario %d\n", rec.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&nombre, "nombre", "Administrador", "display name")
	cmd.Flags().StringVar(&correo, "correo", "admin@sos911.local", "login email")
	cmd.Flags().StringVar(&cedula, "cedula", "0000000000", "identity document number")
	return cmd
}
