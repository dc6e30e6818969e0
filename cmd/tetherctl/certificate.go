package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"tether/internal/config"
	"tether/internal/repository"
	"tether/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type revokeFlags struct {
	actor  uint
	reason string
}

func newCertificateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certificate",
		Short: "Look up and revoke certificates",
	}
	cmd.AddCommand(newCertificateVerifyCmd(), newCertificateRevokeCmd())
	return cmd
}

func newCertificateVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <certificate-number>",
		Short: "Check whether a certificate number is valid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB) error {
				v, err := certificateService(cfg, db).VerifyByNumber(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			})
		},
	}
}

func newCertificateRevokeCmd() *cobra.Command {
	var flags revokeFlags

	cmd := &cobra.Command{
		Use:   "revoke <certificate-id>",
		Short: "Revoke a certificate on behalf of its issuer or a recipient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid certificate id %q", args[0])
			}
			if flags.actor == 0 {
				return fmt.Errorf("--actor is required")
			}
			return withDB(func(cfg *config.Config, db *gorm.DB) error {
				cert, err := certificateService(cfg, db).RevokeCertificate(cmd.Context(), flags.actor, uint(id), flags.reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %s (%q)\n", cert.CertificateNumber, cert.Title)
				return nil
			})
		},
	}

	cmd.Flags().UintVar(&flags.actor, "actor", 0, "user ID performing the revocation")
	cmd.Flags().StringVar(&flags.reason, "reason", "", "reason recorded on the certificate")
	return cmd
}

// certificateService builds the service without a notification dispatcher;
// the CLI has no running hub to deliver to.
func certificateService(cfg *config.Config, db *gorm.DB) *service.CertificateService {
	store := repository.NewStore(db)
	relationships := service.NewRelationshipService(store, nil, nil)
	return service.NewCertificateService(store, relationships, nil, nil, cfg.CertificateTTL())
}
