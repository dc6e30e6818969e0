package main

import (
	"fmt"

	"tether/internal/config"
	"tether/internal/seed"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type seedFlags struct {
	users         int
	relationships int
	clean         bool
	skipBcrypt    bool
	maxDays       int
	randSeed      int64
}

func newSeedCmd() *cobra.Command {
	var flags seedFlags

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo users and relationships",
		Long: `Seed creates users and walks relationships between them through
their lifecycle: proposals, acceptance, terms, milestones, activities and
the occasional breakup. All seeded accounts share the same password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.users < 0 || flags.relationships < 0 {
				return fmt.Errorf("--users and --relationships must not be negative")
			}
			return withDB(func(_ *config.Config, db *gorm.DB) error {
				seeder := seed.NewSeeder(db, flags.options())
				summary, err := seeder.Run(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("users=%d relationships=%d terms=%d milestones=%d activities=%d certificates=%d\n",
					summary.Users, summary.Relationships, summary.Terms,
					summary.Milestones, summary.Activities, summary.Certificates)
				fmt.Printf("All seeded users have the password: %s\n", seed.DefaultPassword)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&flags.users, "users", 50, "number of users to create")
	cmd.Flags().IntVar(&flags.relationships, "relationships", 40, "number of relationships to propose")
	cmd.Flags().BoolVar(&flags.clean, "clean", true, "clear existing data before seeding")
	cmd.Flags().BoolVar(&flags.skipBcrypt, "skip-bcrypt", false, "store passwords unhashed (tests only)")
	cmd.Flags().IntVar(&flags.maxDays, "max-days", 365, "spread activity history over this many days")
	cmd.Flags().Int64Var(&flags.randSeed, "seed", 0, "random seed for reproducible data (0 uses the clock)")

	return cmd
}

func (f seedFlags) options() seed.Options {
	return seed.Options{
		NumUsers:         f.users,
		NumRelationships: f.relationships,
		ShouldClean:      f.clean,
		SkipBcrypt:       f.skipBcrypt,
		MaxDays:          f.maxDays,
		RandSeed:         f.randSeed,
	}
}
