package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/carecircle/backend/internal/database"
	"github.com/carecircle/backend/internal/seed"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Println("✓ Migrations applied")
		return nil
	},
}

var (
	seedUsers int
	seedPosts int
	seedClean bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with development data",
	Long: `Seed creates fake patients, doctors, posts, blogs, comments, events and
health records. Every seeded account uses the password "` + seed.DefaultPassword + `".
Use --clean to remove previously seeded accounts and everything they own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		seeder := seed.NewSeeder(db, 0)
		ctx := context.Background()

		if seedClean {
			if err := seeder.Clean(ctx); err != nil {
				return err
			}
			fmt.Println("✓ Seed data removed")
			return nil
		}

		res, err := seeder.SeedDev(ctx, seed.Options{Users: seedUsers, Posts: seedPosts})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

var (
	adminEmail    string
	adminUsername string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		user, err := createAdmin(cmd.Context(), db, adminEmail, adminUsername, adminPassword)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Admin %s created (%s)\n", user.Username, user.ID)
		return nil
	},
}

var (
	promoteEmail  string
	promoteRevoke bool
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Grant or revoke admin privileges",
	Example: `  carectl promote --email user@example.com
  carectl promote --email user@example.com --revoke`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		user, changed, err := promote(cmd.Context(), db, promoteEmail, promoteRevoke)
		if err != nil {
			return err
		}
		if !changed {
			fmt.Printf("⚠️  %s is already %s\n", user.Username, user.Role)
			return nil
		}
		fmt.Printf("✓ %s is now %s\n", user.Username, user.Role)
		fmt.Println("  The user must log in again for the change to take effect")
		return nil
	},
}

var doctorEmail string

var approveDoctorCmd = &cobra.Command{
	Use:   "approve-doctor",
	Short: "Approve a pending doctor account",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		user, err := approveDoctor(cmd.Context(), db, doctorEmail)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Dr. %s approved\n", user.FullName())
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 20, "Number of accounts to create")
	seedCmd.Flags().IntVar(&seedPosts, "posts", 50, "Number of posts to create")
	seedCmd.Flags().BoolVar(&seedClean, "clean", false, "Remove seeded data instead of creating it")

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email")
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "Admin username")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (at least 6 characters)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")

	promoteCmd.Flags().StringVar(&promoteEmail, "email", "", "Email of the account")
	promoteCmd.Flags().BoolVar(&promoteRevoke, "revoke", false, "Revoke admin privileges instead of granting")
	_ = promoteCmd.MarkFlagRequired("email")

	approveDoctorCmd.Flags().StringVar(&doctorEmail, "email", "", "Email of the doctor")
	_ = approveDoctorCmd.MarkFlagRequired("email")
}
