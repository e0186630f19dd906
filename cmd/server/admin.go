package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/landingkit/internal/db"
	"github.com/landingkit/internal/registry"
	"github.com/landingkit/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Args:  cobra.NoArgs,
	RunE:  runCreateAdmin,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo landing page with every component",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	createAdminCmd.Flags().String("email", "", "admin email")
	createAdminCmd.Flags().String("password", "", "admin password (min 8 characters)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	seedCmd.Flags().String("slug", "demo", "page slug")
	seedCmd.Flags().String("title", "Demo landing page", "page title")
	seedCmd.Flags().String("checkout-url", "", "checkout link for #checkout buttons")
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	gdb, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close(gdb) //nolint:errcheck

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	user, err := service.NewUserService(gdb).CreateAdmin(cmd.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			return fmt.Errorf("admin %s already exists", email)
		}
		return err
	}

	logger.Info("admin created", zap.Uint("id", user.ID), zap.String("email", user.Email))
	fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created\n", user.Email)
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	gdb, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close(gdb) //nolint:errcheck

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	data, err := demoDocument(reg)
	if err != nil {
		return err
	}

	slug, _ := cmd.Flags().GetString("slug")
	title, _ := cmd.Flags().GetString("title")
	checkout, _ := cmd.Flags().GetString("checkout-url")

	page, err := service.NewLandingPageService(gdb, reg).Create(cmd.Context(), service.CreateLandingPageInput{
		Slug:        slug,
		Title:       title,
		Data:        data,
		CheckoutURL: &checkout,
	})
	if err != nil {
		return fmt.Errorf("seed %q: %w", slug, err)
	}

	logger.Info("demo page created", zap.String("slug", page.Slug))
	fmt.Fprintf(cmd.OutOrStdout(), "Created /%s\n", page.Slug)
	return nil
}

// demoDocument stacks one default block of every registered component.
func demoDocument(reg *registry.Registry) (json.RawMessage, error) {
	doc := reg.NewDocument()
	for _, name := range reg.Names() {
		block, err := reg.NewBlock(name)
		if err != nil {
			return nil, err
		}
		doc.Content = append(doc.Content, block)
	}
	return json.Marshal(doc)
}
