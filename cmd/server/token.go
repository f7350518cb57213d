package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"toolhost/internal/config"
	"toolhost/pkg/auth"
)

var (
	tokenUser   auth.User
	tokenExpiry time.Duration
)

func init() {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token signed with JWT_SECRET",
		RunE:  runToken,
	}
	cmd.Flags().StringVar(&tokenUser.ID, "user", "", "User id (required)")
	cmd.Flags().StringVar(&tokenUser.Name, "name", "", "User display name")
	cmd.Flags().StringVar(&tokenUser.OrgID, "org", "", "Organization id (required)")
	cmd.Flags().StringVar(&tokenUser.OrgName, "org-name", "", "Organization display name")
	cmd.Flags().DurationVar(&tokenExpiry, "ttl", time.Hour, "Token lifetime")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("org")

	rootCmd.AddCommand(cmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	jwtAuth, err := auth.NewLocalJWTAuth(cfg.JWTSecret, tokenExpiry)
	if err != nil {
		return err
	}

	token, err := jwtAuth.GenerateToken(tokenUser)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
