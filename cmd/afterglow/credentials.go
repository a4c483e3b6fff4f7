package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"afterglow/internal/app"
	"afterglow/internal/keychain"
)

// credentials command
var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage AWS credentials",
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store an AWS access key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := app.NewCredentialStore(cfg, confirmPassphrase())
		if err != nil {
			return err
		}

		id, err := readLine("Access key id: ")
		if err != nil {
			return err
		}
		secret, err := readSecret("Secret access key: ")
		if err != nil {
			return err
		}
		creds := keychain.Credentials{AccessKeyID: id, SecretAccessKey: secret}

		if err := store.Save(creds); err != nil {
			return fmt.Errorf("saving credentials: %w", err)
		}
		fmt.Printf("Credentials saved (key ending %s)\n", keychain.Hint(creds))
		return nil
	},
}

var credentialsHintCmd = &cobra.Command{
	Use:   "hint",
	Short: "Show which access key is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := app.NewCredentialStore(cfg, promptPassphrase("Credentials passphrase: "))
		if err != nil {
			return err
		}
		if !store.Has() {
			fmt.Println("No credentials stored.")
			return nil
		}
		creds, err := store.Load()
		if err != nil {
			return err
		}
		fmt.Printf("Access key ending %s\n", keychain.Hint(creds))
		return nil
	},
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := app.NewCredentialStore(cfg, nil)
		if err != nil {
			return err
		}
		if err := store.Delete(); err != nil {
			return err
		}
		fmt.Println("Credentials removed.")
		return nil
	},
}

var credentialsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the stored credentials against AWS",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		creds, err := app.LoadCredentials(cfg, promptPassphrase("Credentials passphrase: "))
		if err != nil {
			return err
		}

		id, err := app.ValidateCredentials(context.Background(), cfg, creds)
		if err != nil {
			return err
		}
		fmt.Printf("User:    %s\n", id.User)
		fmt.Printf("Account: %s\n", id.Account)
		fmt.Printf("ARN:     %s\n", id.ARN)
		fmt.Printf("Bucket %s is readable.\n", cfg.BucketName())
		return nil
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsHintCmd)
	credentialsCmd.AddCommand(credentialsDeleteCmd)
	credentialsCmd.AddCommand(credentialsValidateCmd)
}
