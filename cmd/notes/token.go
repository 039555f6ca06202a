package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"notechan/internal/notes/adapters/services"
)

var tokenTTL time.Duration

// tokenCmd выпускает access token для локальной отладки API.
var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Issue an access token signed with the configured secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := services.NewJWT(cfg.JWT.SecretKey).IssueAccessToken(args[0], tokenTTL)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
