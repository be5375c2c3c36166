// Command socialspace is a terminal client for a socialspace server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "socialspace",
		Short: "Terminal client for a socialspace server",
		Long: `Sign in to a socialspace server, watch presence and notifications live,
and act on posts from the terminal.

Credentials come from --email/--password or SOCIALSPACE_EMAIL and
SOCIALSPACE_PASSWORD. The server address defaults to SOCIALSPACE_URL.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.url, "url", envOr("SOCIALSPACE_URL", "http://localhost:8000"), "server base URL")
	rootCmd.PersistentFlags().StringVar(&opts.email, "email", os.Getenv("SOCIALSPACE_EMAIL"), "account email")
	rootCmd.PersistentFlags().StringVar(&opts.password, "password", os.Getenv("SOCIALSPACE_PASSWORD"), "account password")

	rootCmd.AddCommand(createWatchCmd(opts))
	rootCmd.AddCommand(createPostsCmd(opts))
	rootCmd.AddCommand(createLikeCmd(opts))
	rootCmd.AddCommand(createBookmarkCmd(opts))
	rootCmd.AddCommand(createCommentCmd(opts))
	rootCmd.AddCommand(createFollowCmd(opts))
	rootCmd.AddCommand(createSendCmd(opts))
	rootCmd.AddCommand(createOnlineCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
