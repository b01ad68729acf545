package main

import (
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/forkful/internal/client/cli"
	"github.com/iudanet/forkful/internal/client/metrics"
)

func createLoginCmd(a *app) *cobra.Command {
	var tokens cli.Tokens

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an access token",
		Long: `Sign in with an access token issued by the server.

Token priority (highest to lowest):
  1. FORKFUL_TOKEN environment variable
  2. --token-file (file path)
  3. --token (command line)
  4. Interactive prompt (fallback)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cli.RunLogin(cmd.Context(), tokens)
		},
	}

	cmd.Flags().StringVar(&tokens.FromArgs, "token", "", "Access token (not recommended, use env var or file)")
	cmd.Flags().StringVar(&tokens.FromFile, "token-file", "", "Path to file containing the access token")
	return cmd
}

func createLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cli.RunLogout(cmd.Context())
		},
	}
}

func createStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cli.RunStatus(cmd.Context())
		},
	}
}

func createLikeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like or unlike a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cli.RunLike(cmd.Context(), args[0])
		},
	}
}

func createSaveCmd(a *app) *cobra.Command {
	var collectionID string

	cmd := &cobra.Command{
		Use:   "save <post-id>",
		Short: "Save or unsave a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cli.RunSave(cmd.Context(), args[0], collectionID)
		},
	}

	cmd.Flags().StringVar(&collectionID, "collection", "", "Collection (board) to save into")
	return cmd
}

func createCommentCmd(a *app) *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "comment <post-id> <text...>",
		Short: "Comment on a post or reply to a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cli.RunComment(cmd.Context(), args[0], strings.Join(args[1:], " "), parentID)
		},
	}

	cmd.Flags().StringVar(&parentID, "reply-to", "", "Comment id to reply to")
	return cmd
}

func createShareCmd(a *app) *cobra.Command {
	var caption, platform string

	cmd := &cobra.Command{
		Use:   "share <post-id>",
		Short: "Share a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cli.RunShare(cmd.Context(), args[0], caption, platform)
		},
	}

	cmd.Flags().StringVar(&caption, "caption", "", "Text shown with the links")
	cmd.Flags().StringVar(&platform, "platform", "", "Target platform reported to analytics (default share_sheet)")
	return cmd
}

func createCopyLinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy-link <post-id>",
		Short: "Copy the web link of a post to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cli.RunCopyLink(cmd.Context(), args[0])
		},
	}
}

func createWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <post-id>...",
		Short: "Stream live counters and new comments",
		Long: `Stream live counters and new comments of one or more posts
until interrupted (Ctrl+C). When metrics.listen is configured the
Prometheus endpoint is served at /metrics while watching.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			if addr := a.cfg.Metrics.Listen; addr != "" {
				ln, err := net.Listen("tcp", addr)
				if err != nil {
					return err
				}
				g.Go(func() error {
					return metrics.Serve(ctx, ln, a.logger)
				})
			}
			g.Go(func() error {
				return a.cli.RunWatch(ctx, args)
			})
			return g.Wait()
		},
	}
}

