package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/akinalp/socialspace/client"
	"github.com/akinalp/socialspace/models"
)

type globalOptions struct {
	url      string
	email    string
	password string
}

// feedSession is a signed-in REST client with a loaded feed, for one-shot
// commands that do not need the socket.
type feedSession struct {
	api  *client.API
	user models.User
	feed *client.Feed
}

func (o *globalOptions) signIn(ctx context.Context) (*feedSession, error) {
	if o.email == "" || o.password == "" {
		return nil, errors.New("email and password are required (--email/--password or SOCIALSPACE_EMAIL/SOCIALSPACE_PASSWORD)")
	}

	api, err := client.NewAPI(o.url)
	if err != nil {
		return nil, err
	}
	result, err := api.Login(ctx, o.email, o.password)
	if err != nil {
		return nil, err
	}

	posts, err := api.Posts(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := api.Profile(ctx, result.User.ID)
	if err != nil {
		return nil, err
	}

	feed := client.NewFeed(api, result.User.Summary(), func(key string, err error) {
		color.Red("❌ %s: rolled back: %v", key, err)
	})
	feed.Load(posts, profile.Bookmarks, profile.Following)

	return &feedSession{api: api, user: result.User, feed: feed}, nil
}

func createWatchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream presence, notifications and messages until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, err := client.NewSession(opts.url)
			if err != nil {
				return err
			}
			session.OnPresence = func(ids []string) {
				color.Cyan("● online (%d): %s", len(ids), strings.Join(ids, ", "))
			}
			session.OnMessage = func(m models.Message) {
				color.Magenta("✉ %s: %s", m.SenderID, m.Message)
			}

			var seen int
			session.Notifications.Subscribe(func() {
				printNotifications(session.Notifications, &seen)
			})

			if err := session.SignIn(ctx, opts.email, opts.password); err != nil {
				return err
			}
			color.Green("✅ signed in as %s, watching (Ctrl+C to stop)", session.User().Username)

			select {
			case <-ctx.Done():
				color.Yellow("\n🛑 signing out...")
			case <-session.Socket().Done():
				color.Yellow("🛑 connection closed by server")
			}

			signOutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return session.SignOut(signOutCtx)
		},
	}
}

// printNotifications prints the entries that arrived since the last call.
// A removal (dislike, unfollow) only shrinks the total, so nothing prints.
func printNotifications(store *client.NotificationStore, seen *int) {
	all := append(append(store.Likes(), store.Follows()...), store.Comments()...)
	if len(all) <= *seen {
		*seen = len(all)
		return
	}

	latest := all[0]
	for _, n := range all[1:] {
		if n.Timestamp.After(latest.Timestamp) {
			latest = n
		}
	}
	*seen = len(all)

	line := fmt.Sprintf("🔔 %s: %s", latest.Actor.Username, latest.Message)
	if latest.CommentText != "" {
		line += fmt.Sprintf(" %q", latest.CommentText)
	}
	color.Yellow("%s", line)
}

func createPostsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "posts",
		Short: "List posts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.signIn(cmd.Context())
			if err != nil {
				return err
			}
			posts, err := s.api.Posts(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range posts {
				like := s.feed.Like(p.ID)
				mark := " "
				if like.Liked {
					mark = "♥"
				}
				color.New(color.Bold).Printf("%s  %s", p.ID, p.Author.Username)
				fmt.Printf("  %s %d  💬 %d  %s\n", mark, like.Count, len(p.Comments), p.Caption)
			}
			return nil
		},
	}
}

func createLikeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Toggle your like on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.signIn(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.feed.ToggleLike(cmd.Context(), args[0]); err != nil {
				return err
			}
			like := s.feed.Like(args[0])
			if like.Liked {
				color.Green("♥ liked (%d)", like.Count)
			} else {
				color.Green("♡ like removed (%d)", like.Count)
			}
			return nil
		},
	}
}

func createBookmarkCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bookmark <post-id>",
		Short: "Toggle a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.signIn(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.feed.ToggleBookmark(cmd.Context(), args[0]); err != nil {
				return err
			}
			if s.feed.Bookmarked(args[0]) {
				color.Green("🔖 saved")
			} else {
				color.Green("🔖 unsaved")
			}
			return nil
		},
	}
}

func createCommentCmd(opts *globalOptions) *cobra.Command {
	var remove string

	cmd := &cobra.Command{
		Use:   "comment <post-id> [text...]",
		Short: "Comment on a post, or delete a comment with --delete",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.signIn(cmd.Context())
			if err != nil {
				return err
			}
			postID := args[0]

			if remove != "" {
				if err := s.feed.DeleteComment(cmd.Context(), postID, remove); err != nil {
					return err
				}
				color.Green("🗑 comment deleted")
				return nil
			}

			if err := s.feed.AddComment(cmd.Context(), postID, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			comments := s.feed.Comments(postID)
			color.Green("💬 comment %s added", comments[len(comments)-1].ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&remove, "delete", "", "id of a comment to delete instead")
	return cmd
}

func createFollowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "follow <user-id>",
		Short: "Toggle following a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.signIn(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.feed.ToggleFollow(cmd.Context(), args[0]); err != nil {
				return err
			}
			if s.feed.Following(args[0]) {
				color.Green("➕ following %s", args[0])
			} else {
				color.Green("➖ unfollowed %s", args[0])
			}
			return nil
		},
	}
}

func createSendCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <user-id> <text...>",
		Short: "Send a direct message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.signIn(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := s.api.SendMessage(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			color.Green("✉ sent (%s)", msg.ID)
			return nil
		},
	}
}

func createOnlineCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "online",
		Short: "Show who is online",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.signIn(cmd.Context())
			if err != nil {
				return err
			}
			online, err := s.api.Online(cmd.Context())
			if err != nil {
				return err
			}
			color.Cyan("● %d online, %d open connections", len(online.OnlineUsers), online.Connections)
			for _, id := range online.OnlineUsers {
				fmt.Println("  " + id)
			}
			return nil
		},
	}
}
