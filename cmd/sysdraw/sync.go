package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sysdraw/sysdraw/backend-go/internal/auth"
	"github.com/sysdraw/sysdraw/backend-go/internal/config"
	"github.com/sysdraw/sysdraw/backend-go/internal/design"
	"github.com/sysdraw/sysdraw/backend-go/internal/draft"
	"github.com/sysdraw/sysdraw/backend-go/internal/session"
)

// remote holds the flags shared by commands that talk to the design service.
type remote struct {
	server string
	token  string
	drafts string
}

func (r *remote) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.server, "server", envOr("SYSDRAW_SERVER", "http://localhost:8080/api"), "design service base URL")
	cmd.Flags().StringVar(&r.token, "token", os.Getenv("SYSDRAW_TOKEN"), "bearer token")
	cmd.Flags().StringVar(&r.drafts, "drafts", "", "draft database path (default DRAFT_DB_PATH)")
}

// open returns a session over the draft cache and design client. The caller
// closes the returned draft store.
func (r *remote) open(cmd *cobra.Command) (*session.Session, *draft.SQLite, error) {
	path := r.drafts
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		path = cfg.DraftDBPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create draft directory: %w", err)
		}
	}
	drafts, err := draft.OpenSQLite(cmd.Context(), path)
	if err != nil {
		return nil, nil, err
	}
	return session.New(drafts, design.NewClient(r.server, r.token)), drafts, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func pullCmd() *cobra.Command {
	var (
		r   remote
		out string
	)
	cmd := &cobra.Command{
		Use:   "pull [design-id]",
		Short: "Load a design, preferring a local draft, and write it as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, drafts, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer drafts.Close()

			var id string
			if len(args) == 1 {
				id = args[0]
			}
			doc, src, err := s.Load(cmd.Context(), id)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "loaded %s from %s\n", draft.Key(id), src)
			return writeOutput(cmd, out, append(data, '\n'))
		},
	}
	r.bind(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func pushCmd() *cobra.Command {
	var (
		r     remote
		stash bool
	)
	cmd := &cobra.Command{
		Use:   "push <file|->",
		Short: "Save a document to the design service, or stash it as a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			s, drafts, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer drafts.Close()

			if stash {
				if err := s.Stash(cmd.Context(), doc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stashed %s\n", draft.Key(doc.ID))
				return nil
			}
			saved, err := s.Save(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
			return nil
		},
	}
	r.bind(cmd)
	cmd.Flags().BoolVar(&stash, "draft", false, "only write the local draft cache")
	return cmd
}

func draftsCmd() *cobra.Command {
	var r remote
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "List locally cached drafts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, drafts, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer drafts.Close()

			keys, err := drafts.Keys(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
	r.bind(cmd)
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		name string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a development bearer token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			svc, err := auth.NewService(cfg.JWTSecret)
			if err != nil {
				return err
			}
			tok, err := svc.IssueToken(auth.Identity{UserID: args[0], DisplayName: name}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	return cmd
}
