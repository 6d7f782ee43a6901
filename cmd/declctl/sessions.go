package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"declbot/internal/catalog"
	"declbot/internal/config"
	"declbot/internal/conversation"
	"declbot/internal/domain"
	"declbot/internal/port"
	"declbot/internal/repository/filestore"
	"declbot/internal/repository/redisstore"
	"declbot/internal/repository/sqlstore"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and purge persisted conversation sessions",
	}
	cmd.AddCommand(newSessionsListCmd(a), newSessionsPurgeCmd(a))
	return cmd
}

func newSessionsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := a.openSessionStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			sessions, err := store.LoadAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading sessions: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, s := range sessions {
				fmt.Fprintf(out, "%d\t%s\tpositions=%d\tupdated=%s\n",
					s.UserID, s.Step, len(s.Positions), s.UpdatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newSessionsPurgeCmd(a *app) *cobra.Command {
	var idle time.Duration
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete sessions idle for longer than --idle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, closeStore, err := a.openSessionStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			// Purging goes through the engine so removal follows the same rules as the server janitor.
			engine := conversation.NewEngine(catalog.Default(), domain.DefaultLineItemConstants, store, nil, a.log)
			if _, err := engine.Load(ctx); err != nil {
				return err
			}
			n, err := engine.PurgeIdle(ctx, idle)
			if err != nil {
				return err
			}
			a.log.Info("idle sessions purged", zap.Int("count", n), zap.Duration("idle", idle))
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d session(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&idle, "idle", 72*time.Hour, "idle time after which a session is purged")
	return cmd
}

func (a *app) openSessionStore(cmd *cobra.Command) (port.SessionStore, func(), error) {
	switch a.cfg.Session.Store {
	case config.SessionStoreFile:
		store, err := filestore.NewSessionStore(a.cfg.Session.Dir, a.log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case config.SessionStoreRedis:
		rdb, err := redisstore.NewClient(cmd.Context(), &a.cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.NewSessionStore(rdb, a.cfg.Redis.KeyPrefix, a.cfg.Session.IdleTTL, a.log),
			func() { _ = rdb.Close() }, nil
	default:
		db, err := sqlstore.NewDB(&a.cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return sqlstore.NewSessionRepo(db, a.log), func() { _ = db.Close() }, nil
	}
}
