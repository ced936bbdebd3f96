package main

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	service "github.com/okian/rosterlens/internal/app"
	"github.com/okian/rosterlens/internal/config"
	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/pkg/logger"
)

func snapshotCmd() *cobra.Command {
	var leagueID string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Build one snapshot and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, log logger.Logger) error {
				snap, err := buildOnce(ctx, cfg, log, leagueID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), snap)
			})
		},
	}
	cmd.Flags().StringVar(&leagueID, "league", "", "Sleeper league id (empty = default mode)")
	return cmd
}

func tiersCmd() *cobra.Command {
	var (
		leagueID string
		position string
		scope    string
		week     int
	)
	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "Print the tiers of one position",
		RunE: func(cmd *cobra.Command, args []string) error {
			pos := model.ParsePosition(position)
			if pos == model.Other {
				return fmt.Errorf("unsupported position %q", position)
			}
			sc, err := model.ParseScope(scope)
			if err != nil {
				return err
			}
			return run(func(ctx context.Context, cfg *config.Config, log logger.Logger) error {
				snap, err := buildOnce(ctx, cfg, log, leagueID)
				if err != nil {
					return err
				}
				return printTiers(cmd.OutOrStdout(), snap, sc, week, pos)
			})
		},
	}
	cmd.Flags().StringVar(&leagueID, "league", "", "Sleeper league id; owners are shown next to players")
	cmd.Flags().StringVar(&position, "position", "RB", "Position: QB, RB, WR or TE")
	cmd.Flags().StringVar(&scope, "scope", "dynasty", "Scope: dynasty, draft or weekly")
	cmd.Flags().IntVar(&week, "week", 0, "Week for weekly scope")
	return cmd
}

func buildOnce(ctx context.Context, cfg *config.Config, log logger.Logger, leagueID string) (*service.Snapshot, error) {
	svc, err := newService(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer svc.Close()
	return svc.GetSnapshot(ctx, leagueID)
}

func printJSON(w io.Writer, v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTiers writes one line per tier: "Tier 1: Name (owner), Name".
func printTiers(w io.Writer, snap *service.Snapshot, scope model.Scope, week int, pos model.Position) error {
	names := make(map[string]string, len(snap.Players))
	for _, p := range snap.Players {
		names[p.ID] = p.Name
	}
	tiers := snap.TiersFor(scope, week, pos)
	if len(tiers) == 0 {
		_, err := fmt.Fprintf(w, "no %s tiers for %s\n", pos, scope)
		return err
	}
	for _, t := range tiers {
		label := fmt.Sprintf("Tier %d", t.Index)
		if t.Unranked {
			label = "Unranked"
		}
		if _, err := fmt.Fprintf(w, "%s:", label); err != nil {
			return err
		}
		for i, id := range t.PlayerIDs {
			sep := ","
			if i == 0 {
				sep = ""
			}
			name := names[id]
			if name == "" {
				name = id
			}
			if snap.Board != nil {
				if owner := snap.Board.Owner(id); owner != "" {
					name += " (" + owner + ")"
				}
			}
			fmt.Fprintf(w, "%s %s", sep, name)
		}
		fmt.Fprintln(w)
	}
	if snap.Stale {
		fmt.Fprintln(os.Stderr, "warning: snapshot is stale")
	}
	return nil
}
