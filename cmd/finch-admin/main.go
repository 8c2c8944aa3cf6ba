// ABOUTME: Admin CLI for finch-store conversation and retention management
// ABOUTME: Operates directly on the local stores, no daemon required

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/2389/finch-store/internal/config"
	"github.com/2389/finch-store/internal/deleter"
	"github.com/2389/finch-store/internal/notify"
	"github.com/2389/finch-store/internal/retention"
	"github.com/2389/finch-store/internal/store"
	"github.com/2389/finch-store/internal/telephony"
)

const banner = `
   __ _            _                     _           _
  / _(_)_ __   ___| |__         __ _  __| |_ __ ___ (_)_ __
 | |_| | '_ \ / __| '_ \ _____ / _' |/ _' | '_ ' _ \| | '_ \
 |  _| | | | | (__| | | |_____| (_| | (_| | | | | | | | | | |
 |_| |_|_| |_|\___|_| |_|      \__,_|\__,_|_| |_| |_|_|_| |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Admin output stays quiet unless something is wrong
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "create":
		err = cmdCreate(ctx, args)
	case "delete":
		err = cmdDelete(ctx, args)
	case "undelete":
		err = cmdUndelete(ctx, args)
	case "list-deleted":
		err = cmdListDeleted(ctx)
	case "get-retention":
		err = cmdGetRetention(ctx)
	case "set-retention":
		err = cmdSetRetention(ctx, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: finch-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  create --participant <addr> [--thread <id>]  Create a conversation")
	fmt.Println("  delete <conversation-id>                     Delete a conversation")
	fmt.Println("  undelete <conversation-id>                   Restore a soft-deleted conversation")
	fmt.Println("  list-deleted                                 List soft-deleted conversations")
	fmt.Println("  get-retention                                Show the retention period")
	fmt.Println("  set-retention <days>                         Set the retention period (0-999)")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  FINCH_CONFIG    Config file path (default: ~/.config/finch/store.yaml)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  finch-admin create --participant \"+15550123\" --thread 42")
	fmt.Println("  finch-admin delete 3f6c...")
	fmt.Println("  finch-admin set-retention 30")
	fmt.Println()
}

// getConfigPath mirrors the daemon's config resolution.
func getConfigPath() string {
	if envPath := os.Getenv("FINCH_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "store.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "finch", "store.yaml")
}

// openStore opens the local conversation store from the config.
func openStore() (*store.SQLiteStore, *config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening conversation store: %w", err)
	}
	return s, cfg, nil
}

// openDeleter wires up the full deletion pipeline for commands that touch
// the telephony store as well.
func openDeleter() (*deleter.Deleter, *store.SQLiteStore, func(), error) {
	s, cfg, err := openStore()
	if err != nil {
		return nil, nil, nil, err
	}

	provider, err := telephony.NewSQLiteProvider(cfg.Telephony.Path)
	if err != nil {
		s.Close()
		return nil, nil, nil, fmt.Errorf("opening telephony store: %w", err)
	}

	broadcaster := notify.NewBroadcaster(slog.Default())
	policy := retention.NewPolicy(s, cfg.Retention.ResolvedDefaultDays(), nil)
	del := deleter.New(s, provider, policy, broadcaster, nil)

	cleanup := func() {
		broadcaster.Close()
		provider.Close()
		s.Close()
	}
	return del, s, cleanup, nil
}

func cmdCreate(ctx context.Context, args []string) error {
	var participant string
	threadID := int64(store.NoThreadID)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--participant", "-p":
			if i+1 >= len(args) {
				return fmt.Errorf("--participant requires a value")
			}
			participant = args[i+1]
			i++
		case "--thread", "-t":
			if i+1 >= len(args) {
				return fmt.Errorf("--thread requires a value")
			}
			id, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid thread id %q: %w", args[i+1], err)
			}
			threadID = id
			i++
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	if participant == "" {
		return fmt.Errorf("--participant flag is required")
	}

	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	now := time.Now()
	conv := &store.Conversation{
		ID:          uuid.New().String(),
		Participant: participant,
		ThreadID:    threadID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.CreateConversation(ctx, conv); err != nil {
		return fmt.Errorf("creating conversation: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Created conversation: %s\n", conv.ID)
	return nil
}

func cmdDelete(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: finch-admin delete <conversation-id>")
	}
	conversationID := args[0]

	del, _, cleanup, err := openDeleter()
	if err != nil {
		return err
	}
	defer cleanup()

	if !del.DeleteConversation(ctx, conversationID, store.DeleteAllMessages) {
		return fmt.Errorf("deleting conversation %s failed", conversationID)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Deleted conversation: %s\n", conversationID)
	return nil
}

func cmdUndelete(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: finch-admin undelete <conversation-id>")
	}
	conversationID := args[0]

	del, _, cleanup, err := openDeleter()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := del.Undelete(ctx, conversationID); err != nil {
		return fmt.Errorf("restoring conversation: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Restored conversation: %s\n", conversationID)
	return nil
}

func cmdListDeleted(ctx context.Context) error {
	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	deleted, err := s.ListSoftDeleted(ctx)
	if err != nil {
		return fmt.Errorf("listing soft-deleted conversations: %w", err)
	}

	if len(deleted) == 0 {
		fmt.Println("No soft-deleted conversations.")
		return nil
	}

	days := s.GetIntPref(ctx, store.PrefRetentionDays, cfg.Retention.ResolvedDefaultDays())
	now := time.Now()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDELETED AT\tPURGE")
	for _, c := range deleted {
		deletedAt := time.UnixMilli(c.DeletedTimestamp).Format("2006-01-02 15:04")

		var purge string
		switch {
		case retention.Disabled(days):
			purge = "never (auto purge disabled)"
		case retention.Expired(days, c.DeletedTimestamp, now):
			purge = "next sweep"
		default:
			at := time.UnixMilli(c.DeletedTimestamp + int64(days)*retention.DayMillis)
			purge = at.Format("2006-01-02 15:04")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, deletedAt, purge)
	}
	return w.Flush()
}

func cmdGetRetention(ctx context.Context) error {
	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	days := s.GetIntPref(ctx, store.PrefRetentionDays, cfg.Retention.ResolvedDefaultDays())

	switch {
	case retention.Disabled(days):
		fmt.Printf("retention: %d (auto purge disabled)\n", days)
	case retention.Immediate(days):
		fmt.Printf("retention: %d (deletes are immediate and permanent)\n", days)
	default:
		fmt.Printf("retention: %d days\n", days)
	}
	return nil
}

func cmdSetRetention(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: finch-admin set-retention <days>")
	}

	days, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid retention days %q: %w", args[0], err)
	}

	clamped := retention.ClampDays(days)
	if clamped != days {
		color.Yellow("  clamped %d to %d\n", days, clamped)
	}

	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SetIntPref(ctx, store.PrefRetentionDays, clamped); err != nil {
		return fmt.Errorf("saving retention period: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Retention set to %d days\n", clamped)
	return nil
}
