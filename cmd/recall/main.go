package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/recall/internal/config"
	"github.com/agenthands/recall/internal/core"
	"github.com/agenthands/recall/internal/server"
)

var (
	cfgPath   string
	userID    string
	utterance string
	dryRun    bool
	asJSON    bool
)

func main() {
	root := &cobra.Command{
		Use:   "recall",
		Short: "Extract memory facts from conversation and upsert them into the attribute store",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config/config.toml", "path to TOML config")
	root.PersistentFlags().StringVar(&userID, "user-id", "", "canonical user id")
	root.PersistentFlags().StringVar(&utterance, "utterance", "", "the user's latest message")
	root.MarkPersistentFlagRequired("user-id")
	root.MarkPersistentFlagRequired("utterance")

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Extract candidates and upsert them for the user",
		RunE:  runUpdate,
	}
	updateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only extract; do not upsert")
	updateCmd.Flags().BoolVar(&asJSON, "json", false, "print candidates as JSON")

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch stored attributes relevant to the utterance",
		RunE:  runGet,
	}

	root.AddCommand(updateCmd, getCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildMemory() (server.Memorizer, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Warn("Could not load config file, starting from empty config", "path", cfgPath, "err", err)
		cfg = &config.Config{}
	}
	cfg.ApplyEnv()

	srv, err := server.NewServer(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return srv.Memory, nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	memory, err := buildMemory()
	if err != nil {
		return err
	}

	candidates, report, err := memory.Update(cmd.Context(), core.UpdateInput{
		UserID:    userID,
		Utterance: utterance,
		DryRun:    dryRun,
	})
	if err != nil {
		return err
	}

	if asJSON {
		out, err := json.MarshalIndent(candidates, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		for _, c := range candidates {
			fmt.Printf("- %s: %s = %s\n", c.Entity, c.Attribute, c.Value)
		}
	}

	if report != nil {
		fmt.Printf("\n%s\n", report)
		for _, d := range report.Details {
			old := "<none>"
			if d.OldValue != nil {
				old = *d.OldValue
			}
			line := fmt.Sprintf("  %s: %s (%q -> %q)", d.Attribute, d.Action, old, d.NewValue)
			if d.Error != "" {
				line += " ERROR=" + d.Error
			}
			fmt.Println(line)
		}
	}
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	memory, err := buildMemory()
	if err != nil {
		return err
	}

	rows := memory.Get(cmd.Context(), userID, utterance)
	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
