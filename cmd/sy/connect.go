package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/zulandar/switchyard/internal/config"
	"github.com/zulandar/switchyard/internal/db"
	"github.com/zulandar/switchyard/internal/notify"
	"github.com/zulandar/switchyard/internal/notify/discord"
	"github.com/zulandar/switchyard/internal/notify/slack"
	"github.com/zulandar/switchyard/internal/project"
	"gorm.io/gorm"
)

const defaultConfigPath = "switchyard.yaml"

// loadConfig reads configPath, falling back to defaults when the file does not exist.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// connectFromConfig opens the configured store, migrates it and, unless
// disabled, runs the repair pass before returning.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", cfg.Database.Driver, err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		db.Close(gormDB)
		return nil, nil, err
	}

	if cfg.RepairOnStart() {
		result, err := project.Repair(context.Background(), gormDB, project.RepairOpts{Workers: cfg.Repair.Workers})
		if err != nil {
			db.Close(gormDB)
			return nil, nil, err
		}
		if n := len(result.Details); n > 0 {
			log.Printf("sy: repaired %d project(s), %d task(s) remapped", n, result.TasksRemapped)
		}
	}
	return cfg, gormDB, nil
}

// buildNotifier fans out to every configured chat webhook.
func buildNotifier(cfg *config.Config) (notify.Notifier, error) {
	var targets notify.Multi
	if cfg.Notify.SlackWebhookURL != "" {
		targets = append(targets, slack.NewWebhook(cfg.Notify.SlackWebhookURL))
	}
	if cfg.Notify.DiscordWebhookID != "" {
		w, err := discord.NewWebhook(cfg.Notify.DiscordWebhookID, cfg.Notify.DiscordWebhookToken)
		if err != nil {
			return nil, err
		}
		targets = append(targets, w)
	}
	if len(targets) == 0 {
		return notify.Nop{}, nil
	}
	return targets, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
