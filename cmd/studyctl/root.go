package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"studiora/backend/internal/config"
	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/filestore"
	"studiora/backend/internal/preferences"
	"studiora/backend/internal/service"
)

const (
	appName = "studyctl"
	// localOwner keys the snapshots of the single local device user.
	localOwner = "local"
)

type rootOptions struct {
	dataDir      string
	settingsPath string
	logLevel     string
}

// app holds the services a command runs against.
type app struct {
	settingsPath string
	logger       *slog.Logger
	tasks        *service.TaskService
	notes        *service.NoteService
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Manage study tasks, notes and focus sessions from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "directory holding local task and note snapshots")
	cmd.PersistentFlags().StringVar(&opts.settingsPath, "settings", "", "path to the timer settings YAML file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "WARN", "log level (DEBUG, INFO, WARN, ERROR)")

	cmd.AddCommand(newTasksCmd(opts), newNotesCmd(opts), newTimerCmd(opts))
	return cmd
}

func (o *rootOptions) open(cmd *cobra.Command) (*app, error) {
	logger := config.NewLogger(o.logLevel, cmd.ErrOrStderr())

	dataDir := o.dataDir
	if dataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		dataDir = filepath.Join(base, appName, "data")
	}
	store, err := filestore.New(dataDir)
	if err != nil {
		return nil, err
	}

	settingsPath := o.settingsPath
	if settingsPath == "" {
		settingsPath, err = preferences.DefaultPath(appName)
		if err != nil {
			return nil, err
		}
	}

	return &app{
		settingsPath: settingsPath,
		logger:       logger,
		tasks:        service.NewTaskService(store, logger),
		notes:        service.NewNoteService(store, logger, time.Now),
	}, nil
}

// check turns a service error into a plain error without the nil-interface trap.
func check(apiErr *apperrors.APIError) error {
	if apiErr == nil {
		return nil
	}
	return apiErr
}

func warnUnsynced(cmd *cobra.Command, synced bool) {
	if !synced {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: change kept in memory but could not be saved")
	}
}
