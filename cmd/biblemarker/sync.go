package main

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
	"github.com/spf13/cobra"

	"github.com/kittclouds/biblemarker/internal/logging"
	"github.com/kittclouds/biblemarker/internal/snapshot"
)

// syncTarget maps a sync folder on disk to a filesystem and document path.
func (a *app) syncTarget(args []string) (hackpadfs.FS, string, error) {
	dir := a.cfg.SnapshotDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return nil, "", errors.New("no sync folder: pass one or set snapshot_dir")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", err
	}
	fsys := osfs.NewFS()
	rel, err := fsys.FromOSPath(abs)
	if err != nil {
		return nil, "", fmt.Errorf("sync folder %s: %w", dir, err)
	}
	return fsys, path.Join(rel, snapshot.DefaultFile), nil
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [folder]",
		Short: "Write all annotations, notes, headings and presets to a sync folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, name, err := a.syncTarget(args)
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := snapshot.Export(fsys, name, s.st)
			if err != nil {
				return err
			}
			logging.Info("snapshot_exported", "path", name, "annotations", stats.TextAnnotations+stats.SymbolAnnotations)
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [folder]",
		Short: "Load a sync folder into the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, name, err := a.syncTarget(args)
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := snapshot.Import(fsys, name, s.st)
			if err != nil {
				return err
			}
			logging.Info("snapshot_imported", "path", name, "annotations", stats.TextAnnotations+stats.SymbolAnnotations)
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
}
