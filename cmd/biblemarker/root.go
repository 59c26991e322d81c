package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kittclouds/biblemarker/internal/cache"
	"github.com/kittclouds/biblemarker/internal/conductor"
	"github.com/kittclouds/biblemarker/internal/config"
	"github.com/kittclouds/biblemarker/internal/logging"
	"github.com/kittclouds/biblemarker/internal/store"
	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

var version = "0.1.0"

// app carries the resolved configuration between the root command and its
// subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "biblemarker",
		Short: "Bible verse annotation engine",
		Long: `biblemarker stores highlights, underlines and symbols on Bible verses
by word index, applies keyword presets and renders annotated verses.

Configuration comes from --config, BIBLEMARKER_* environment variables and flags.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = c
			c.InitLogging()
			logging.Debug("config_loaded", "db", c.DBPath, "translation", c.Translation)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.String("db", "", "SQLite database path (:memory: keeps nothing)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("translation", "", "translation name used in cache keys")
	pf.String("presets", "", "JSON file of keyword presets")

	for key, flag := range map[string]string{
		config.KeyDBPath:      "db",
		config.KeyLogLevel:    "log-level",
		config.KeyLogFormat:   "log-format",
		config.KeyTranslation: "translation",
		config.KeyPresetsFile: "presets",
	} {
		// Lookup cannot fail for flags registered above.
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		a.renderCmd(),
		a.resolveCmd(),
		a.markCmd(),
		a.deleteCmd(),
		a.presetsCmd(),
		a.exportCmd(),
		a.importCmd(),
	)
	return root
}

// session is one open store plus the conductor and active presets.
type session struct {
	st      store.Storer
	c       *conductor.Conductor
	presets []keyword.Preset
}

func (a *app) open() (*session, error) {
	st, err := store.NewSQLiteStoreWithDSN(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	vc, err := cache.New(a.cfg.CacheSize)
	if err != nil {
		st.Close()
		return nil, err
	}
	c := conductor.New(st, vc, a.cfg.Translation)

	stored, err := c.Presets()
	if err != nil {
		st.Close()
		return nil, err
	}
	fromFile, err := config.LoadPresets(a.cfg.PresetsFile)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &session{st: st, c: c, presets: mergePresets(stored, fromFile)}, nil
}

func (s *session) Close() error {
	return s.st.Close()
}

// mergePresets returns stored presets with file presets of the same id
// replacing them and new ones appended.
func mergePresets(stored, fromFile []keyword.Preset) []keyword.Preset {
	out := append([]keyword.Preset(nil), stored...)
	idx := make(map[string]int, len(out))
	for i, p := range out {
		idx[p.ID] = i
	}
	for _, p := range fromFile {
		if i, ok := idx[p.ID]; ok {
			out[i] = p
			continue
		}
		idx[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

// verseFlags registers --ref and --text on cmd.
func verseFlags(cmd *cobra.Command, ref, text *string) {
	cmd.Flags().StringVar(ref, "ref", "", `verse reference, e.g. "John 11:35"`)
	cmd.Flags().StringVar(text, "text", "", "canonical verse text")
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("text")
}

func parseVerse(ref, text string) (conductor.Verse, error) {
	r, err := annotation.ParseVerseRef(ref)
	if err != nil {
		return conductor.Verse{}, err
	}
	return conductor.Verse{Ref: r, Text: text}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
