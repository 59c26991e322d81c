package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

func (a *app) presetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage keyword presets",
		Long:  `Keyword presets mark every whole-word occurrence of a word and its variants on render.`,
	}
	cmd.AddCommand(a.presetsAddCmd(), a.presetsListCmd(), a.presetsRemoveCmd())
	return cmd
}

func (a *app) presetsAddCmd() *cobra.Command {
	var p keyword.Preset
	var style, underline, position string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a keyword preset",
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Style = annotation.StyleKind(style)
			p.Underline = annotation.UnderlineStyle(underline)
			p.Position = annotation.SymbolPosition(position)

			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.c.SavePreset(p)
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.ID, "id", "", "preset id")
	f.StringVar(&p.Word, "word", "", "keyword")
	f.StringSliceVar(&p.Variants, "variant", nil, "additional surface forms")
	f.StringVar(&p.Symbol, "symbol", "", "symbol key; matches become symbol annotations")
	f.StringVar(&position, "position", "", "symbol position")
	f.StringVar(&style, "style", "", "highlight, textColor or underline")
	f.StringVar(&p.Color, "color", "", "CSS color")
	f.StringVar(&underline, "underline", "", "underline style")
	f.BoolVar(&p.AllowStopWords, "allow-stop-words", false, "match single stop words such as \"the\"")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("word")
	return cmd
}

func (a *app) presetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active keyword presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if len(s.presets) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No presets.")
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWORD\tVARIANTS\tSYMBOL\tSTYLE\tCOLOR")
			for _, p := range s.presets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.Word, strings.Join(p.Variants, ","), p.Symbol, p.Style, p.Color)
			}
			return w.Flush()
		},
	}
}

func (a *app) presetsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <preset-id>",
		Short: "Remove a stored keyword preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.c.DeletePreset(args[0])
		},
	}
}
