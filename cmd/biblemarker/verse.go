package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kittclouds/biblemarker/internal/conductor"
	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/render"
	"github.com/kittclouds/biblemarker/pkg/words"
)

func (a *app) renderCmd() *cobra.Command {
	var ref, text string
	var asJSON bool
	var glyphs map[string]string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a verse with its annotations",
		Long:  `Merge stored annotations with keyword preset matches and print the verse as HTML, or as segments with --json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVerse(ref, text)
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if asJSON {
				out, err := s.c.RenderVerse(v, s.presets)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			if err := s.c.RenderHTML(cmd.OutOrStdout(), render.New(glyphs), v, s.presets); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout())
			return err
		},
	}
	verseFlags(cmd, &ref, &text)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print segments as JSON")
	cmd.Flags().StringToStringVar(&glyphs, "glyph", nil, "symbol glyphs, e.g. --glyph crown=♛")
	return cmd
}

func (a *app) resolveCmd() *cobra.Command {
	var ref, text string
	var capture conductor.Capture

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a selection to word indices without saving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVerse(ref, text)
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			span, ok, err := s.c.ResolveSelection(v, capture)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %q", conductor.ErrUnresolvedSelection, capture.Selected)
			}
			chars, _ := words.WordIndicesToCharOffsets(v.Text, span.Start, span.End)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "words %d-%d chars %d-%d %q\n",
				span.Start, span.End, chars.Start, chars.End, chars.Slice(v.Text))
			return err
		},
	}
	verseFlags(cmd, &ref, &text)
	captureFlags(cmd, &capture)
	return cmd
}

func (a *app) markCmd() *cobra.Command {
	var ref, text string
	var capture conductor.Capture
	var kind, underline, position string
	var m conductor.Mark

	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Resolve a selection and save an annotation on it",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVerse(ref, text)
			if err != nil {
				return err
			}
			m.Kind = annotation.StyleKind(kind)
			if m.Kind != "" && !m.Kind.IsValid() {
				return fmt.Errorf("unknown annotation type %q", kind)
			}
			m.Underline = annotation.UnderlineStyle(underline)
			m.Position = annotation.SymbolPosition(position)

			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			created, err := s.c.MarkSelection(v, capture, m)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), created)
		},
	}
	verseFlags(cmd, &ref, &text)
	captureFlags(cmd, &capture)
	f := cmd.Flags()
	f.StringVar(&m.CollectionID, "collection", "", "collection id (default \"default\")")
	f.StringVar(&kind, "type", "", "highlight, textColor or underline")
	f.StringVar(&m.Color, "color", "", "CSS color")
	f.StringVar(&underline, "underline", "", "underline style: solid, dotted, dashed, double, wavy")
	f.StringVar(&m.Symbol, "symbol", "", "symbol key; creates a symbol annotation")
	f.StringVar(&position, "position", "", "symbol position: center, before, after")
	return cmd
}

func captureFlags(cmd *cobra.Command, c *conductor.Capture) {
	cmd.Flags().StringVar(&c.Selected, "selected", "", "selected text")
	cmd.Flags().StringVar(&c.Preceding, "preceding", "", "text before the selection on screen")
	_ = cmd.MarkFlagRequired("selected")
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <annotation-id>",
		Short: "Delete a stored annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.c.Delete(args[0])
		},
	}
}
