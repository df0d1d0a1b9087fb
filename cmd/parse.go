// File: cmd/parse.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/wxauto/internal/lang"
	"github.com/xkilldash9x/wxauto/internal/observability"
	"github.com/xkilldash9x/wxauto/internal/parser"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newParseCmd exposes the text parser so captured control text can be
// inspected offline.
func newParseCmd() *cobra.Command {
	var file string
	var compact bool

	parseCmd := &cobra.Command{
		Use:   "parse",
		Short: "Parses captured control text into structured records",
		Long: `Parses the flattened text of a control, as captured from the accessibility
tree, into the record the automation layer would build from it. Input comes
from the arguments (joined by newlines), from --file, or from stdin.`,
	}
	parseCmd.PersistentFlags().StringVarP(&file, "file", "f", "", "read input from file ('-' for stdin)")
	parseCmd.PersistentFlags().BoolVar(&compact, "compact", false, "emit single-line JSON")

	sub := func(use, short string, fn func(p *parser.Parser, blob string) any) *cobra.Command {
		return &cobra.Command{
			Use:   use + " [text...]",
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := parserFor(cmd)
				if err != nil {
					return err
				}
				blob, err := readInput(cmd.InOrStdin(), file, args)
				if err != nil {
					return err
				}
				observability.GetLogger().Debug("Parsing input.",
					zap.String("kind", use), zap.String("language", p.Language()), zap.Int("bytes", len(blob)))
				return writeJSON(cmd.OutOrStdout(), fn(p, blob), compact)
			},
		}
	}

	parseCmd.AddCommand(
		sub("post", "Parses a feed post", func(p *parser.Parser, blob string) any {
			return p.FeedPost(blob)
		}),
		sub("comment", "Parses one comment line", func(p *parser.Parser, blob string) any {
			return p.Comment(strings.TrimSpace(blob))
		}),
		sub("likes", "Parses a likes line into names", func(p *parser.Parser, blob string) any {
			return p.Likes(strings.TrimSpace(blob))
		}),
		sub("session", "Parses a session list entry", func(p *parser.Parser, blob string) any {
			return p.Session(blob)
		}),
		sub("timestamp", "Reports which lines look like timestamps", func(p *parser.Parser, blob string) any {
			out := make(map[string]bool)
			for _, line := range parser.Lines(blob) {
				out[line] = p.IsTimestamp(line)
			}
			return out
		}),
	)
	return parseCmd
}

// parserFor builds the parser for the configured language.
func parserFor(cmd *cobra.Command) (*parser.Parser, error) {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	tables, err := lang.Load()
	if err != nil {
		return nil, fmt.Errorf("loading language tables: %w", err)
	}
	return parser.New(tables.For(cfg.Automation().Language))
}

func readInput(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file == "-":
		return readAll(stdin)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading input file: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, "\n"), nil
	}
	return readAll(stdin)
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any, compact bool) error {
	var (
		data []byte
		err  error
	)
	if compact {
		data, err = json.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
