// Command chakradump is a debugging surface over the engine cores: it
// disassembles serialized regex programs and runs one-off matches against
// them.
package main

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	chakra "github.com/chakra-core/ChakraCore-sub024"
)

func main() {
	root := &cobra.Command{
		Use:           "chakradump",
		Short:         "Inspect engine artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRegexCommand())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "chakradump:", err)
		os.Exit(1)
	}
}

func newRegexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regex",
		Short: "Operate on serialized regex programs",
	}
	cmd.AddCommand(newRegexDumpCommand(), newRegexMatchCommand())
	return cmd
}

func newRegexDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <program-file>",
		Short: "Disassemble a regex program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			p, err := chakra.LoadRegexProgram(buf)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), p.Dump())
			return nil
		},
	}
}

func newRegexMatchCommand() *cobra.Command {
	var start uint32
	cmd := &cobra.Command{
		Use:   "match <program-file> <input>",
		Short: "Run a regex program against an input string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			p, err := chakra.LoadRegexProgram(buf)
			if err != nil {
				return err
			}

			input := utf16.Encode([]rune(args[1]))
			m := chakra.NewRegexMatcher(p)
			matched, err := m.Match(input, start)
			if err != nil {
				return err
			}
			if !matched {
				fmt.Fprintln(cmd.OutOrStdout(), "no match")
				return nil
			}

			rows := lo.Map(lo.Range(m.GroupCount()), func(i int, _ int) string {
				g := m.Group(i)
				if g.IsUndefined() {
					return fmt.Sprintf("g%d: <undefined>", i)
				}
				text := string(utf16.Decode(input[g.Offset:g.EndOffset()]))
				return fmt.Sprintf("g%d: (%d,%d) %q", i, g.Offset, g.Length, text)
			})
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(rows, "\n"))
			return nil
		},
	}
	cmd.Flags().Uint32Var(&start, "start", 0, "input offset to start matching at")
	return cmd
}
