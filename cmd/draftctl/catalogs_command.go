package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newCatalogsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs [name]",
		Short: "List variant catalogs, or the members of one catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.library()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				var rows [][]string
				for _, c := range lib.Catalogs() {
					rows = append(rows, []string{c.Name, strconv.Itoa(len(c.Members))})
				}
				fmt.Fprintln(out, renderTable([]string{"Catalog", "Members"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			}

			c, ok := lib.Catalog(args[0])
			if !ok {
				return fmt.Errorf("unknown catalog %q", args[0])
			}
			var rows [][]string
			for _, m := range c.Members {
				duration := ""
				if m.Duration > 0 {
					duration = strconv.FormatInt(m.Duration, 10)
				}
				params := make([]string, 0, len(m.Params))
				for _, p := range m.Params {
					params = append(params, p.Name)
				}
				rows = append(rows, []string{m.Name, m.Title, duration, strings.Join(params, ", ")})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Member", "Title", "Duration (us)", "Params"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "resolve <set> <value>",
		Short:   "Resolve a raw name against a catalog set",
		Example: `  draftctl resolve masks MaskType.圆形
  draftctl resolve video_effects "复古 DV"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.library()
			if err != nil {
				return err
			}
			v, err := lib.Resolve(args[0], args[1], "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
}
