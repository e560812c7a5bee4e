package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/justyntemme/linga-t/internal/comic"
	"github.com/justyntemme/linga-t/internal/library"
)

func newPagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "pages PATH",
		Short:   "List the pages of a book in reading order",
		Example: `  linga-t pages ~/comics/akira-01.cbz`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			dir := library.NewDir(filepath.Dir(abs))
			id := library.EncodeID(filepath.Base(abs))

			desc, err := dir.Descriptor(id)
			if err != nil {
				return err
			}
			archive, err := dir.Open(id)
			if err != nil {
				return err
			}

			pages := comic.NewRegistry(desc.Pages)
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("#", "NAME", "TYPE")
			for _, page := range pages.Pages() {
				_, contentType, err := archive.ReadPage(page.Position)
				if err != nil {
					contentType = "error: " + err.Error()
				}
				t.Row(strconv.Itoa(page.Position), page.Name, contentType)
			}

			fmt.Fprintln(cmd.OutOrStdout(), desc.Name)
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			fmt.Fprintf(cmd.OutOrStdout(), "%d pages\n", pages.Count())
			return nil
		},
	}
}
