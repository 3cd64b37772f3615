package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/climbing-section/backoffice/internal/app/export"
	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/wiring"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var season, format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a member roster to a file",
		Long: `Write the member roster as xlsx, csv or pdf labels.

--season takes a season id or "current"; without it every member is exported.
--out may be a file or a directory; the default file name is
members-<season|all>-<yyyymmdd>.<format>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			app, err := opts.openApp(cmd, wiring.Options{})
			if err != nil {
				return err
			}
			defer app.Close()

			var seasonID *domain.SeasonID
			switch season {
			case "":
			case "current":
				s, err := app.Seasons.GetCurrentSeason(cmd.Context())
				if err != nil {
					return err
				}
				seasonID = &s.ID
			default:
				id := domain.SeasonID(season)
				seasonID = &id
			}

			roster, err := app.Export.Roster(cmd.Context(), seasonID)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := app.Export.Write(&buf, roster, f); err != nil {
				return err
			}

			path := out
			name := export.FileName(roster, f)
			if path == "" {
				path = name
			} else if st, err := os.Stat(path); err == nil && st.IsDir() {
				path = filepath.Join(path, name)
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d rows\n", path, len(roster.Rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&season, "season", "", `season id or "current"`)
	cmd.Flags().StringVar(&format, "format", "xlsx", "xlsx, csv or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file or directory")
	return cmd
}
