package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eringen/folio/scaffold"
)

func newInitCmd() *cobra.Command {
	var name, author, siteURL string
	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Create a new site",
		Long: `Create a new site in dir with a config file, a sample projects file, a
first post and a .env holding a freshly generated session secret.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if name == "" {
				name = toTitle(filepath.Base(dir))
			}
			secret, err := newSecret()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Creating new folio site: %s\n\n", dir)
			if err := scaffold.Generate(dir, scaffold.Data{
				SiteName:      name,
				Author:        author,
				URL:           siteURL,
				SessionSecret: secret,
			}, out); err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Done! Next steps:")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  cd %s\n", dir)
			fmt.Fprintln(out, "  set -a; . ./.env; set +a")
			fmt.Fprintln(out, "  folio serve --config folio.yaml")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Site name (default: derived from dir)")
	cmd.Flags().StringVar(&author, "author", "", "Author name")
	cmd.Flags().StringVar(&siteURL, "url", "http://localhost:5000", "Canonical site URL")
	return cmd
}

func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// toTitle converts a hyphenated name to a title-case string.
// e.g. "my-site" -> "My Site"
func toTitle(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "-", " "))
}
