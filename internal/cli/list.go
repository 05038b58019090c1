package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/template"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List deployed sites",
	Long: `List every site definition with its domain, backend and status.

Examples:
  sitectl list
  sitectl ls --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

type siteListItem struct {
	Identifier string `json:"identifier"`
	Domain     string `json:"domain,omitempty"`
	Backend    string `json:"backend,omitempty"`
	SSL        bool   `json:"ssl"`
	Enabled    bool   `json:"enabled"`
	Error      string `json:"error,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}

	ids, err := s.drv.List()
	if err != nil {
		return err
	}

	items := make([]siteListItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, describeSite(s, id))
	}

	if s.out.JSONMode() {
		return s.out.JSON(items)
	}

	if len(items) == 0 {
		s.out.Info("No sites deployed")
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Identifier, dash(it.Domain), dash(it.Backend), yesNo(it.SSL), yesNo(it.Enabled)})
	}
	s.out.Table([]string{"IDENTIFIER", "DOMAIN", "BACKEND", "SSL", "ENABLED"}, rows)
	return nil
}

// describeSite reads one definition. A definition that cannot be read or
// parsed is still listed, with the reason.
func describeSite(s *session, id string) siteListItem {
	item := siteListItem{Identifier: id}
	item.Enabled, _ = s.drv.IsEnabled(id)

	text, err := s.drv.Read(id)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	d, err := template.Describe(text)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.Domain = d.Domain
	item.SSL = d.SSL
	if d.Port != 0 {
		item.Backend = backendURL(d.Port)
	}
	return item
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func backendURL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}
