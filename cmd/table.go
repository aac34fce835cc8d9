package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"cinema-ticket-cli/model"
)

var rowConfigAutoMerge = table.RowConfig{AutoMerge: true}

func newTable(out io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(header, rowConfigAutoMerge)
	return t
}

// renderPage prints the table with a paging footer.
func renderPage(t table.Writer, page, totalPage, total int) {
	if totalPage > 1 {
		t.AppendFooter(table.Row{fmt.Sprintf("page %d/%d", max(page, 1), totalPage), fmt.Sprintf("%d total", total)})
	}
	t.Render()
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().Int("per-page", 20, "results per page")
}

func pageParams(cmd *cobra.Command) model.ListParams {
	page, _ := cmd.Flags().GetInt("page")
	perPage, _ := cmd.Flags().GetInt("per-page")
	return model.ListParams{Page: page, PerPage: perPage}
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 {
		return 0, errors.Newf("invalid id %q", raw)
	}
	return id, nil
}

// parseIDs reads a comma separated id list such as "1,3,4".
func parseIDs(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatShowtime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Mon 02 Jan 15:04")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
