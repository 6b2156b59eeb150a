package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ConnectInfo is one row of the connect status table.
type ConnectInfo struct {
	Project     string
	Current     string
	Requirement string
}

var headers = []string{"Project", "Current", "Requirement"}

// ParseRows keeps rows with at least three cells and trims the first three.
func ParseRows(rows [][]string) []ConnectInfo {
	info := make([]ConnectInfo, 0, len(rows))
	for _, cells := range rows {
		if len(cells) < 3 {
			continue
		}
		info = append(info, ConnectInfo{
			Project:     strings.TrimSpace(cells[0]),
			Current:     strings.TrimSpace(cells[1]),
			Requirement: strings.TrimSpace(cells[2]),
		})
	}
	return info
}

func Table(info []ConnectInfo) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, row := range info {
		t.Row(row.Project, row.Current, row.Requirement)
	}

	return t.String()
}

// Render writes a banner naming the user followed by the table.
func Render(w io.Writer, user string, info []ConnectInfo) error {
	if _, err := fmt.Fprintf(w, "--------------Connect Info for %s-----------------\n", user); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, Table(info))
	return err
}
