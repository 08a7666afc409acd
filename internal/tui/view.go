package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderView() string {
	if m.Width == 0 {
		return "loading..."
	}

	header := titleStyle.Render("sync monitor") + "  " + subtleStyle.Render(m.Snapshot.RefreshedAt.Format("15:04:05"))
	if m.Refreshing {
		header += " " + m.Spinner.View()
	}

	if m.Snapshot.Err != nil {
		return header + "\n\n" + errStyle.Render("error: "+m.Snapshot.Err.Error()) + "\n\n" + m.helpLine()
	}

	queue := panelTitleStyle.Render("queue") + "\n" +
		fmt.Sprintf("%s %d   %s %d   %s %d",
			pendingStyle.Render("pending"), m.Snapshot.Pending,
			pushedStyle.Render("pushed"), m.Snapshot.Pushed,
			ackedStyle.Render("acked"), m.Snapshot.Acked,
		)

	state := panelTitleStyle.Render("state") + "\n" +
		fmt.Sprintf("last hlc:      %s\nremote cursor: %s",
			emptyDash(m.Snapshot.LastHLC), emptyDash(m.Snapshot.RemoteCursor))

	conflicts := panelTitleStyle.Render("recent conflicts") + "\n" + m.renderConflicts()

	body := lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Render(queue),
		panelStyle.Render(state),
		panelStyle.Render(conflicts),
	)

	view := header + "\n\n" + body + "\n\n" + m.helpLine()
	if m.ShowHelp {
		view += "\n" + helpStyle.Render("q: quit   r: refresh   ?: toggle this help")
	}
	return view
}

func (m Model) helpLine() string {
	return helpStyle.Render("press ? for help")
}

func (m Model) renderConflicts() string {
	if len(m.Snapshot.Conflicts) == 0 {
		return subtleStyle.Render("none")
	}

	var md strings.Builder
	md.WriteString("| table | row | remote_id |\n|---|---|---|\n")
	for _, c := range m.Snapshot.Conflicts {
		fmt.Fprintf(&md, "| %s | %s | %s |\n", c.TableName, c.RowID, c.RemoteID)
	}

	rendered, err := glamour.Render(md.String(), "dark")
	if err != nil {
		return md.String()
	}
	return strings.TrimRight(rendered, "\n")
}

func emptyDash(s string) string {
	if s == "" {
		return subtleStyle.Render("—")
	}
	return s
}
