package status

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var headers = []string{"System", "Target", "Type", "Status", "Last Success", "Details"}

func healthColor(h Health) tcell.Color {
	switch h {
	case HealthOK:
		return tcell.ColorGreen
	case HealthStale:
		return tcell.ColorYellow
	case HealthRunning:
		return tcell.ColorAqua
	default:
		return tcell.ColorRed
	}
}

// ShowTUI renders the dashboard as a full-screen table; q, Esc, or Ctrl+C
// closes it.
func ShowTUI(rows []Row) error {
	app := tview.NewApplication()

	table := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true).
		SetTitle(" Backup Status ").
		SetTitleAlign(tview.AlignCenter)

	for col, header := range headers {
		table.SetCell(0, col, tview.NewTableCell(header).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}

	for i, row := range rows {
		cells := []string{row.System, row.Target, row.Kind, string(row.Health), row.Age, row.Details}
		for col, text := range cells {
			cell := tview.NewTableCell(text)
			if col == 3 {
				cell.SetTextColor(healthColor(row.Health))
			}
			table.SetCell(i+1, col, cell)
		}
	}

	table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape:
			app.Stop()
			return nil
		case event.Rune() == 'q':
			app.Stop()
			return nil
		}
		return event
	})

	return app.SetRoot(table, true).Run()
}
