package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/obra-dashboard/obra/internal/shared"
)

// NoStage labels the column of amounts without stage.
const NoStage = "Sem etapa"

// BuildOverview lays amounts out as categories x stages. Columns follow the
// stage order with a trailing "Sem etapa" column; categories without any
// amount are kept so the matrix lists every category.
func BuildOverview(categories, stages []shared.Option, amounts []Amount, now time.Time) Overview {
	columns := make([]shared.Option, 0, len(stages)+1)
	columns = append(columns, stages...)
	columns = append(columns, shared.Option{ID: 0, Name: NoStage})

	colIndex := make(map[int64]int, len(columns))
	for i, s := range columns {
		colIndex[s.ID] = i
	}
	rowIndex := make(map[int64]int, len(categories))
	ov := Overview{Stages: columns, GeneratedAt: now.UTC()}
	for i, c := range categories {
		rowIndex[c.ID] = i
		ov.Rows = append(ov.Rows, Row{Category: c, Cells: emptyCells(columns), Total: zeroCell(nil)})
	}
	ov.StageTotals = emptyCells(columns)
	ov.Total = zeroCell(nil)

	for _, a := range amounts {
		ri, ok := rowIndex[a.CategoryID]
		if !ok {
			continue
		}
		var stageKey int64
		if a.StageID != nil {
			stageKey = *a.StageID
		}
		ci, ok := colIndex[stageKey]
		if !ok {
			ci = len(columns) - 1
		}
		row := &ov.Rows[ri]
		add(&row.Cells[ci], a)
		add(&row.Total, a)
		add(&ov.StageTotals[ci], a)
		add(&ov.Total, a)
	}

	for i := range ov.Rows {
		for j := range ov.Rows[i].Cells {
			finish(&ov.Rows[i].Cells[j])
		}
		finish(&ov.Rows[i].Total)
	}
	for j := range ov.StageTotals {
		finish(&ov.StageTotals[j])
	}
	finish(&ov.Total)
	ov.Remaining = ov.Total.Budget.Sub(ov.Total.Spent)
	return ov
}

func emptyCells(columns []shared.Option) []Cell {
	cells := make([]Cell, len(columns))
	for i, col := range columns {
		var id *int64
		if col.ID != 0 {
			id = shared.Int64Ptr(col.ID)
		}
		cells[i] = zeroCell(id)
	}
	return cells
}

func zeroCell(stageID *int64) Cell {
	return Cell{StageID: stageID, Budget: decimal.Zero, Spent: decimal.Zero}
}

func add(c *Cell, a Amount) {
	c.Budget = c.Budget.Add(a.Budget)
	c.Spent = c.Spent.Add(a.Spent)
}

func finish(c *Cell) {
	c.UsedPercent = shared.RoundPercent(c.Spent, c.Budget)
}
