package audit

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

var csvHeader = []string{"Data", "Usuário", "Ação", "Entidade", "ID", "Detalhes"}

// WriteCSV writes rows as a semicolon separated file that spreadsheet
// software in pt-BR locales opens without an import wizard.
func WriteCSV(w io.Writer, rows []TimelineRow) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		meta := ""
		if len(row.Meta) > 0 {
			raw, err := json.Marshal(row.Meta)
			if err != nil {
				return err
			}
			meta = string(raw)
		}
		actor := row.ActorName()
		if row.ActorID != nil && row.Actor == "" {
			actor = "#" + strconv.FormatInt(*row.ActorID, 10)
		}
		if err := cw.Write([]string{
			row.At.Format("02/01/2006 15:04:05"),
			actor,
			row.Action,
			row.Entity,
			row.EntityID,
			meta,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
