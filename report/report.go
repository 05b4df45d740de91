// Package report renders pool results for export.  Spreadsheets are the
// lingua franca of pool organizers, so the ranking goes out as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/textutil"
)

// WriteRankingCSV writes one row per ranked participant.  The pool must have
// its transients filled; a pool fresh from storage has nothing to export.
func WriteRankingCSV(w io.Writer, p *model.Pool) error {
	if p.Transients == nil || p.Transients.Ranking == nil {
		return fmt.Errorf("pool %d has no ranking to export", p.PoolID)
	}

	cw := csv.NewWriter(w)

	header := []string{"Posição", "Participante", "Pontos"}
	for i := range p.Draws {
		header = append(header, fmt.Sprintf("Sorteio %d", i+1))
	}
	header = append(header, "Faixa", "Prêmio")
	if err := cw.Write(header); err != nil {
		return err
	}

	for place, e := range p.Transients.Ranking.Entries {
		row := []string{
			textutil.FormatPlace(place + 1),
			e.DisplayName,
			strconv.Itoa(e.Total),
		}
		for _, hits := range e.PerDraw {
			row = append(row, strconv.Itoa(hits))
		}
		tier := ""
		if e.Tier > 0 {
			tier = strconv.Itoa(e.Tier)
		}
		row = append(row, tier, textutil.FormatCentavos(e.Prize))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
