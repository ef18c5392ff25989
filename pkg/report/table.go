package report

import (
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// WriteUnitTable renders the analyze-mode namespace-unit summary as a
// bordered table to w.
func WriteUnitTable(w io.Writer, rows []UnitRow) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Instance", "Namespace", "Kind", "Segments", "Bytes", "Action"})
	tbl.SetAutoFormatHeaders(true)
	tbl.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range rows {
		tbl.Append([]string{
			strconv.Itoa(int(r.Instance)),
			r.Namespace,
			r.Kind,
			strconv.Itoa(r.Segments),
			humanize.IBytes(uint64(r.Bytes)),
			r.Action,
		})
	}

	tbl.Render()
}
