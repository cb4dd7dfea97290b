package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"stray/internal/engine/analysis"
)

// TSVRenderer writes one row per import verdict, suitable for piping into
// cut, sort or a spreadsheet.
type TSVRenderer struct{}

func (r *TSVRenderer) Render(w io.Writer, rep *analysis.Report) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "path\tmodule\tlocal_name\ttarget\tstatus\tused\tline\tref_count")
	for _, file := range rep.Files {
		for _, v := range file.Verdicts {
			fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
				file.Path,
				file.Module,
				v.LocalName,
				v.Target,
				v.Status.String(),
				strconv.FormatBool(v.Used),
				v.Location.Line,
				len(v.Refs),
			)
		}
	}

	return bw.Flush()
}
