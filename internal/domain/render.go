package domain

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// formatNumber renders a cell the way the text and HTML tables show it:
// integral dtypes without a fractional part, floats with up to six
// significant digits.
func formatNumber(v float64, dt DType) string {
	if dt == DTypeInt {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func (dm *DecisionMatrix) criteriaHeaders() []string {
	headers := make([]string, len(dm.cnames))
	for j, name := range dm.cnames {
		headers[j] = fmt.Sprintf("%s[%s %s]", name, dm.objectives[j].Symbol(), formatNumber(dm.weights[j], DTypeFloat))
	}
	return headers
}

func (dm *DecisionMatrix) dimensions() string {
	rows, cols := dm.Shape()
	return fmt.Sprintf("%d Alternatives x %d Criteria", rows, cols)
}

// String renders the matrix as a text table. The header row labels every
// criterion as name[symbol weight] and the last line states the shape.
func (dm *DecisionMatrix) String() string {
	rows, cols := dm.Shape()
	headers := dm.criteriaHeaders()

	cells := make([][]string, rows)
	widths := make([]int, cols)
	for j, h := range headers {
		widths[j] = len([]rune(h))
	}
	indexWidth := 0
	for i := 0; i < rows; i++ {
		indexWidth = max(indexWidth, len([]rune(dm.anames[i])))
		cells[i] = make([]string, cols)
		for j := 0; j < cols; j++ {
			cells[i][j] = formatNumber(dm.matrix.At(i, j), dm.dtypes[j])
			widths[j] = max(widths[j], len(cells[i][j]))
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indexWidth))
	for j, h := range headers {
		b.WriteByte(' ')
		b.WriteString(padLeft(h, widths[j]))
	}
	for i := 0; i < rows; i++ {
		b.WriteByte('\n')
		b.WriteString(padRight(dm.anames[i], indexWidth))
		for j := 0; j < cols; j++ {
			b.WriteByte(' ')
			b.WriteString(padLeft(cells[i][j], widths[j]))
		}
	}
	fmt.Fprintf(&b, "\n[%s]", dm.dimensions())
	return b.String()
}

func padLeft(s string, width int) string {
	if n := width - len([]rune(s)); n > 0 {
		return strings.Repeat(" ", n) + s
	}
	return s
}

func padRight(s string, width int) string {
	if n := width - len([]rune(s)); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

var htmlTemplate = template.Must(template.New("decisionmatrix").Parse(
	`<div class="decisionmatrix">
<div>
<style scoped="">
.dataframe tbody tr th:only-of-type {
    vertical-align: middle;
}

.dataframe tbody tr th {
    vertical-align: top;
}

.dataframe thead th {
    text-align: right;
}
</style>
<table border="1" class="dataframe">
<thead>
<tr style="text-align: right;">
<th/>
{{- range .Headers}}
<th>{{.}}</th>
{{- end}}
</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr>
<th>{{.Name}}</th>
{{- range .Cells}}
<td>{{.}}</td>
{{- end}}
</tr>
{{- end}}
</tbody>
</table>
</div>
<em class="decisionmatrix-dim">{{.Dimensions}}</em>
</div>`))

type htmlRow struct {
	Name  string
	Cells []string
}

// HTML renders the matrix as an HTML table followed by the dimension
// caption. Labels are escaped. A rendering failure is logged and yields an
// empty string; use WriteHTML to handle it.
func (dm *DecisionMatrix) HTML() string {
	var buf bytes.Buffer
	if err := dm.WriteHTML(&buf); err != nil {
		slog.Error("failed to render decision matrix as html", "error", err)
		return ""
	}
	return buf.String()
}

// WriteHTML writes the HTML table rendered by HTML to w.
func (dm *DecisionMatrix) WriteHTML(w io.Writer) error {
	rows, cols := dm.Shape()
	data := struct {
		Headers    []string
		Rows       []htmlRow
		Dimensions string
	}{
		Headers:    dm.criteriaHeaders(),
		Rows:       make([]htmlRow, rows),
		Dimensions: dm.dimensions(),
	}
	for i := 0; i < rows; i++ {
		cells := make([]string, cols)
		for j := range cells {
			cells[j] = formatNumber(dm.matrix.At(i, j), dm.dtypes[j])
		}
		data.Rows[i] = htmlRow{Name: dm.anames[i], Cells: cells}
	}

	if err := htmlTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// Frame is a row-labeled table view of a DecisionMatrix.
type Frame struct {
	// Index labels the rows: "objectives", "weights", then every aname.
	Index []string
	// Columns holds the criterion names.
	Columns []string
	// Data is row-major. The objectives row holds Objective values, the
	// weights row float64 values and alternative rows hold int64 or float64
	// according to the column dtype.
	Data [][]any
}

// ToFrame returns the matrix as a Frame.
func (dm *DecisionMatrix) ToFrame() Frame {
	rows, cols := dm.Shape()
	f := Frame{
		Index:   append([]string{"objectives", "weights"}, dm.anames...),
		Columns: dm.Cnames(),
		Data:    make([][]any, 0, rows+2),
	}

	objs := make([]any, cols)
	weights := make([]any, cols)
	for j := 0; j < cols; j++ {
		objs[j] = dm.objectives[j]
		weights[j] = dm.weights[j]
	}
	f.Data = append(f.Data, objs, weights)

	for i := 0; i < rows; i++ {
		row := make([]any, cols)
		for j := 0; j < cols; j++ {
			v := dm.matrix.At(i, j)
			if dm.dtypes[j] == DTypeInt {
				row[j] = int64(v)
			} else {
				row[j] = v
			}
		}
		f.Data = append(f.Data, row)
	}
	return f
}
