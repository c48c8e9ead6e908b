package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title: "Applications",
		Columns: []Column{
			{Key: "learner", Label: "Learner", Width: 2},
			{Key: "status", Label: "Status"},
		},
		Rows: []map[string]string{
			{"learner": "Thandi Mokoena", "status": "submitted"},
			{"learner": "Sipho, Jr", "status": "accepted"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "Learner,Status\nThandi Mokoena,submitted\n\"Sipho, Jr\",accepted\n", string(out))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Table{})
	assert.Error(t, err)
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(sampleTable().Columns)
	assert.InDelta(t, pdfUsableWidth, widths[0]+widths[1], 0.001)
	assert.InDelta(t, widths[0], 2*widths[1], 0.001)
}
