package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{
		Columns: []Column{{Key: "reg_no", Title: "Register No"}, {Key: "reason"}},
		Rows: []map[string]string{
			{"reg_no": "21CS001", "reason": "hospital, checkup"},
			{"reg_no": "21CS002"},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Register No,reason\n21CS001,\"hospital, checkup\"\n21CS002,\n", string(out))
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	doc := Document{
		Title:  "Gate Pass",
		Fields: []Field{{Label: "Student", Value: "Asha"}},
		Table: &Dataset{
			Columns: []Column{{Key: "stage", Title: "Stage"}},
			Rows:    []map[string]string{{"stage": "Warden"}},
		},
		Footer: "Valid only with ID card.",
	}
	out, err := NewPDFExporter().Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRejectsEmptyDocument(t *testing.T) {
	_, err := NewPDFExporter().Render(Document{})
	require.Error(t, err)
}
