package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "ИСП-21: 2024-09-02",
		Headers: []string{"date", "pair", "subject"},
		Rows: [][]string{
			{"2024-09-02", "1", "Математика"},
			{"2024-09-02", "2", "Физика, лекция"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter(0).Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "date,pair,subject\n2024-09-02,1,Математика\n2024-09-02,2,\"Физика, лекция\"\n", string(out[len(utf8BOM):]))

	semi, err := NewCSVExporter(';').Render(sampleDataset())
	require.NoError(t, err)
	assert.Contains(t, string(semi), "2024-09-02;2;Физика, лекция")
}

func TestExportersRejectRaggedRows(t *testing.T) {
	data := Dataset{Headers: []string{"a", "b"}, Rows: [][]string{{"1"}}}
	_, err := NewCSVExporter(0).Render(data)
	require.Error(t, err)
	_, err = NewXLSXExporter().Render(data)
	require.Error(t, err)
	_, err = NewPDFExporter("").Render(Dataset{})
	require.Error(t, err)
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	assert.Equal(t, "ИСП-21 2024-09-02", sheets[0])

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "pair", "subject"}, rows[0])
	assert.Equal(t, "Математика", rows[1][2])
}

func TestPDFExporterRender(t *testing.T) {
	data := Dataset{Title: "Week", Headers: []string{"date", "pair"}, Rows: [][]string{{"2024-09-02", "1"}}}
	out, err := NewPDFExporter("").Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter("/does/not/exist.ttf").Render(data)
	require.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Schedule", sheetName(""))
	assert.Equal(t, "ab", sheetName("a/b"))
	assert.Len(t, []rune(sheetName("абвгдеёжзийклмнопрстуфхцчшщъыьэюя")), 31)
}
