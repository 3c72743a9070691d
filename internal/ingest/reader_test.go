package ingest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"leads.csv", nil, FormatCSV},
		{"LEADS.XLSX", nil, FormatWorkbook},
		{"leads.xls", nil, FormatLegacyXLS},
		{"export", []byte("PK\x03\x04rest"), FormatWorkbook},
		{"export", []byte{0xD0, 0xCF, 0x11, 0xE0, 0x00}, FormatLegacyXLS},
		{"export", []byte("a,b\n1,2"), FormatCSV},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormat(tt.name, tt.data), tt.name)
	}
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', SniffDelimiter([]byte("a,b,c\n1;2;3")))
	assert.Equal(t, ';', SniffDelimiter([]byte("Status;Data da conversão:;Segmento/Categoria\n")))
	assert.Equal(t, '\t', SniffDelimiter([]byte("a\tb\tc")))
	assert.Equal(t, ';', SniffDelimiter([]byte(`"a,b,c";d;e`)))
	assert.Equal(t, ',', SniffDelimiter([]byte("single")))
}

func TestReadTable_CSV(t *testing.T) {
	data := []byte("\xEF\xBB\xBFStatus,Data da conversão:,Segmento/Categoria\n" +
		"Válido,2024-03-01,Vendas\n" +
		",2024-03-02,Teste\n" +
		"Inválido,bad-date,\"Vendas, Sul\"\n")

	table, err := ReadTable("leads.csv", data, "")
	require.NoError(t, err)

	assert.Equal(t, "leads.csv", table.Name)
	assert.False(t, table.Workbook)
	assert.Equal(t, []string{"Status", "Data da conversão:", "Segmento/Categoria"}, table.Headers)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"Inválido", "bad-date", "Vendas, Sul"}, table.Rows[2])
}

func TestReadTable_SemicolonLatin1(t *testing.T) {
	utf := "Status;Situação\nVálido;Oportunidade\n"

	latin, err := charmap.Windows1252.NewEncoder().String(utf)
	require.NoError(t, err)

	table, err := ReadTable("leads.csv", []byte(latin), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Status", "Situação"}, table.Headers)
	assert.Equal(t, [][]string{{"Válido", "Oportunidade"}}, table.Rows)
}

func TestReadTable_RaggedRows(t *testing.T) {
	table, err := ReadTable("leads.csv", []byte("a,b,c\n1\n1,2,3,4\n"), "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1"}, {"1", "2", "3", "4"}}, table.Rows)
}

func TestReadTable_Empty(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("   \n\n"), []byte("\xEF\xBB\xBF")} {
		_, err := ReadTable("leads.csv", data, "")
		assert.True(t, errors.Is(err, ErrEmptyFile), "data %q: %v", data, err)
	}
}

func TestReadTable_LegacyXLS(t *testing.T) {
	_, err := ReadTable("leads.xls", []byte{0xD0, 0xCF, 0x11, 0xE0}, "")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestReadTable_MalformedWorkbook(t *testing.T) {
	_, err := ReadTable("leads.xlsx", []byte("PK\x03\x04 definitely not a zip"), "")
	assert.True(t, errors.Is(err, ErrMalformedFile))
}

func buildWorkbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", sheet))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)

		rowCopy := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &rowCopy))
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	return buf.Bytes()
}

func TestReadTable_Workbook(t *testing.T) {
	data := buildWorkbook(t, "Planilha1", [][]any{
		{"Status", "Data da conversão:", "Segmento/Categoria"},
		{"Válido", "2024-03-01", "Vendas"},
		{"Inválido", 45352, "Varejo"},
	})

	table, err := ReadTable("leads.xlsx", data, "")
	require.NoError(t, err)

	assert.True(t, table.Workbook)
	assert.Equal(t, []string{"Status", "Data da conversão:", "Segmento/Categoria"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Válido", "2024-03-01", "Vendas"}, table.Rows[0])
	assert.Equal(t, "45352", table.Rows[1][1])

	named, err := ReadTable("leads.xlsx", data, "Planilha1")
	require.NoError(t, err)
	assert.Equal(t, table.Rows, named.Rows)
}

func TestReadTable_WorkbookMissingSheet(t *testing.T) {
	data := buildWorkbook(t, "Planilha1", [][]any{{"Status"}})

	_, err := ReadTable("leads.xlsx", data, "Outra")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSheetNotFound))
	assert.Contains(t, err.Error(), "Planilha1")
}

func TestReadTable_EmptyWorkbook(t *testing.T) {
	data := buildWorkbook(t, "Vazia", nil)

	_, err := ReadTable("leads.xlsx", data, "")
	assert.True(t, errors.Is(err, ErrEmptyFile))
}
