package importer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mferraz/financas/internal/importer"
)

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		name string
		line string
		want importer.Dialect
	}{
		{"semicolon", "data;descricao;valor", importer.DialectSemicolon},
		{"comma", "data,descricao,valor", importer.DialectComma},
		{"semicolon wins over comma", "data;descricao,extra;valor", importer.DialectSemicolon},
		{"no delimiter at all", "data", importer.DialectComma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, importer.DetectDialect(tt.line))
		})
	}
}

func TestReadTable_Comma(t *testing.T) {
	csv := "Data,Descricao,Valor\n2024-01-05,Mercado,100.50\n2024-01-06,Farmacia,30.00\n"

	table, err := importer.ReadTable([]byte(csv))
	require.NoError(t, err)

	assert.Equal(t, importer.DialectComma, table.Dialect)
	assert.Equal(t, []string{"data", "descricao", "valor"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Mercado", table.Rows[0]["descricao"])
	assert.Equal(t, "30.00", table.Rows[1]["valor"])
}

func TestReadTable_Semicolon(t *testing.T) {
	csv := "Data;Descricao;Valor\n15/03/2024;Aluguel;1500,00\n"

	table, err := importer.ReadTable([]byte(csv))
	require.NoError(t, err)

	assert.Equal(t, importer.DialectSemicolon, table.Dialect)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "1500,00", table.Rows[0]["valor"])
}

func TestReadTable_RetriesOtherDelimiter(t *testing.T) {
	// First line contains a semicolon inside a quoted cell, so the initial
	// guess is wrong and only the comma parse yields multiple columns.
	csv := "\"data;ref\",descricao,valor\n2024-01-05,Mercado,100.50\n"

	table, err := importer.ReadTable([]byte(csv))
	require.NoError(t, err)

	assert.Equal(t, importer.DialectComma, table.Dialect)
	assert.Equal(t, []string{"data;ref", "descricao", "valor"}, table.Headers)
}

func TestReadTable_UndetectableDialect(t *testing.T) {
	_, err := importer.ReadTable([]byte("soumacoluna\nvalor\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, importer.ErrUndetectableDialect)
	assert.Contains(t, err.Error(), ";")
	assert.Contains(t, err.Error(), ",")
}

func TestReadTable_EmptyFile(t *testing.T) {
	for _, content := range []string{"", "\n\n", "   \n  \n"} {
		_, err := importer.ReadTable([]byte(content))
		assert.ErrorIs(t, err, importer.ErrEmptyFile)
	}
}

func TestReadTable_BlankRowsDiscarded(t *testing.T) {
	csv := "data;valor\n2024-01-05;10\n;\n\n2024-01-06;20\n"

	table, err := importer.ReadTable([]byte(csv))
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestReadTable_DuplicateHeadersSuffixed(t *testing.T) {
	csv := "Data,Valor,Valor,valor\n2024-01-05,1,2,3\n"

	table, err := importer.ReadTable([]byte(csv))
	require.NoError(t, err)

	assert.Equal(t, []string{"data", "valor", "valor_1", "valor_2"}, table.Headers)
	assert.Equal(t, "1", table.Rows[0]["valor"])
	assert.Equal(t, "3", table.Rows[0]["valor_2"])
}

func TestReadTable_ShortRecord(t *testing.T) {
	csv := "data,descricao,valor\n2024-01-05,Mercado\n"

	table, err := importer.ReadTable([]byte(csv))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	_, hasValor := table.Rows[0]["valor"]
	assert.False(t, hasValor)
}
