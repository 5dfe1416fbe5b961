package importer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/mferraz/financas/internal/importer"
	"github.com/mferraz/financas/internal/transaction"
)

func TestParser_CommaDelimited(t *testing.T) {
	csv := `data,descricao,valor,categoria,tipo
2024-01-05,Salário Janeiro,5000.00,Trabalho,Crédito
2024-02-05,Salário Fevereiro,5000.00,Trabalho,Crédito
`

	batch, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, batch.Params, 2)
	assert.Zero(t, batch.Dropped)

	first := batch.Params[0]
	assert.Equal(t, "2024-01-05", first.Data.Format(time.DateOnly))
	assert.Equal(t, "Salário Janeiro", first.Descricao)
	assert.Equal(t, transaction.TypeReceita, first.Tipo)
	assert.InDelta(t, 5000.00, first.Valor, 1e-9)
	assert.Equal(t, "crédito", first.TipoOperacao)
}

func TestParser_SemicolonCommaDecimal(t *testing.T) {
	csv := "data;descricao;valor;categoria;tipo\n15/03/2024;Aluguel;1500,00;Moradia;Débito\n"

	batch, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, batch.Params, 1)

	p := batch.Params[0]
	assert.Equal(t, "2024-03-15", p.Data.Format(time.DateOnly))
	assert.Equal(t, transaction.TypeDespesa, p.Tipo)
	assert.InDelta(t, -1500.00, p.Valor, 1e-9)
}

func TestParser_HeaderAliases(t *testing.T) {
	csv := "Date;Histórico;Montante;Grupo;Movimentação\n05/01/2024;Mercado;120,30;Alimentação;Débito\n"

	batch, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, batch.Params, 1)

	p := batch.Params[0]
	assert.Equal(t, "Mercado", p.Descricao)
	assert.Equal(t, "Alimentação", p.Categoria)
	assert.Equal(t, transaction.TypeDespesa, p.Tipo)
}

func TestParser_InvestmentOperations(t *testing.T) {
	csv := `data,descricao,valor,categoria,tipo
2024-01-10,Compra PETR4,200.00,Investimentos,compra
2024-01-20,Dividendo PETR4,15.00,Investimentos,dividendo
`

	batch, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, batch.Params, 2)

	compra := batch.Params[0]
	assert.Equal(t, transaction.TypeDespesa, compra.Tipo)
	assert.InDelta(t, -200.00, compra.Valor, 1e-9)

	dividendo := batch.Params[1]
	assert.Equal(t, transaction.TypeReceita, dividendo.Tipo)
	assert.InDelta(t, 15.00, dividendo.Valor, 1e-9)
}

func TestParser_DropsBadRows(t *testing.T) {
	csv := `data,descricao,valor,tipo
2024-01-05,Ok,10.00,despesa
99/99/9999,Bad date,10.00,despesa
2024-01-06,Bad value,abc,despesa
2024-01-07,Ok too,20.00,despesa
`

	batch, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, batch.Params, 2)
	assert.Equal(t, 2, batch.Dropped)
}

func TestParser_IntraBatchDedupe(t *testing.T) {
	csv := `data,descricao,valor,categoria,tipo
2024-01-05,Mercado,100.00,Alimentação,Débito
2024-01-05,Mercado,100.00,Alimentação,Débito
2024-01-05,Mercado,100.00,Lazer,Débito
`

	batch, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)

	// Three identical natural keys: same date, description, value, and
	// derived tipo. First occurrence wins.
	require.Len(t, batch.Params, 1)
	assert.Equal(t, 2, batch.Duplicates)
	assert.Equal(t, "Alimentação", batch.Params[0].Categoria)
}

func TestParser_MissingRequiredColumns(t *testing.T) {
	csv := "data,valor\n2024-01-05,10.00\n"

	_, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.Error(t, err)

	var missing *importer.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"descricao", "tipo"}, missing.Columns)
	assert.Contains(t, err.Error(), "descricao")
	assert.Contains(t, err.Error(), "tipo")
}

func TestParser_EmptyFile(t *testing.T) {
	_, err := importer.NewParser().Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, importer.ErrEmptyFile)
}

func TestParser_HeaderOnly(t *testing.T) {
	batch, err := importer.NewParser().Parse(strings.NewReader("data,descricao,valor,tipo\n"))
	require.NoError(t, err)
	assert.Empty(t, batch.Params)
}

func TestParser_UTF8BOM(t *testing.T) {
	csv := "\xEF\xBB\xBFdata,descricao,valor,tipo\n2024-01-05,Café,10.00,despesa\n"

	batch, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, batch.Params, 1)
	assert.Equal(t, "Café", batch.Params[0].Descricao)
}

func TestParser_Latin1Encoding(t *testing.T) {
	utf8CSV := "data;descrição;valor;tipo\n05/01/2024;CAFÉ CENTRAL;-10,00;Débito\n"

	latin1Bytes, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	batch, err := importer.NewParser().Parse(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)
	require.Len(t, batch.Params, 1)
	assert.Equal(t, "CAFÉ CENTRAL", batch.Params[0].Descricao)
}

func TestParser_UnknownColumnsIgnored(t *testing.T) {
	csv := "data,descricao,valor,tipo,saldo,observacao\n2024-01-05,Mercado,10.00,despesa,999,whatever\n"

	batch, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, batch.Params, 1)
	assert.Equal(t, "Mercado", batch.Params[0].Descricao)
}
