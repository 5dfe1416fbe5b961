package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mferraz/financas/internal/transaction"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-05", "2024-01-05"},
		{"15/03/2024", "2024-03-15"},
		{"15-03-2024", "2024-03-15"},
		{"2024/03/15", "2024-03-15"},
		{"2024.03.15", "2024-03-15"},
		{"20240315", "2024-03-15"},
		{"15.03.2024", "2024-03-15"},
		{"15 Mar 2024", "2024-03-15"},
		{"15 March 2024", "2024-03-15"},
		{"Mar 15 2024", "2024-03-15"},
		{"March 15 2024", "2024-03-15"},
		// Day-first preference: 05/03 is the 5th of March, not May 3rd.
		{"05/03/2024", "2024-03-05"},
		// Month-first only parses when day-first cannot.
		{"03/15/2024", "2024-03-15"},
		{"  2024-01-05  ", "2024-01-05"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Format(time.DateOnly))
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "99/99/9999", "not a date", "2024-13-40", "nan"} {
		_, ok := parseDate(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"100.50", 100.50, true},
		{"1500,00", 1500.00, true},
		{"-588,74", -588.74, true},
		{" 42 ", 42, true},
		{"0", 0, true},
		{"", 0, false},
		{"nan", 0, false},
		{"NaN", 0, false},
		{"abc", 0, false},
		// Thousand separators are not supported: the cell must carry a
		// single decimal separator.
		{"1.234,56", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestCoerceRow(t *testing.T) {
	row := Row{
		ColData:      "15/03/2024",
		ColDescricao: "  Aluguel  ",
		ColValor:     "1500,00",
		ColCategoria: "Moradia",
		ColTipo:      "Débito",
	}

	p, ok := coerceRow(row)
	require.True(t, ok)

	assert.Equal(t, "2024-03-15", p.Data.Format(time.DateOnly))
	assert.Equal(t, "Aluguel", p.Descricao)
	assert.Equal(t, transaction.TypeDespesa, p.Tipo)
	assert.InDelta(t, -1500.00, p.Valor, 1e-9)
	assert.Equal(t, "débito", p.TipoOperacao)
	assert.Equal(t, "Moradia", p.Categoria)
}

func TestCoerceRow_OptionalDefaults(t *testing.T) {
	row := Row{
		ColData:      "2024-01-05",
		ColDescricao: "Salário",
		ColValor:     "5000",
		ColCategoria: "Trabalho",
	}

	p, ok := coerceRow(row)
	require.True(t, ok)

	assert.Zero(t, p.Preco)
	assert.Equal(t, 1.0, p.Quantidade)
	assert.Zero(t, p.Taxa)
	assert.Zero(t, p.Indicador1)
	assert.Zero(t, p.Indicador2)
	assert.Equal(t, transaction.DefaultOperation, p.TipoOperacao)
	assert.Empty(t, p.Ativo)
	assert.Empty(t, p.FormaPagamento)
}

func TestCoerceRow_BadOptionalSurvives(t *testing.T) {
	row := Row{
		ColData:       "2024-01-05",
		ColDescricao:  "Compra de ações",
		ColValor:      "200",
		ColCategoria:  "Investimentos",
		ColTipo:       "compra",
		ColPreco:      "not-a-number",
		ColQuantidade: "xx",
		ColTaxa:       "nan",
	}

	p, ok := coerceRow(row)
	require.True(t, ok)

	assert.Zero(t, p.Preco)
	assert.Equal(t, 1.0, p.Quantidade)
	assert.Zero(t, p.Taxa)
	assert.Equal(t, transaction.TypeDespesa, p.Tipo)
	assert.InDelta(t, -200.0, p.Valor, 1e-9)
}

func TestCoerceRow_DropsBadDateOrValue(t *testing.T) {
	_, ok := coerceRow(Row{ColData: "99/99/9999", ColDescricao: "x", ColValor: "10"})
	assert.False(t, ok)

	_, ok = coerceRow(Row{ColData: "2024-01-05", ColDescricao: "x", ColValor: "abc"})
	assert.False(t, ok)

	_, ok = coerceRow(Row{ColData: "2024-01-05", ColDescricao: "x", ColValor: "nan"})
	assert.False(t, ok)
}

func TestCoerceRow_NanTextBecomesEmpty(t *testing.T) {
	row := Row{
		ColData:      "2024-01-05",
		ColDescricao: "nan",
		ColValor:     "10",
		ColCategoria: "nan",
		ColAtivo:     "nan",
	}

	p, ok := coerceRow(row)
	require.True(t, ok)

	assert.Empty(t, p.Descricao)
	assert.Empty(t, p.Categoria)
	assert.Empty(t, p.Ativo)
}

func TestCoerceRow_ExplicitOperationColumnWins(t *testing.T) {
	row := Row{
		ColData:         "2024-01-05",
		ColDescricao:    "Dividendos",
		ColValor:        "15",
		ColCategoria:    "Investimentos",
		ColTipo:         "Crédito",
		ColTipoOperacao: "Dividendo",
	}

	p, ok := coerceRow(row)
	require.True(t, ok)

	assert.Equal(t, "dividendo", p.TipoOperacao)
	assert.Equal(t, transaction.TypeReceita, p.Tipo)
}

func TestSignAmount(t *testing.T) {
	assert.Equal(t, -10.0, signAmount(10, transaction.TypeDespesa))
	assert.Equal(t, -10.0, signAmount(-10, transaction.TypeDespesa))
	assert.Equal(t, 10.0, signAmount(-10, transaction.TypeReceita))
	assert.Equal(t, 10.0, signAmount(10, transaction.TypeReceita))
}
