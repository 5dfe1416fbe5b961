package importer

import "github.com/mferraz/financas/internal/transaction"

// anyOperation matches every tipo_operacao value in a classification rule.
const anyOperation = ""

// classificationRules derive tipo from (categoria, tipo_operacao). Both
// sides are compared lowercased and diacritic-stripped, so "Saúde" and
// "saude" classify alike. First matching rule wins; rows matching none are
// despesa.
var classificationRules = []struct {
	categoria string
	operacao  string
	tipo      transaction.Type
}{
	{"trabalho", anyOperation, transaction.TypeReceita},
	{"investimentos", "resgate", transaction.TypeReceita},
	{"investimentos", "dividendo", transaction.TypeReceita},
	{"investimentos", "compra", transaction.TypeDespesa},
	{"moradia", anyOperation, transaction.TypeDespesa},
	{"saude", anyOperation, transaction.TypeDespesa},
	{"educacao", anyOperation, transaction.TypeDespesa},
	{"alimentacao", anyOperation, transaction.TypeDespesa},
}

// Classify is a total function from (categoria, tipo_operacao) to tipo.
func Classify(categoria, operacao string) transaction.Type {
	cat := NormalizeHeader(categoria)
	op := NormalizeHeader(operacao)

	for _, rule := range classificationRules {
		if rule.categoria != cat {
			continue
		}

		if rule.operacao == anyOperation || rule.operacao == op {
			return rule.tipo
		}
	}

	return transaction.TypeDespesa
}
