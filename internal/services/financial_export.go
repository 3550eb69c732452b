package services

import (
	"fmt"

	financialRepo "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/data/repos/financial"
	types "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/domain/financial"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dates"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/dbctx"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/paging"
)

const (
	sheetTransactions = "Lançamentos"
	sheetTotals       = "Totais"

	maxExportRows = 10000
)

var transactionTypeLabel = map[string]string{
	financial.TypeIncome:  "Receita",
	financial.TypeExpense: "Despesa",
}

var transactionStatusLabel = map[string]string{
	financial.TxPending:   "Pendente",
	financial.TxPaid:      "Pago",
	financial.TxCancelled: "Cancelado",
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}

// ExportTransactions renders every transaction matching f, ignoring its paging.
func (s *financialService) ExportTransactions(dbc dbctx.Context, f financialRepo.TransactionFilter) ([]byte, string, error) {
	var all []*types.FinancialTransaction
	f.Page = paging.Page{Page: 1, Limit: paging.MaxLimit}
	for {
		rows, meta, err := s.ListTransactions(dbc, f)
		if err != nil {
			return nil, "", err
		}
		all = append(all, rows...)
		if f.Page.Page >= meta.TotalPages || len(all) >= maxExportRows {
			break
		}
		f.Page.Page++
	}

	wb, err := newWorkbook()
	if err != nil {
		return nil, "", err
	}
	defer wb.close()

	if err := wb.sheet(sheetTransactions); err != nil {
		return nil, "", err
	}
	if err := wb.headerRow(sheetTransactions,
		"Vencimento", "Pagamento", "Tipo", "Categoria", "Descrição", "Valor (R$)", "Situação", "Conciliado",
	); err != nil {
		return nil, "", err
	}
	var paidIncome, paidExpense, pendingIncome, pendingExpense int64
	for _, t := range all {
		paidAt := ""
		if t.PaidAt != nil {
			paidAt = *t.PaidAt
		}
		if err := wb.append(sheetTransactions,
			t.DueDate, paidAt, transactionTypeLabel[t.Type], t.Category, t.Description,
			centsToReais(t.AmountCents), transactionStatusLabel[t.Status], yesNo(t.IsReconciled),
		); err != nil {
			return nil, "", err
		}
		switch {
		case t.Status == financial.TxPaid && t.Type == financial.TypeIncome:
			paidIncome += t.AmountCents
		case t.Status == financial.TxPaid:
			paidExpense += t.AmountCents
		case t.Status == financial.TxPending && t.Type == financial.TypeIncome:
			pendingIncome += t.AmountCents
		case t.Status == financial.TxPending:
			pendingExpense += t.AmountCents
		}
	}

	if err := wb.sheet(sheetTotals); err != nil {
		return nil, "", err
	}
	if err := wb.headerRow(sheetTotals, "Indicador", "Valor (R$)"); err != nil {
		return nil, "", err
	}
	totals := [][]any{
		{"Receitas pagas", centsToReais(paidIncome)},
		{"Despesas pagas", centsToReais(paidExpense)},
		{"Saldo realizado", centsToReais(paidIncome - paidExpense)},
		{"Receitas pendentes", centsToReais(pendingIncome)},
		{"Despesas pendentes", centsToReais(pendingExpense)},
		{"Lançamentos", len(all)},
	}
	for _, row := range totals {
		if err := wb.append(sheetTotals, row...); err != nil {
			return nil, "", err
		}
	}

	data, err := wb.bytes()
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("lancamentos-%s.xlsx", dates.Today(s.now())), nil
}
