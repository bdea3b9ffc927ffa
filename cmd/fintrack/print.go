package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"fintrack/internal/core"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printAccounts(w io.Writer, accounts []core.Account) {
	if len(accounts) == 0 {
		fmt.Fprintln(w, "No accounts.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tBALANCE")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", a.ID, a.Name, core.FormatAmount(a.Balance))
	}
	tw.Flush()
}

func printCategories(w io.Writer, categories []core.Category) {
	if len(categories) == 0 {
		fmt.Fprintln(w, "No categories.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE")
	for _, c := range categories {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Type)
	}
	tw.Flush()
}

func printTransactions(w io.Writer, txs []core.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tACCOUNT\tAMOUNT\tDESCRIPTION")
	for _, t := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.TransactionDate, t.Type, t.CategoryName, t.AccountName,
			core.FormatAmount(t.SignedAmount()), t.Description)
	}
	tw.Flush()
}

func printMonthlySummary(w io.Writer, s core.MonthlySummary) {
	fmt.Fprintf(w, "%04d-%02d  income %s  expense %s  balance %s\n",
		s.Year, s.Month,
		core.FormatAmount(s.TotalIncome),
		core.FormatAmount(s.TotalExpense),
		core.FormatAmount(s.Balance))
	printCategoryShares(w, "Income", s.IncomeSummary)
	printCategoryShares(w, "Expense", s.ExpenseSummary)
}

func printCategoryShares(w io.Writer, title string, rows []core.CategorySummary) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(w, "%s by category:\n", title)
	tw := table(w)
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\t%.1f%%\n", r.CategoryName, core.FormatAmount(r.Amount), r.Percentage)
	}
	tw.Flush()
}

func printDaily(w io.Writer, days []core.DailySummary) {
	if len(days) == 0 {
		fmt.Fprintln(w, "No transactions this month.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "DATE\tINCOME\tEXPENSE")
	for _, d := range days {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.TransactionDate, core.FormatAmount(d.TotalIncome), core.FormatAmount(d.TotalExpense))
	}
	tw.Flush()
}
