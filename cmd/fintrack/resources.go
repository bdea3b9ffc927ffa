package main

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
)

func subcommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, errUsage
	}
	return args[0], args[1:], nil
}

func runAccounts(ctx context.Context, e *env, args []string) error {
	sub, args, err := subcommand(args)
	if err != nil {
		return err
	}
	s := e.app.Accounts
	fs := newFlagSet("accounts "+sub, e.err)

	switch sub {
	case "list":
		if err := s.Fetch(ctx); err != nil {
			return err
		}
		printAccounts(e.out, s.Accounts())

	case "get":
		if err := parseInterleaved(fs, args); err != nil {
			return errUsage
		}
		id, err := idArg(fs)
		if err != nil {
			return err
		}
		a, err := s.FetchOne(ctx, id)
		if err != nil {
			return err
		}
		printAccounts(e.out, []core.Account{a})

	case "create", "update":
		var in core.AccountInput
		var balance amountFlag
		fs.StringVar(&in.Name, "name", "", "account name")
		fs.Var(&balance, "balance", "balance")
		if err := parseInterleaved(fs, args); err != nil {
			return errUsage
		}
		in.Balance = balance.v
		if err := in.Validate(); err != nil {
			return err
		}
		var a core.Account
		if sub == "create" {
			if fs.NArg() != 0 {
				return errUsage
			}
			a, err = s.Create(ctx, in)
		} else {
			var id int64
			if id, err = idArg(fs); err != nil {
				return err
			}
			a, err = s.Update(ctx, id, in)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Saved account %d %q (balance %s).\n", a.ID, a.Name, core.FormatAmount(a.Balance))
		e.warnSummary()

	case "delete":
		if err := parseInterleaved(fs, args); err != nil {
			return errUsage
		}
		id, err := idArg(fs)
		if err != nil {
			return err
		}
		if err := s.Remove(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Deleted account %d.\n", id)
		e.warnSummary()

	case "summary":
		sum, err := s.FetchSummary(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Accounts: %d  Total balance: %s\n", sum.AccountCount, core.FormatAmount(sum.TotalBalance))
		printAccounts(e.out, sum.Accounts)

	default:
		return errUsage
	}
	return nil
}

// warnSummary reports a summary refresh that failed after a successful
// mutation. The mutation itself stands.
func (e *env) warnSummary() {
	if msg := e.app.Accounts.SummaryError(); msg != "" {
		fmt.Fprintf(e.err, "warning: account summary not refreshed: %s\n", msg)
	}
}

func runCategories(ctx context.Context, e *env, args []string) error {
	sub, args, err := subcommand(args)
	if err != nil {
		return err
	}
	s := e.app.Categories
	fs := newFlagSet("categories "+sub, e.err)

	switch sub {
	case "list":
		var typ typeFlag
		fs.Var(&typ, "type", "INCOME or EXPENSE")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if err := s.Fetch(ctx); err != nil {
			return err
		}
		list := s.Categories()
		if typ.t != "" {
			list = s.ByType(typ.t)
		}
		printCategories(e.out, list)

	case "create":
		var in core.CategoryInput
		var typ typeFlag
		fs.StringVar(&in.Name, "name", "", "category name")
		fs.Var(&typ, "type", "INCOME or EXPENSE")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		in.Type = typ.t
		if err := in.Validate(); err != nil {
			return err
		}
		c, err := s.Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Created category %d %q (%s).\n", c.ID, c.Name, c.Type)

	case "update":
		var in core.CategoryUpdate
		fs.StringVar(&in.Name, "name", "", "new category name")
		if err := parseInterleaved(fs, args); err != nil {
			return errUsage
		}
		id, err := idArg(fs)
		if err != nil {
			return err
		}
		if err := in.Validate(); err != nil {
			return err
		}
		c, err := s.Update(ctx, id, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Renamed category %d to %q.\n", c.ID, c.Name)

	case "delete":
		if err := parseInterleaved(fs, args); err != nil {
			return errUsage
		}
		id, err := idArg(fs)
		if err != nil {
			return err
		}
		if err := s.Remove(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Deleted category %d.\n", id)

	default:
		return errUsage
	}
	return nil
}

func runTransactions(ctx context.Context, e *env, args []string) error {
	sub, args, err := subcommand(args)
	if err != nil {
		return err
	}
	s := e.app.Transactions
	fs := newFlagSet("transactions "+sub, e.err)

	switch sub {
	case "list":
		var f core.TransactionFilter
		var start, end dateFlag
		var typ typeFlag
		fs.Var(&start, "start", "from date (YYYY-MM-DD)")
		fs.Var(&end, "end", "to date (YYYY-MM-DD)")
		fs.Var(&typ, "type", "INCOME or EXPENSE")
		fs.Int64Var(&f.AccountID, "account", 0, "account id")
		fs.Int64Var(&f.CategoryID, "category", 0, "category id")
		fs.StringVar(&f.Keyword, "q", "", "description keyword")
		fs.Int64Var(&f.MinAmount, "min", 0, "minimum amount")
		fs.Int64Var(&f.MaxAmount, "max", 0, "maximum amount")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		f.StartDate, f.EndDate, f.Type = start.Date, end.Date, typ.t
		if err := s.Fetch(ctx, f); err != nil {
			return err
		}
		printTransactions(e.out, s.Transactions())

	case "create", "update":
		var in core.TransactionInput
		var amount amountFlag
		var date dateFlag
		var typ typeFlag
		fs.Var(&amount, "amount", "amount")
		fs.Var(&date, "date", "transaction date (YYYY-MM-DD, default today)")
		fs.Var(&typ, "type", "INCOME or EXPENSE (default: the category's type)")
		fs.Int64Var(&in.CategoryID, "category", 0, "category id")
		fs.Int64Var(&in.AccountID, "account", 0, "account id")
		fs.StringVar(&in.Description, "desc", "", "description")
		if err := parseInterleaved(fs, args); err != nil {
			return errUsage
		}
		in.Amount, in.Type, in.TransactionDate = amount.v, typ.t, date.Date
		if in.TransactionDate.IsZero() {
			now := time.Now()
			in.TransactionDate = core.NewDate(now.Year(), int(now.Month()), now.Day())
		}
		if err := in.Validate(); err != nil {
			return err
		}
		var t core.Transaction
		if sub == "create" {
			if fs.NArg() != 0 {
				return errUsage
			}
			t, err = s.Create(ctx, in)
		} else {
			var id int64
			if id, err = idArg(fs); err != nil {
				return err
			}
			t, err = s.Update(ctx, id, in)
		}
		if err != nil {
			return err
		}
		printTransactions(e.out, []core.Transaction{t})

	case "delete":
		if err := parseInterleaved(fs, args); err != nil {
			return errUsage
		}
		id, err := idArg(fs)
		if err != nil {
			return err
		}
		if err := s.Remove(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Deleted transaction %d.\n", id)

	case "summary", "daily":
		now := time.Now()
		year := fs.Int("year", now.Year(), "year")
		month := fs.Int("month", int(now.Month()), "month (1-12)")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if err := core.YearMonth(*year, *month); err != nil {
			return err
		}
		if sub == "summary" {
			sum, err := s.FetchMonthlySummary(ctx, *year, *month)
			if err != nil {
				return err
			}
			printMonthlySummary(e.out, sum)
		} else {
			days, err := s.FetchDaily(ctx, *year, *month)
			if err != nil {
				return err
			}
			printDaily(e.out, days)
		}

	default:
		return errUsage
	}
	return nil
}
