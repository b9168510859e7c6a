package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"giftbook/internal/lunar"
	"giftbook/internal/numeral"
	"giftbook/internal/render"
	"giftbook/internal/services"
	"giftbook/internal/storage"
)

const defaultDBPath = "./data/giftbook.db"

func newRootCmd(now func() time.Time) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "giftbook-tool",
		Short:         "Gift ledger utilities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		amountCmd(),
		lunarCmd(now),
		exportCmd(),
		statsCmd(),
		printCmd(now),
	)
	return cmd
}

func amountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "amount <value>",
		Short: "Convert an amount to uppercase financial numerals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := strings.ReplaceAll(args[0], ",", "")
			d, err := decimal.NewFromString(value)
			if err != nil || d.IsNegative() {
				return fmt.Errorf("invalid amount %q", args[0])
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", numeral.FormatDecimal(d), numeral.ToChineseDecimal(d))
			return err
		},
	}
}

func lunarCmd(now func() time.Time) *cobra.Command {
	var date string

	c := &cobra.Command{
		Use:   "lunar",
		Short: "Show the lunar date of a Gregorian day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day := now()
			if date != "" {
				t, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("parse date: %w", err)
				}
				day = t
			}

			disp, err := lunar.Default().Display(day)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", disp.Primary, disp.Secondary)
			return err
		},
	}

	c.Flags().StringVar(&date, "date", "", "Gregorian date (YYYY-MM-DD), defaults to today")
	return c
}

// ledgerFlags are shared by the commands that read the database.
type ledgerFlags struct {
	db     string
	out    string
	byName bool
}

func (f *ledgerFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.db, "db", envOr("SQLITE_DB_PATH", defaultDBPath), "SQLite database path")
	c.Flags().StringVarP(&f.out, "output", "o", "", "Output file (stdout when empty)")
	c.Flags().BoolVar(&f.byName, "sort-name", false, "Order by guest name instead of entry order")
}

func openLedger(path string) (*storage.SQLiteRepository, *services.LedgerService, error) {
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	return repo, services.NewLedgerService(repo), nil
}

// withOutput runs write against path, or stdout when path is empty or "-".
func withOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func exportCmd() *cobra.Command {
	var (
		lf        ledgerFlags
		withStats bool
		report    bool
		tz        string
	)

	c := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("load time zone: %w", err)
			}

			repo, ledger, err := openLedger(lf.db)
			if err != nil {
				return err
			}
			defer repo.Close()

			recs, err := ledger.List(cmd.Context(), lf.byName)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				return services.ErrNothingToExport
			}

			exports := services.NewExportService(loc)
			e := exports.Prepare(recs, withStats)
			if report {
				rows, err := exports.StatisticsReport(recs)
				if err != nil {
					return err
				}
				e = services.Export{Header: rows[0], Rows: rows[1:]}
			}
			return withOutput(lf.out, cmd.OutOrStdout(), func(w io.Writer) error {
				return exports.WriteCSV(w, e)
			})
		},
	}

	lf.register(c)
	c.Flags().BoolVar(&withStats, "stats", false, "Append the statistics block")
	c.Flags().BoolVar(&report, "report", false, "Write the statistics report instead of the records")
	c.Flags().StringVar(&tz, "tz", envOr("TIME_ZONE", "Asia/Shanghai"), "Time zone for timestamps")
	return c
}

// statsView is the stats command output for the json and yaml formats.
type statsView struct {
	Records      int    `json:"records" yaml:"records"`
	Total        string `json:"total" yaml:"total"`
	TotalChinese string `json:"totalChinese" yaml:"total_chinese"`
	Cash         string `json:"cash" yaml:"cash"`
	WeChat       string `json:"wechat" yaml:"wechat"`
	Internal     string `json:"internal" yaml:"internal"`
	Average      string `json:"average" yaml:"average"`
	Max          string `json:"max" yaml:"max"`
	Min          string `json:"min" yaml:"min"`
}

func statsCmd() *cobra.Command {
	var (
		db     string
		format string
	)

	c := &cobra.Command{
		Use:   "stats",
		Short: "Print ledger statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, ledger, err := openLedger(db)
			if err != nil {
				return err
			}
			defer repo.Close()

			st, err := ledger.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			v := statsView{
				Records:      st.TotalCount,
				Total:        st.TotalAmount.String(),
				TotalChinese: st.TotalAmount.Chinese(),
				Cash:         st.CashAmount.String(),
				WeChat:       st.WeChatAmount.String(),
				Internal:     st.InternalAmount.String(),
				Average:      st.Average().String(),
				Max:          st.Max.String(),
				Min:          st.Min.String(),
			}
			return printStats(cmd.OutOrStdout(), v, format)
		},
	}

	c.Flags().StringVar(&db, "db", envOr("SQLITE_DB_PATH", defaultDBPath), "SQLite database path")
	c.Flags().StringVar(&format, "format", "text", "Output format: text|json|yaml")
	return c
}

func printStats(w io.Writer, v statsView, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		_, err := fmt.Fprintf(w,
			"records\t%d\ntotal\t%s\t%s\ncash\t%s\nwechat\t%s\ninternal\t%s\naverage\t%s\nmax\t%s\nmin\t%s\n",
			v.Records, v.Total, v.TotalChinese, v.Cash, v.WeChat, v.Internal, v.Average, v.Max, v.Min,
		)
		return err
	default:
		return fmt.Errorf("unsupported format %q (expected text|json|yaml)", format)
	}
}

func printCmd(now func() time.Time) *cobra.Command {
	var (
		lf    ledgerFlags
		title string
		theme string
	)

	c := &cobra.Command{
		Use:   "print",
		Short: "Render the printable gift book as HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, ledger, err := openLedger(lf.db)
			if err != nil {
				return err
			}
			defer repo.Close()

			recs, err := ledger.List(cmd.Context(), lf.byName)
			if err != nil {
				return err
			}
			book := render.Layout(recs, render.Options{
				Title:      title,
				ExportDate: now().Format("2006年1月2日"),
				Theme:      render.ThemeByName(theme),
			})
			return withOutput(lf.out, cmd.OutOrStdout(), func(w io.Writer) error {
				return render.RenderHTML(w, book)
			})
		},
	}

	lf.register(c)
	c.Flags().StringVar(&title, "title", envOr("BOOK_TITLE", services.DefaultEventName), "Book title")
	c.Flags().StringVar(&theme, "theme", envOr("PRINT_THEME", "red"), "Print theme")
	return c
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
