package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
	"github.com/alanyoungcy/merchantdesk/internal/reconcile"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

var errNoStorage = errors.New("object storage is not configured (s3.enabled = false)")

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "deskctl",
		Short:         "Operator CLI for the merchant activity dashboard",
		Long:          `Query seller rankings, seller, merchant and transaction details, and trigger report exports against the live directory and payment API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.format != formatTable && c.format != formatJSON {
				return fmt.Errorf("unknown output format %q (valid: table, json)", c.format)
			}
			return nil
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.PersistentFlags().StringVar(&c.configPath, "config", "config.toml", "path to configuration file")
	root.PersistentFlags().StringVarP(&c.format, "output", "o", formatTable, "output format: table or json")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log backend activity to stderr")

	root.AddCommand(
		newTopSellersCmd(c),
		newOverviewCmd(c),
		newSellersCmd(c),
		newSellerCmd(c),
		newMerchantsCmd(c),
		newMerchantCmd(c),
		newTransactionCmd(c),
		newExportCmd(c),
		newReportsCmd(c),
		newSealSecretCmd(c),
	)
	return root
}

func newTopSellersCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top-sellers",
		Short: "Rank sellers by transaction count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				ranking, err := s.recon.TopSellers(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if c.format == formatJSON {
					return c.printJSON(ranking)
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RANK\tID\tNAME\tTRANSACTIONS\tACTIVITY")
				for i, e := range ranking.Sellers {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d%%\n", i+1, e.ID, e.Name, e.TransactionCount, e.PercentageActivity)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "\n%d transactions attributed to sellers\n", ranking.TotalTransactions)
				if ranking.Degraded {
					fmt.Fprintln(c.out, "warning: transaction source unavailable; counts are zero")
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", reconcile.DefaultTopLimit, "number of sellers to show")
	return cmd
}

func newOverviewCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show dashboard headline figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				ov, err := s.recon.Overview(cmd.Context())
				if err != nil {
					return err
				}
				if c.format == formatJSON {
					return c.printJSON(ov)
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "Merchants\t%d\n", ov.TotalMerchants)
				fmt.Fprintf(tw, "Sellers\t%d (%d active)\n", ov.TotalSellers, ov.ActiveSellers)
				fmt.Fprintf(tw, "Transactions\t%d\n", ov.TotalTransactions)
				fmt.Fprintf(tw, "Successful amount\t%s\n", ov.SuccessfulAmount.StringFixed(2))
				if ov.Degraded {
					fmt.Fprintf(tw, "Warning\t%s\n", ov.SourceError)
				}
				return tw.Flush()
			})
		},
	}
}

func newSellersCmd(c *cli) *cobra.Command {
	var merchantID string
	cmd := &cobra.Command{
		Use:   "sellers",
		Short: "List directory sellers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				var sellers []domain.Seller
				if merchantID != "" {
					detail, err := s.recon.MerchantDetail(cmd.Context(), merchantID)
					if err != nil {
						return err
					}
					sellers = detail.Sellers
				} else {
					var err error
					if sellers, err = s.recon.ListSellers(cmd.Context()); err != nil {
						return err
					}
				}
				if c.format == formatJSON {
					return c.printJSON(sellers)
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tMERCHANT\tTERMINAL")
				for _, sl := range sellers {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", sl.ID, sl.Name, sl.Status, dash(sl.MerchantID), dash(sl.TerminalID))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&merchantID, "merchant", "", "only sellers of this merchant")
	return cmd
}

func newSellerCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seller <id>",
		Short: "Show one seller with its merchant, transactions and stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				d, err := s.recon.SellerDetail(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if c.format == formatJSON {
					return c.printJSON(d)
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "Seller\t%s (%s)\n", d.Seller.Name, d.Seller.ID)
				fmt.Fprintf(tw, "Status\t%s\n", d.Seller.Status)
				if d.Merchant != nil {
					fmt.Fprintf(tw, "Merchant\t%s (%s)\n", d.Merchant.Name, d.Merchant.ID)
				} else {
					fmt.Fprintf(tw, "Merchant\t-\n")
				}
				fmt.Fprintf(tw, "Transactions\t%d (%d successful)\n", d.Stats.TotalTransactions, d.Stats.SuccessfulTransactions)
				fmt.Fprintf(tw, "Successful amount\t%s\n", d.Stats.TotalAmount.StringFixed(2))
				if d.Degraded {
					fmt.Fprintf(tw, "Warning\t%s\n", d.SourceError)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				return c.printTransactions(d.Transactions)
			})
		},
	}
}

func newMerchantsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "merchants",
		Short: "List directory merchants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				merchants, err := s.recon.ListMerchants(cmd.Context())
				if err != nil {
					return err
				}
				if c.format == formatJSON {
					return c.printJSON(merchants)
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tSTATUS")
				for _, m := range merchants {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.DisplayName(), m.Status)
				}
				return tw.Flush()
			})
		},
	}
}

func newMerchantCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "merchant <id>",
		Short: "Show one merchant with its sellers, transactions and stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				d, err := s.recon.MerchantDetail(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if c.format == formatJSON {
					return c.printJSON(d)
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "Merchant\t%s (%s)\n", d.Merchant.Name, d.Merchant.ID)
				fmt.Fprintf(tw, "Sellers\t%d (%d active)\n", d.Stats.TotalSellers, d.Stats.ActiveSellers)
				tx := d.Stats.Transactions
				fmt.Fprintf(tw, "Transactions\t%d (%d successful, %.1f%%)\n", tx.TotalTransactions, tx.SuccessfulTransactions, tx.SuccessRate())
				fmt.Fprintf(tw, "Successful amount\t%s\n", tx.SuccessfulAmount.StringFixed(2))
				if d.Degraded {
					fmt.Fprintf(tw, "Warning\t%s\n", d.SourceError)
				}
				return tw.Flush()
			})
		},
	}
}

func newTransactionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "transaction <id>",
		Short: "Show one transaction resolved against the directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				d, err := s.recon.TransactionDetail(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if c.format == formatJSON {
					return c.printJSON(d)
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "Transaction\t%s\n", d.Transaction.ID)
				fmt.Fprintf(tw, "Amount\t%s %s\n", amountString(d.View.Amount), d.View.Currency)
				fmt.Fprintf(tw, "Status\t%s\n", d.View.Status)
				fmt.Fprintf(tw, "Merchant\t%s\n", describeLookup(d.Merchant.ID, d.Merchant.Record != nil, d.Merchant.Error))
				fmt.Fprintf(tw, "Seller\t%s\n", describeLookup(d.Seller.ID, d.Seller.Record != nil, d.Seller.Error))
				return tw.Flush()
			})
		},
	}
}

func newExportCmd(c *cli) *cobra.Command {
	export := &cobra.Command{
		Use:   "export",
		Short: "Write a report snapshot to object storage",
	}

	var limit int
	topSellers := &cobra.Command{
		Use:   "top-sellers",
		Short: "Export the seller ranking with the overview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withReports(cmd, func(r reporter) (domain.ExportResult, error) {
				return r.ExportTopSellers(cmd.Context(), limit)
			})
		},
	}
	topSellers.Flags().IntVarP(&limit, "limit", "n", 0, "ranking size; 0 uses reports.top_n")

	var merchantID, terminalID string
	transactions := &cobra.Command{
		Use:   "transactions",
		Short: "Export every matching transaction as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.AllTransactions()
			switch {
			case merchantID != "" && terminalID != "":
				return errors.New("--merchant and --terminal are mutually exclusive")
			case merchantID != "":
				filter = domain.ByMerchant(merchantID)
			case terminalID != "":
				filter = domain.ByTerminal(terminalID)
			}
			return c.withReports(cmd, func(r reporter) (domain.ExportResult, error) {
				return r.ExportTransactions(cmd.Context(), filter)
			})
		},
	}
	transactions.Flags().StringVar(&merchantID, "merchant", "", "only transactions of this merchant")
	transactions.Flags().StringVar(&terminalID, "terminal", "", "only transactions of this terminal")

	export.AddCommand(topSellers, transactions)
	return export
}

func (c *cli) withReports(cmd *cobra.Command, fn func(reporter) (domain.ExportResult, error)) error {
	return c.withSession(cmd.Context(), func(s *session) error {
		if s.reports == nil {
			return errNoStorage
		}
		res, err := fn(s.reports)
		if err != nil {
			return err
		}
		if c.format == formatJSON {
			return c.printJSON(res)
		}
		fmt.Fprintf(c.out, "exported %d %s records to %s\n", res.Records, res.Kind, res.Path)
		return nil
	})
}

func newReportsCmd(c *cli) *cobra.Command {
	reports := &cobra.Command{
		Use:   "reports",
		Short: "Inspect exported reports",
	}

	var kind string
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored exports of one kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k := domain.ReportKind(kind)
			if k != domain.ReportTopSellers && k != domain.ReportTransactions {
				return fmt.Errorf("unknown report kind %q (valid: %s, %s)", kind, domain.ReportTopSellers, domain.ReportTransactions)
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				if s.reports == nil {
					return errNoStorage
				}
				infos, err := s.reports.ListReports(cmd.Context(), k)
				if err != nil {
					return err
				}
				if c.format == formatJSON {
					return c.printJSON(infos)
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PATH\tSIZE\tMODIFIED")
				for _, in := range infos {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", in.Path, in.Size, in.LastModified.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().StringVar(&kind, "kind", string(domain.ReportTopSellers), "report kind: top-sellers or transactions")

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "Show recent export audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				if s.reports == nil {
					return errNoStorage
				}
				entries, err := s.reports.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if c.format == formatJSON {
					return c.printJSON(entries)
				}
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tEVENT\tAT\tPATH")
				for _, e := range entries {
					path, _ := e.Detail["path"].(string)
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Event, e.CreatedAt.Format("2006-01-02 15:04:05"), dash(path))
				}
				return tw.Flush()
			})
		},
	}
	history.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")

	get := &cobra.Command{
		Use:   "get <path>",
		Short: "Write one stored export to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				if s.reports == nil {
					return errNoStorage
				}
				body, err := s.reports.OpenReport(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				defer body.Close()
				_, err = io.Copy(c.out, body)
				return err
			})
		},
	}

	reports.AddCommand(list, history, get)
	return reports
}

func (c *cli) printTransactions(txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	fmt.Fprintln(c.out)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAMOUNT\tCURRENCY\tSTATUS")
	for _, tx := range txs {
		v := tx.View()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", tx.ID, amountString(v.Amount), v.Currency, v.Status)
	}
	return tw.Flush()
}

func describeLookup(id string, found bool, msg string) string {
	switch {
	case found:
		return id
	case msg != "":
		return strings.TrimSpace(id + " " + "(" + msg + ")")
	default:
		return "-"
	}
}

func amountString(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
