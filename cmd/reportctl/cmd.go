// reportctl renders earnings reports in the terminal, using an access
// token supplied directly instead of the browser login flow.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/upstats/earnings-backend/internal/bootstrap"
	"github.com/upstats/earnings-backend/internal/config"
	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/models"
	"github.com/upstats/earnings-backend/internal/services"
)

type cliOptions struct {
	token     string
	tenantID  string
	tenantIDs []string
	reference string
	year      int
	month     int
	net       bool
	debug     bool
}

func main() {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:          "reportctl",
		Short:        "Render freelancer earnings reports in the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("UPWORK_ACCESS_TOKEN"), "access token (defaults to UPWORK_ACCESS_TOKEN)")
	root.PersistentFlags().StringVar(&opts.tenantID, "tenant", "", "accounting entity id to act under")
	root.PersistentFlags().StringSliceVar(&opts.tenantIDs, "tenants", nil, "all accounting entity ids in scope")
	root.PersistentFlags().StringVar(&opts.reference, "reference", "", "freelancer reference (profile key or numeric id)")
	root.PersistentFlags().IntVar(&opts.year, "year", time.Now().Year(), "report year")
	root.PersistentFlags().IntVar(&opts.month, "month", 0, "report month (1-12, omit for annual)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "include fetch diagnostics")

	totalCmd := &cobra.Command{
		Use:   "total",
		Short: "Combined hourly plus fixed-price earnings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices(opts)
			if err != nil {
				return err
			}
			report, err := svc.TotalEarning(cmd.Context(), reportArgs(opts))
			if err != nil {
				return err
			}
			renderCombined(report)
			return nil
		},
	}

	hoursCmd := &cobra.Command{
		Use:   "hours",
		Short: "Hours worked per ISO week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices(opts)
			if err != nil {
				return err
			}
			report, err := svc.WeeklyHours(cmd.Context(), reportArgs(opts))
			if err != nil {
				return err
			}
			renderHours(report)
			return nil
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Transaction history with fees and memberships",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices(opts)
			if err != nil {
				return err
			}
			opts.net, _ = cmd.Flags().GetBool("net")
			result, err := svc.TxnHistory(cmd.Context(), reportArgs(opts))
			if err != nil {
				return err
			}
			renderHistory(result)
			return nil
		},
	}
	historyCmd.Flags().Bool("net", false, "spread service fees across earnings")

	allTimeCmd := &cobra.Command{
		Use:   "all-time",
		Short: "Per-year earnings since tracking began",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices(opts)
			if err != nil {
				return err
			}
			result, err := svc.AllTime(cmd.Context(), reportArgs(opts))
			if err != nil {
				return err
			}
			renderAllTime(result)
			return nil
		},
	}

	root.AddCommand(totalCmd, hoursCmd, historyCmd, allTimeCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildServices(opts *cliOptions) (*services.ReportService, error) {
	if opts.token == "" {
		return nil, fmt.Errorf("an access token is required (--token or UPWORK_ACCESS_TOKEN)")
	}

	cfg := config.New()
	cfg.LogLevel = "warn"
	bs, err := bootstrap.Run(cfg)
	if err != nil {
		return nil, err
	}

	txserv := services.NewTransactionService(bs.API, bs.Cache)
	trserv := services.NewTimeReportService(bs.API, bs.Cache)
	return services.NewReportService(txserv, trserv), nil
}

func reportArgs(opts *cliOptions) dto.ReportArgs {
	return dto.ReportArgs{
		UserID:              "cli",
		AccessToken:         opts.token,
		TenantID:            opts.tenantID,
		TenantIDs:           opts.tenantIDs,
		FreelancerReference: opts.reference,
		Year:                opts.year,
		Month:               opts.month,
		Net:                 opts.net,
		Debug:               opts.debug,
	}
}

func renderCombined(report dto.CombinedEarning) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(report.Title)
	t.AppendHeader(table.Row{"Period", "Hourly", "Fixed", "Combined"})
	for i, label := range report.XAxis {
		t.AppendRow(table.Row{label, money(report.Hourly[i]), money(at(report.Fixed, i)), money(report.Combined[i])})
	}
	t.AppendFooter(table.Row{"Total", "", "", money(report.TotalEarning)})
	t.AppendFooter(table.Row{"Charity (2.5%)", "", "", money(report.Charity)})
	t.Render()

	if len(report.ClientRows) > 0 {
		c := table.NewWriter()
		c.SetOutputMirror(os.Stdout)
		c.SetTitle("By client")
		c.AppendHeader(table.Row{"Client", "Total", "%"})
		for _, row := range report.ClientRows {
			c.AppendRow(table.Row{row.Name, money(row.Total), fmt.Sprintf("%.2f", row.Percent)})
		}
		c.Render()
	}
}

func renderHours(report models.HoursReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(report.Title)
	t.AppendHeader(table.Row{"Week", "Hours"})
	for i, label := range report.XAxis {
		if report.Series[i] == 0 {
			continue
		}
		t.AppendRow(table.Row{label, fmt.Sprintf("%.2f", report.Series[i])})
	}
	t.AppendFooter(table.Row{"Total", fmt.Sprintf("%.2f", report.TotalHours)})
	t.AppendFooter(table.Row{"Avg/week", fmt.Sprintf("%.2f (%s)", report.AvgWeek, strings.ToUpper(report.WorkStatus))})
	t.Render()
}

func renderHistory(result dto.TxnHistoryResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Date", "Kind", "Client", "Description", "Amount"})
	for _, row := range result.Rows {
		t.AppendRow(table.Row{row.Date, row.Kind, row.ClientName, row.Description, money(row.Amount)})
	}
	t.AppendFooter(table.Row{"", "", "", "Gross", money(result.Gross)})
	t.AppendFooter(table.Row{"", "", "", "Fees", money(result.Fees)})
	t.AppendFooter(table.Row{"", "", "", "Net", money(result.Net)})
	t.AppendFooter(table.Row{"", "", "", "Misc", money(result.Misc)})
	t.Render()
}

func renderAllTime(result dto.AllTimeResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("All-time earnings")
	t.AppendHeader(table.Row{"Year", "Hourly", "Fixed", "Total"})
	for _, y := range result.Years {
		t.AppendRow(table.Row{y.Year, money(y.Hourly), money(y.Fixed), money(y.Total)})
	}
	t.AppendFooter(table.Row{"Total", "", "", money(result.TotalEarning)})
	t.Render()
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func at(series []float64, i int) float64 {
	if i < len(series) {
		return series[i]
	}
	return 0
}
