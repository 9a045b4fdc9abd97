package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"sharada-markets/internal/calculator"
	"sharada-markets/internal/format"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "calc",
		Short:         "SIP and fixed deposit calculators",
		Long:          `Compute the future value of a monthly SIP or the maturity of a quarterly-compounded fixed deposit.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("json", false, "print the result as JSON")
	root.AddCommand(newSIPCmd(), newFDCmd())
	return root
}

func newSIPCmd() *cobra.Command {
	var in calculator.SIPInput
	var schedule bool
	cmd := &cobra.Command{
		Use:   "sip",
		Short: "Future value of a monthly SIP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := in.Validate(); err != nil {
				return err
			}
			res := calculator.SIP(in)
			var rows []calculator.SIPYear
			if schedule {
				rows = calculator.SIPSchedule(in)
			}
			if asJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"result": res, "schedule": rows})
			}
			printSIP(cmd.OutOrStdout(), res, rows)
			return nil
		},
	}
	cmd.Flags().Float64VarP(&in.Monthly, "monthly", "m", 5000, "monthly investment in rupees")
	cmd.Flags().Float64VarP(&in.AnnualReturnPct, "return", "r", 12, "expected annual return in percent")
	cmd.Flags().Float64VarP(&in.Years, "years", "y", 10, "investment period in years")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "print the year-end schedule")
	return cmd
}

func newFDCmd() *cobra.Command {
	var in calculator.FDInput
	var unit string
	cmd := &cobra.Command{
		Use:   "fd",
		Short: "Maturity of a fixed deposit compounded quarterly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Unit = calculator.TenureUnit(unit)
			if err := in.Validate(); err != nil {
				return err
			}
			res := calculator.FD(in)
			if asJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printFD(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().Float64VarP(&in.Principal, "principal", "p", 100000, "deposit amount in rupees")
	cmd.Flags().Float64VarP(&in.RatePct, "rate", "r", 7, "annual interest rate in percent")
	cmd.Flags().Float64VarP(&in.Tenure, "tenure", "t", 5, "deposit tenure")
	cmd.Flags().StringVarP(&unit, "unit", "u", string(calculator.Years), "tenure unit: years or months")
	return cmd
}

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSIP(w io.Writer, res calculator.SIPResult, rows []calculator.SIPYear) {
	fmt.Fprintf(w, "Invested:       %s\n", format.CurrencyDigits(res.TotalInvestment, 0))
	fmt.Fprintf(w, "Future value:   %s\n", format.CurrencyDigits(res.FutureValue, 0))
	fmt.Fprintf(w, "Returns:        %s (%s)\n", format.CurrencyDigits(res.TotalReturns, 0), format.Percentage(res.ReturnPct, 2))
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Year\tInvested\tValue")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", row.Year, format.CurrencyDigits(row.Invested, 0), format.CurrencyDigits(row.Value, 0))
	}
	tw.Flush()
}

func printFD(w io.Writer, res calculator.FDResult) {
	fmt.Fprintf(w, "Principal:      %s\n", format.Currency(res.Principal))
	fmt.Fprintf(w, "Maturity:       %s\n", format.Currency(res.MaturityAmount))
	fmt.Fprintf(w, "Interest:       %s (%s)\n", format.Currency(res.Interest), format.Percentage(res.EffectiveRate, 2))
}
