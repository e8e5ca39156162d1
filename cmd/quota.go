package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fiquant/taxpro-bulk/internal/quota"
)

var quotaTier string

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show this month's usage, tier limits and feature access",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		tier, err := a.tier(quotaTier)
		if err != nil {
			return err
		}
		guard, err := a.guard()
		if err != nil {
			return err
		}
		limits, err := guard.Limits(tier)
		if err != nil {
			return err
		}
		state, err := guard.Usage(cmd.Context())
		if err != nil {
			return err
		}
		gate, err := quota.NewGate()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Tier:              %s\n", tier.Title())
		fmt.Fprintf(out, "Month:             %s\n", state.MonthKey)
		fmt.Fprintf(out, "Submissions used:  %d of %s\n", state.Counter, limitText(limits.MonthlyLimit))
		fmt.Fprintf(out, "Staff per upload:  %s\n\n", limitText(limits.StaffLimit))

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Feature\tAccess")
		for _, f := range quota.Features {
			info := gate.DescribeGate(f, tier)
			access := "yes"
			if !info.Allowed {
				access = info.Message
			}
			fmt.Fprintf(tw, "%s\t%s\n", f.Label(), access)
		}
		return tw.Flush()
	},
}

func limitText(n int) string {
	if n == quota.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

func init() {
	quotaCmd.Flags().StringVar(&quotaTier, "tier", "", "Subscription tier (default from config)")
	rootCmd.AddCommand(quotaCmd)
}
