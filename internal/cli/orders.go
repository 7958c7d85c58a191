package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apporders "storefront/internal/app/orders"
	"storefront/internal/domain/catalog"
	domainorders "storefront/internal/domain/orders"
)

func newOrdersCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect and refund orders",
	}
	cmd.AddCommand(newOrdersListCommand(opts), newOrdersKPIsCommand(opts), newOrdersRefundCommand(opts))
	return cmd
}

func newOrdersListCommand(opts *options) *cobra.Command {
	var (
		params   domainorders.FilterParams
		storeID  string
		page     int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders with optional filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cred, err := opts.orders(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			params.StoreID = catalog.StoreID(storeID)
			result, err := svc.List(cmd.Context(), cred, apporders.ListParams{FilterParams: params, Page: page, PageSize: pageSize})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			writeOrders(out, result.Items)
			fmt.Fprintf(out, "\npage %d of %d (%d orders)\n", result.Page, max(result.Pages, 1), result.Total)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&params.Status, "status", "", "status filter (all, paid, pending, ...)")
	f.StringVar(&params.Search, "search", "", "match order id, buyer, email or item")
	f.IntVar(&params.DateWindowDays, "days", 0, "only orders from the last N days")
	f.StringVar(&storeID, "store", "", "restrict to one store id")
	f.IntVar(&page, "page", 1, "page number")
	f.IntVar(&pageSize, "page-size", domainorders.DefaultPageSize, "orders per page")
	return cmd
}

func newOrdersKPIsCommand(opts *options) *cobra.Command {
	var storeID string
	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "Show revenue KPIs and orders needing action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cred, err := opts.orders(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			dash, err := svc.Summary(cmd.Context(), cred, storeID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Total revenue\t%s\n", dash.KPIs.TotalRevenue)
			fmt.Fprintf(tw, "Paid orders\t%d\n", dash.KPIs.TotalOrders)
			fmt.Fprintf(tw, "Platform revenue\t%s\n", dash.KPIs.PlatformRevenue)
			fmt.Fprintf(tw, "Average order\t%s\n", dash.KPIs.AvgOrderValue)
			fmt.Fprintf(tw, "Needs attention\t%d\n", len(dash.Buckets.NeedsAttention))
			fmt.Fprintf(tw, "Recent (24h)\t%d\n", len(dash.Buckets.RecentOrders))
			fmt.Fprintf(tw, "Pending\t%d\n", len(dash.Buckets.PendingOrders))
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&storeID, "store", "", "restrict to one store id")
	return cmd
}

func newOrdersRefundCommand(opts *options) *cobra.Command {
	var (
		reason      string
		platformFee bool
	)
	cmd := &cobra.Command{
		Use:   "refund <order-id> <amount>",
		Short: "Refund part or all of an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cred, err := opts.orders(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			outcome, err := svc.SubmitRefund(cmd.Context(), cred, apporders.RefundInput{
				OrderID:           domainorders.OrderID(args[0]),
				RawAmount:         args[1],
				Reason:            reason,
				RefundPlatformFee: platformFee,
			})
			if err != nil {
				return err
			}
			status := outcome.Result.Status
			if outcome.Order.ID != "" {
				status = outcome.Order.Status
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refund %s: %s, order is now %s\n",
				outcome.Result.RefundID, outcome.Result.Amount, domainorders.StyleFor(status).Label)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded with the refund")
	cmd.Flags().BoolVar(&platformFee, "platform-fee", false, "also refund the platform fee")
	return cmd
}

func writeOrders(w io.Writer, list []domainorders.Order) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tBUYER\tITEM\tAMOUNT")
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.CreatedAt.Format("2006-01-02 15:04"), domainorders.StyleFor(o.Status).Label,
			o.BuyerName, o.Item.Name, o.Amount)
	}
	_ = tw.Flush()
}
