package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"shophub-be/internal/checkout"
	"shophub-be/internal/order"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	apiURL    string
	token     string
	tokenFile string
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".shopctl-token"
	}
	return filepath.Join(dir, "shopctl", "token")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// client builds an API client using --token, then the saved token.
func (o *globalOptions) client() *checkout.Client {
	token := o.token
	if token == "" {
		if b, err := os.ReadFile(o.tokenFile); err == nil {
			token = strings.TrimSpace(string(b))
		}
	}
	return checkout.NewClient(o.apiURL, token)
}

func (o *globalOptions) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(o.tokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(o.tokenFile, []byte(token+"\n"), 0o600)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "ShopHub command line client",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("SHOPHUB_API", "http://localhost:5000"), "API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("SHOPHUB_TOKEN"), "bearer token (defaults to the saved login)")
	root.PersistentFlags().StringVar(&opts.tokenFile, "token-file", defaultTokenFile(), "where login stores the token")

	root.AddCommand(loginCmd(opts))
	root.AddCommand(keyCmd(opts))
	root.AddCommand(quoteCmd(opts))
	root.AddCommand(checkoutCmd(opts))
	root.AddCommand(ordersCmd(opts))

	return root
}

func loginCmd(opts *globalOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			u, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := opts.saveToken(c.Token()); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Email, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func keyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "key",
		Short: "Print the payment provider's public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := opts.client().Key(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

// parseItems reads "product:quantity" pairs; a bare product id means one.
func parseItems(raw []string) ([]order.CartItem, error) {
	items := make([]order.CartItem, 0, len(raw))
	for _, r := range raw {
		id, qty, found := strings.Cut(r, ":")
		quantity := 1
		if found {
			n, err := strconv.Atoi(qty)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid quantity in %q", r)
			}
			quantity = n
		}
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("missing product id in %q", r)
		}
		items = append(items, order.CartItem{ProductID: strings.TrimSpace(id), Quantity: quantity})
	}
	if len(items) == 0 {
		return nil, errors.New("at least one --item is required")
	}
	return items, nil
}

func quoteCmd(opts *globalOptions) *cobra.Command {
	var rawItems []string

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a cart without placing an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseItems(rawItems)
			if err != nil {
				return err
			}
			q, err := opts.client().Quote(cmd.Context(), items)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, li := range q.Items {
				fmt.Fprintf(out, "  %-30s %3d x %10s\n", li.Name, li.Quantity, li.Price.StringFixed(2))
			}
			printPricing(out, q.Pricing)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&rawItems, "item", "i", nil, "product:quantity (repeatable)")
	return cmd
}

func printPricing(out io.Writer, p order.Pricing) {
	fmt.Fprintf(out, "Items:    %s\n", p.ItemsPrice.StringFixed(2))
	fmt.Fprintf(out, "Shipping: %s\n", p.ShippingPrice.StringFixed(2))
	fmt.Fprintf(out, "Tax:      %s\n", p.TaxPrice.StringFixed(2))
	fmt.Fprintf(out, "Total:    %s\n", p.TotalPrice.StringFixed(2))
}

func checkoutCmd(opts *globalOptions) *cobra.Command {
	var (
		rawItems []string
		method   string
		currency string
		address  order.ShippingAddress
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order, paying online or cash on delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseItems(rawItems)
			if err != nil {
				return err
			}

			widget := checkout.NewTerminalWidget(cmd.InOrStdin(), cmd.OutOrStdout())
			flow := checkout.NewFlow(opts.client(), widget)
			if currency != "" {
				flow.Currency = currency
			}

			o, err := flow.Checkout(cmd.Context(), checkout.NewCart(items...), address, order.PaymentMethod(method))
			if err != nil {
				var unreconciled *checkout.UnreconciledPaymentError
				if errors.As(err, &unreconciled) {
					fmt.Fprintln(cmd.ErrOrStderr(), "IMPORTANT:", unreconciled.Error())
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Order %s placed (%s, payment %s)\n", o.ID, o.OrderStatus, o.PaymentStatus)
			printPricing(out, o.Pricing)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&rawItems, "item", "i", nil, "product:quantity (repeatable)")
	f.StringVarP(&method, "method", "m", string(order.PaymentCOD), "payment method: online or cod")
	f.StringVar(&currency, "currency", "", "payment currency (server default when empty)")
	f.StringVar(&address.Street, "street", "", "shipping street")
	f.StringVar(&address.City, "city", "", "shipping city")
	f.StringVar(&address.State, "state", "", "shipping state")
	f.StringVar(&address.ZipCode, "zip", "", "shipping zip code")
	f.StringVar(&address.Country, "country", "", "shipping country")
	f.StringVar(&address.Phone, "phone", "", "contact phone")

	return cmd
}

func ordersCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := opts.client().MyOrders(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(orders)
			}
			if len(orders) == 0 {
				fmt.Fprintln(out, "No orders yet.")
				return nil
			}
			for _, o := range orders {
				fmt.Fprintf(out, "%s  %-10s %-9s %10s  %s\n",
					o.ID, o.OrderStatus, o.PaymentStatus, o.TotalPrice.StringFixed(2), o.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}
