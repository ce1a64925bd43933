package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/solekta/cartsync/internal/cart"
	"github.com/solekta/cartsync/internal/client"
	"github.com/solekta/cartsync/internal/store"
	"github.com/solekta/cartsync/internal/syncer"
	"github.com/solekta/cartsync/internal/token"
)

var (
	addProductID int64
	addName      string
	addPrice     float64
	addQuantity  int

	svcID         int64
	svcName       string
	svcPeriod     int
	svcPeriodType string
	svcPrice      float64
)

// app bundles the pieces every command needs. Close drains background
// replication before the process exits so remote writes are not dropped.
type app struct {
	tokens *token.Manager
	cart   *syncer.Syncer
}

func newApp() (*app, error) {
	st, err := store.NewFileStore(stateDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state directory: %w", err)
	}

	tokens := token.NewManager(filepath.Join(stateDir, "token"), logger)
	remote := client.New(tokens, client.WithBaseURL(apiURL))

	return &app{
		tokens: tokens,
		cart:   syncer.New(st, remote, tokens, logger),
	}, nil
}

func (a *app) Close() {
	a.cart.Close()
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

var loginCmd = &cobra.Command{
	Use:   "login <jwt>",
	Short: "Store a session token and reconcile the cart",
	Long: `Store a storefront-issued JWT and reconcile the local cart with the
cart service. Pass '-' to read the token from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tok := args[0]
		if tok == "-" {
			data, err := os.ReadFile("/dev/stdin")
			if err != nil {
				return fmt.Errorf("failed to read token from stdin: %w", err)
			}
			tok = strings.TrimSpace(string(data))
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.tokens.Set(tok); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}

		st := a.tokens.Status()
		if !st.Authenticated {
			return fmt.Errorf("token is expired or malformed")
		}

		ctx, cancel := commandContext()
		defer cancel()
		a.cart.OnAuthChange(ctx)

		fmt.Printf("Logged in as %s\n", st.CustomerID)
		printState(a.cart.State())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the session token, keeping the cart for the next login",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := commandContext()
		defer cancel()
		a.cart.Init(ctx)
		a.tokens.Clear()
		a.cart.OnAuthChange(ctx)

		fmt.Println("Logged out")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		st := a.tokens.Status()
		if !st.Authenticated {
			fmt.Println("Not logged in")
			return nil
		}
		fmt.Printf("Logged in as %s", st.CustomerID)
		if st.Role != "" {
			fmt.Printf(" (%s)", st.Role)
		}
		fmt.Println()
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := commandContext()
		defer cancel()
		a.cart.Init(ctx)

		printState(a.cart.State())
		return nil
	},
}

var addItemCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a product to the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(func(s *syncer.Syncer) error {
			return s.AddItem(cart.ProductLine{
				ProductID: addProductID,
				Name:      addName,
				UnitPrice: addPrice,
				Quantity:  addQuantity,
			})
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <productID> <quantity>",
	Short: "Change a product's quantity (0 removes it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		productID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product ID %q", args[0])
		}
		quantity, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		return runMutation(func(s *syncer.Syncer) error {
			return s.UpdateQuantity(productID, quantity)
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <productID>",
	Short: "Remove a product from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		productID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product ID %q", args[0])
		}
		return runMutation(func(s *syncer.Syncer) error {
			return s.RemoveItem(productID)
		})
	},
}

var addServiceCmd = &cobra.Command{
	Use:   "add-service",
	Short: "Add a service rental to the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		periodType := cart.RentalPeriodType(strings.ToUpper(svcPeriodType))
		if periodType != cart.Hourly && periodType != cart.Daily {
			return fmt.Errorf("period-type must be HOURLY or DAILY")
		}
		return runMutation(func(s *syncer.Syncer) error {
			return s.AddService(cart.ServiceLine{
				ServiceID:        svcID,
				Name:             svcName,
				RentalPeriod:     svcPeriod,
				RentalPeriodType: periodType,
				UnitPrice:        svcPrice,
				TotalPrice:       svcPrice * float64(svcPeriod),
			})
		})
	},
}

var removeServiceCmd = &cobra.Command{
	Use:   "remove-service <serviceID>",
	Short: "Remove a service rental from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serviceID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid service ID %q", args[0])
		}
		return runMutation(func(s *syncer.Syncer) error {
			return s.RemoveService(serviceID)
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(func(s *syncer.Syncer) error {
			return s.Clear()
		})
	},
}

func runMutation(fn func(*syncer.Syncer) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext()
	defer cancel()
	a.cart.Init(ctx)

	if err := fn(a.cart); err != nil {
		return err
	}

	printState(a.cart.State())
	return nil
}

func printState(st cart.State) {
	if len(st.Items) == 0 {
		fmt.Println("Cart is empty")
		return
	}
	for _, item := range st.Items {
		switch line := item.(type) {
		case cart.ProductLine:
			fmt.Printf("  %-30s x%-3d %10.2f\n", lineLabel(line.Name, line.ProductID), line.Quantity, line.Subtotal())
		case cart.ServiceLine:
			period := fmt.Sprintf("%d %s", line.RentalPeriod, strings.ToLower(string(line.RentalPeriodType)))
			fmt.Printf("  %-30s %-4s %10.2f\n", lineLabel(line.Name, line.ServiceID), period, line.Subtotal())
		}
	}
	fmt.Printf("  %-30s %15.2f  (%d items)\n", "Total", st.Total, st.ItemCount)
}

func lineLabel(name string, id int64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
