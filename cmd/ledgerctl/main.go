// Command ledgerctl inspects and resets persisted shopper carts and orders.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/xenking/marketbarrio/internal/app"
	"github.com/xenking/marketbarrio/internal/codec"
	"github.com/xenking/marketbarrio/internal/domain/pricing"
	"github.com/xenking/marketbarrio/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	lg, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	if err := newApp().RunContext(zctx.Base(ctx, lg), os.Args); err != nil {
		lg.Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}

func sessionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "session",
		Aliases:  []string{"s"},
		Usage:    "Session ID",
		Required: true,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ledgerctl",
		Usage: "Inspect and reset MarketBarrio carts and orders",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Value: app.DriverFile, Usage: "Storage driver: file or postgres", EnvVars: []string{"MB_STORE_DRIVER"}},
			&cli.StringFlag{Name: "dir", Value: "data", Usage: "Directory of the file driver", EnvVars: []string{"MB_STORE_DIR"}},
			&cli.StringFlag{Name: "database-url", Usage: "PostgreSQL connection URL", EnvVars: []string{"MB_STORE_DATABASE_URL", "DATABASE_URL"}},
			&cli.StringFlag{Name: "catalog", Usage: "Catalog file; the embedded catalog is used when empty", EnvVars: []string{"MB_CATALOG_PATH"}},
		},
		Commands: []*cli.Command{
			{
				Name:   "sessions",
				Usage:  "List sessions with persisted state",
				Action: withStore(listSessions),
			},
			{
				Name:  "cart",
				Usage: "Manage a session cart",
				Subcommands: []*cli.Command{
					{Name: "show", Usage: "Print the cart", Flags: []cli.Flag{sessionFlag()}, Action: withSession(showCart)},
					{Name: "clear", Usage: "Empty the cart", Flags: []cli.Flag{sessionFlag()}, Action: withSession(clearCart)},
				},
			},
			{
				Name:  "orders",
				Usage: "Manage a session order history",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "Print the order history", Flags: []cli.Flag{sessionFlag()}, Action: withSession(listOrders)},
					{Name: "clear", Usage: "Delete the order history", Flags: []cli.Flag{sessionFlag()}, Action: withSession(clearOrders)},
				},
			},
			{
				Name:   "report",
				Usage:  "Print the number of recorded orders and their combined total",
				Action: withStore(report),
			},
			importCommand(),
		},
	}
}

func openStore(c *cli.Context) (app.Store, error) {
	return app.OpenStore(c.Context, app.StoreConfig{
		Driver:      c.String("store"),
		Dir:         c.String("dir"),
		DatabaseURL: c.String("database-url"),
	})
}

func withStore(fn func(c *cli.Context, store app.Store) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return fn(c, store)
	}
}

func withSession(fn func(c *cli.Context, s *session.Session) error) cli.ActionFunc {
	return withStore(func(c *cli.Context, store app.Store) error {
		catalog, err := app.LoadCatalog(c.String("catalog"))
		if err != nil {
			return errors.Wrap(err, "load catalog")
		}
		s := session.Load(c.Context, c.String("session"), session.Config{
			Catalog: catalog,
			Store:   store,
			Policy:  pricing.DefaultPolicy,
		})
		return fn(c, s)
	})
}

func listSessions(c *cli.Context, store app.Store) error {
	keys, err := store.Keys(c.Context, "")
	if err != nil {
		return errors.Wrap(err, "list keys")
	}
	seen := make(map[string]bool)
	for _, key := range keys {
		id, name, ok := strings.Cut(key, ":")
		if !ok || (name != codec.CartKey && name != codec.OrdersKey) {
			continue
		}
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintln(c.App.Writer, id)
	}
	return nil
}

// orderTotaler is implemented by stores that aggregate order ledgers
// themselves.
type orderTotaler interface {
	OrderTotals(ctx context.Context, suffix string) (int64, decimal.Decimal, error)
}

func report(c *cli.Context, store app.Store) error {
	var (
		count int64
		total decimal.Decimal
		err   error
	)
	if t, ok := store.(orderTotaler); ok {
		count, total, err = t.OrderTotals(c.Context, ":"+codec.OrdersKey)
	} else {
		count, total, err = sumOrders(c.Context, store)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDERS\tTOTAL")
	fmt.Fprintf(w, "%d\t%s\n", count, total.StringFixed(2))
	return w.Flush()
}

func sumOrders(ctx context.Context, store app.Store) (int64, decimal.Decimal, error) {
	keys, err := store.Keys(ctx, "")
	if err != nil {
		return 0, decimal.Decimal{}, errors.Wrap(err, "list keys")
	}
	var (
		count int64
		total decimal.Decimal
	)
	for _, key := range keys {
		if !strings.HasSuffix(key, ":"+codec.OrdersKey) {
			continue
		}
		data, err := store.Get(ctx, key)
		if err != nil {
			return 0, decimal.Decimal{}, errors.Wrapf(err, "get %q", key)
		}
		orders, err := codec.DecodeOrders([]byte(data))
		if err != nil {
			zctx.From(ctx).Warn("Skipping corrupt order ledger", zap.String("key", key), zap.Error(err))
			continue
		}
		for _, o := range orders {
			count++
			total = total.Add(o.Total)
		}
	}
	return count, total, nil
}

func showCart(c *cli.Context, s *session.Session) error {
	cart := s.Cart()
	if len(cart.Lines) == 0 {
		fmt.Fprintln(c.App.Writer, "Tu carrito está vacío")
		return nil
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tNAME\tQTY\tPRICE\tAMOUNT")
	for _, l := range cart.Lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, l.Price.StringFixed(2), l.Amount.StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t%d\tsubtotal\t%s\n", cart.Count, cart.Summary.Subtotal.StringFixed(2))
	fmt.Fprintf(w, "\t\t\tdelivery\t%s\n", cart.Summary.Delivery.StringFixed(2))
	fmt.Fprintf(w, "\t\t\ttotal\t%s\n", cart.Summary.Total.StringFixed(2))
	return w.Flush()
}

func clearCart(c *cli.Context, s *session.Session) error {
	n := s.ClearCart(c.Context)
	fmt.Fprintf(c.App.Writer, "%s: %s\n", n.Title, n.Message)
	return nil
}

func listOrders(c *cli.Context, s *session.Session) error {
	orders := s.Orders()
	if len(orders) == 0 {
		fmt.Fprintln(c.App.Writer, "No orders")
		return nil
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tPAYMENT\tCUSTOMER\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(w, "%d\t%s\t%s %s\t%s\t%s\t%d\t%s\n",
			o.ID,
			o.CreatedAt.Local().Format("2006-01-02 15:04"),
			o.Glyph, o.Status,
			o.PaymentMethod,
			o.CustomerName,
			o.ItemCount,
			o.Total.StringFixed(2),
		)
	}
	return w.Flush()
}

func clearOrders(c *cli.Context, s *session.Session) error {
	n := s.ClearHistory(c.Context)
	fmt.Fprintf(c.App.Writer, "%s: %s\n", n.Title, n.Message)
	return nil
}
