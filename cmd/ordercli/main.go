package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/authenticindia/order-desk/internal/adapter/geo"
	"github.com/authenticindia/order-desk/internal/adapter/orderapi"
	"github.com/authenticindia/order-desk/internal/adapter/storage"
	"github.com/authenticindia/order-desk/internal/config"
	"github.com/authenticindia/order-desk/internal/core/domain"
	"github.com/authenticindia/order-desk/internal/core/service"
	"github.com/authenticindia/order-desk/internal/port"
)

const usage = "expected 'order' or 'orders' subcommand"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadWithDefaults()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch os.Args[1] {
	case "order":
		err = runOrder(ctx, cfg, os.Args[2:], os.Stdout)
	case "orders":
		err = runOrders(ctx, cfg, os.Args[2:], os.Stdout)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type deps struct {
	api     *orderapi.HTTPClient
	backend *storage.Backend
	cfg     *config.Config
	client  *http.Client
}

func connect(ctx context.Context, cfg *config.Config) (*deps, error) {
	client := &http.Client{Timeout: cfg.OrderAPI.Timeout}
	api, err := orderapi.NewHTTPClient(cfg.OrderAPI.URL, client)
	if err != nil {
		return nil, err
	}
	backend, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	return &deps{api: api, backend: backend, cfg: cfg, client: client}, nil
}

func runOrder(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	productID := fs.String("product", "idli-dosa-batter", "Product to order")
	quantity := fs.Int("qty", 1, "Quantity (at least 1)")
	phone := fs.String("phone", "", "Contact phone number")
	payment := fs.String("payment", "", "Payment mode: cod, upi or card")
	lat := fs.Float64("lat", 0, "Delivery latitude")
	lng := fs.Float64("lng", 0, "Delivery longitude")
	locate := fs.Bool("locate", false, "Use the current position instead of -lat/-lng")
	fs.Parse(args)

	pointSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "lat" || f.Name == "lng" {
			pointSet = true
		}
	})

	d, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.backend.Close()

	logger := cfg.Log.NewLogger(os.Stderr)
	product, err := domain.DefaultCatalog(cfg.Currency).Product(*productID)
	if err != nil {
		return err
	}

	session := service.NewOrderSession(uuid.NewString(), product, service.SessionDeps{
		Orders:   service.NewOrderService(d.api, 0, logger),
		Location: service.NewLocationService(cliPosition(d), geo.NewNominatim(cfg.Geo.GeocoderURL, cfg.Geo.UserAgent, d.client), logger),
		Store:    d.backend.Locations,
		Logger:   logger,
		OnConfirmed: func(c domain.Confirmation) {
			jctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := d.backend.Journal.RecordReceipt(jctx, c); err != nil {
				logger.Warn("failed to journal order", "order_id", c.OrderID, "error", err)
			}
		},
	})
	defer session.Close()

	if err := session.Open(ctx); err != nil {
		return err
	}
	if err := fillDraft(session, *quantity, *phone, *payment); err != nil {
		return err
	}

	var loc domain.PersistedLocation
	switch {
	case pointSet:
		loc, err = session.SelectPoint(ctx, domain.Coordinates{Lat: *lat, Lng: *lng})
	case *locate:
		loc, err = session.UseMyLocation(ctx)
	}
	if err != nil {
		return fmt.Errorf("delivery location: %w", err)
	}
	if loc.Text != "" {
		fmt.Fprintf(out, "Delivering to: %s\n", loc.Text)
	}

	view := session.View()
	fmt.Fprintf(out, "%d x %s = %s\n", view.Quantity, view.ProductName, product.FormatPrice(view.TotalPrice))

	c, err := session.Submit(ctx)
	if err != nil {
		var validation domain.ValidationError
		if errors.As(err, &validation) {
			return fmt.Errorf("missing %s", strings.Join(validation.Missing, ", "))
		}
		return err
	}

	fmt.Fprintf(out, "Order placed! Order ID: %d\n", c.OrderID)
	return nil
}

func fillDraft(session *service.OrderSession, quantity int, phone, payment string) error {
	if _, err := session.AdjustQuantity(quantity - 1); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	if err := session.SetPhone(phone); err != nil {
		return fmt.Errorf("phone: %w", err)
	}
	if payment == "" {
		return nil
	}
	mode, err := domain.ToPaymentMode(payment)
	if err != nil {
		return err
	}
	if err := session.SetPaymentMode(mode); err != nil {
		return fmt.Errorf("payment: %w", err)
	}
	return nil
}

func runOrders(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("orders", flag.ExitOnError)
	phone := fs.String("phone", "", "Phone number used for the orders")
	local := fs.Bool("local", false, "List orders journaled on this machine instead of asking the backend")
	fs.Parse(args)

	d, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.backend.Close()

	var orders []domain.Order
	if *local {
		journal, ok := d.backend.Journal.(receiptLister)
		if !ok {
			return fmt.Errorf("store %q cannot list receipts", cfg.Store.Kind)
		}
		orders, err = journal.Receipts(ctx, strings.TrimSpace(*phone))
	} else {
		orders, err = service.NewLookupService(d.api, cfg.Log.NewLogger(os.Stderr)).FindOrders(ctx, *phone)
	}
	if err != nil {
		return err
	}

	fmt.Fprint(out, renderOrders(orders))
	return nil
}

type receiptLister interface {
	Receipts(ctx context.Context, phone string) ([]domain.Order, error)
}

func renderOrders(orders []domain.Order) string {
	if len(orders) == 0 {
		return service.NoOrdersMessage + "\n"
	}

	lines := lo.Map(orders, func(o domain.Order, _ int) string {
		placed := "-"
		if !o.CreatedAt.IsZero() {
			placed = o.CreatedAt.Local().Format("02 Jan 2006 15:04")
		}
		return fmt.Sprintf("#%d  %s x%d  %s  %s  %s\n    %s",
			o.OrderID, o.ProductName, o.Quantity, o.TotalPrice.StringFixed(2), o.PaymentMode.Label(), placed, o.Location)
	})
	return strings.Join(lines, "\n") + "\n"
}

func cliPosition(d *deps) port.PositionProvider {
	switch d.cfg.Geo.PositionProvider {
	case config.PositionStatic:
		at := d.cfg.Geo.Default
		return geo.StaticPosition{At: &at}
	case config.PositionDenied:
		return geo.StaticPosition{}
	default:
		return geo.NewIPLocator(d.cfg.Geo.IPAPIURL, d.client)
	}
}
