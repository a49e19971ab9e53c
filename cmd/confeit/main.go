// Command confeit is the seller-facing client for the ConfeitApp API: it owns
// the persisted session and mirrors the catalog, the order feed, and the
// storefront settings locally, the same way the mobile app does.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"example.com/confeitapp/internal/api"
	"example.com/confeitapp/internal/auth"
	"example.com/confeitapp/internal/config"
	"example.com/confeitapp/internal/logging"
	"example.com/confeitapp/internal/orders"
	"example.com/confeitapp/internal/products"
	"example.com/confeitapp/internal/session"
	"example.com/confeitapp/internal/sqliteutil"
	"example.com/confeitapp/internal/storefront"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	app, cleanup, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx := context.Background()
	app.manager.Bootstrap(ctx)

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: confeit <command> [args]

commands:
  login     -email -password
  register  -name -email -password -phone
  logout
  whoami
  products  list | create | toggle | update
  orders    list | show | status | seed
  store     show | update`)
}

type app struct {
	client  *api.Client
	logger  *slog.Logger
	manager *auth.Manager
	catalog *products.Collection
	feed    *orders.Feed
	store   *storefront.Settings
}

func newApp() (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New()

	secrets, err := session.NewFileStore(filepath.Join(cfg.DataDir, "secrets"))
	if err != nil {
		return nil, nil, err
	}
	db, err := sqliteutil.Open(filepath.Join(cfg.DataDir, "session.db"))
	if err != nil {
		return nil, nil, err
	}
	profile := session.NewDBStore(db)
	if err := profile.Init(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}

	client := api.NewClient(cfg.BaseURL, cfg.RequestTimeout, session.TokenSource{Store: secrets})
	a := &app{
		client:  client,
		logger:  logger,
		manager: auth.NewManager(client, secrets, profile, logger),
		catalog: products.NewCollection(client, logger),
		feed:    orders.NewFeed(client, logger),
		store:   storefront.NewSettings(client, logger),
	}
	return a, func() { db.Close() }, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		a.manager.SignOut(ctx)
		fmt.Println("Sessão encerrada.")
		return nil
	case "whoami":
		return a.whoami()
	case "products":
		return a.products(ctx, args)
	case "orders":
		return a.orders(ctx, args)
	case "store":
		return a.storefront(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if err := a.manager.SignIn(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Printf("Bem-vinda, %s!\n", a.manager.User().Name)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "seller name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (min. 8)")
	phone := fs.String("phone", "", "contact phone")
	fs.Parse(args)

	if err := a.manager.SignUp(ctx, *name, *email, *password, *phone); err != nil {
		return err
	}
	fmt.Printf("Conta criada. Bem-vinda, %s!\n", a.manager.User().Name)
	return nil
}

func (a *app) whoami() error {
	user := a.manager.User()
	if user == nil {
		fmt.Println("Nenhuma sessão ativa. Use: confeit login")
		return nil
	}
	fmt.Printf("%s <%s> (id %s)\n", user.Name, user.Email, user.ID)
	return nil
}

// requireSession applies the same gate the app's navigation layer does: an
// anonymous user is sent back to sign-in instead of reaching a resource screen.
func (a *app) requireSession() error {
	if a.manager.Redirect(false) == auth.DecisionToSignIn {
		return fmt.Errorf("sessão necessária; use: confeit login")
	}
	return nil
}

func (a *app) products(ctx context.Context, args []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: confeit products <list|create|toggle|update>")
	}

	switch args[0] {
	case "list":
		a.catalog.Fetch(ctx)
		if msg := a.catalog.Err(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		for _, p := range a.catalog.Products() {
			status := "ativo"
			if !p.IsActive {
				status = "pausado"
			}
			fmt.Printf("%s  %-30s  R$ %.2f  [%s]\n", p.ID, p.Name, p.Price, status)
		}
		return nil

	case "create":
		fs := flag.NewFlagSet("products create", flag.ExitOnError)
		name := fs.String("name", "", "product name")
		description := fs.String("description", "", "product description")
		price := fs.Float64("price", 0, "price in BRL")
		fs.Parse(args[1:])

		created, err := a.catalog.Create(ctx, api.CreateProductInput{
			Name: *name, Description: *description, Price: *price,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Produto criado: %s (%s)\n", created.Name, created.ID)
		return nil

	case "toggle":
		fs := flag.NewFlagSet("products toggle", flag.ExitOnError)
		id := fs.String("id", "", "product id")
		active := fs.Bool("active", true, "new active state")
		fs.Parse(args[1:])

		a.catalog.Fetch(ctx)
		a.catalog.ToggleStatus(ctx, *id, *active)
		if msg := a.catalog.Err(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		fmt.Println("Status atualizado.")
		return nil

	case "update":
		fs := flag.NewFlagSet("products update", flag.ExitOnError)
		id := fs.String("id", "", "product id")
		name := fs.String("name", "", "new name (optional)")
		description := fs.String("description", "", "new description (optional)")
		price := fs.Float64("price", -1, "new price (optional)")
		fs.Parse(args[1:])

		var input api.UpdateProductInput
		if *name != "" {
			input.Name = name
		}
		if *description != "" {
			input.Description = description
		}
		if *price >= 0 {
			input.Price = price
		}
		updated, err := a.catalog.Update(ctx, *id, input)
		if err != nil {
			return err
		}
		fmt.Printf("Produto atualizado: %s\n", updated.Name)
		return nil

	default:
		return fmt.Errorf("unknown products action %q", args[0])
	}
}

func (a *app) orders(ctx context.Context, args []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: confeit orders <list|show|status|seed>")
	}

	switch args[0] {
	case "list":
		a.feed.Fetch(ctx)
		if msg := a.feed.Err(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		for _, o := range a.feed.Orders() {
			fmt.Printf("%s  %s  %-20s  %dx %-25s  R$ %.2f  %s\n",
				o.OrderNumber, o.CreatedAt.Format("2006-01-02"), o.CustomerName,
				o.Quantity, o.ProductName, o.TotalPrice, api.OrderStatusLabels[o.Status])
		}
		return nil

	case "show":
		fs := flag.NewFlagSet("orders show", flag.ExitOnError)
		id := fs.String("id", "", "order id")
		fs.Parse(args[1:])

		detail := a.newDetail(*id)
		detail.Fetch(ctx)
		if msg := detail.Err(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		o := detail.Order()
		fmt.Printf("Pedido %s — %s\n", o.OrderNumber, api.OrderStatusLabels[o.Status])
		fmt.Printf("Cliente: %s (%s)\n", o.CustomerName, o.CustomerPhone)
		fmt.Printf("Item: %dx %s — R$ %.2f\n", o.Quantity, o.ProductName, o.TotalPrice)
		fmt.Printf("Entrega: %s às %s\n", o.DeliveryDate, o.DeliveryTime)
		if o.Observations != "" {
			fmt.Printf("Observações: %s\n", o.Observations)
		}
		return nil

	case "status":
		fs := flag.NewFlagSet("orders status", flag.ExitOnError)
		id := fs.String("id", "", "order id")
		status := fs.String("status", "", "new status (pending|confirmed|production|ready|delivered|cancelled)")
		fs.Parse(args[1:])

		next := api.OrderStatus(strings.ToLower(*status))
		if !next.Valid() {
			return fmt.Errorf("status %q inválido", *status)
		}
		detail := a.newDetail(*id)
		detail.Fetch(ctx)
		if msg := detail.Err(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		detail.UpdateStatus(ctx, next)
		if msg := detail.Err(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		fmt.Printf("Pedido %s agora: %s\n", *id, api.OrderStatusLabels[next])
		return nil

	case "seed":
		order, err := a.client.SeedRandomOrder(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Pedido gerado: %s (%s)\n", order.OrderNumber, order.CustomerName)
		return nil

	default:
		return fmt.Errorf("unknown orders action %q", args[0])
	}
}

func (a *app) newDetail(id string) *orders.Detail {
	return orders.NewDetail(a.client, a.logger, id)
}

func (a *app) storefront(ctx context.Context, args []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: confeit store <show|update>")
	}

	switch args[0] {
	case "show":
		a.store.Fetch(ctx)
		if msg := a.store.Err(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		st := a.store.Store()
		fmt.Printf("%s (/%s)\n", st.Name, st.Slug)
		fmt.Printf("Entrega: %s\n", joinDeliveryTypes(st.SupportedDeliveryTypes))
		if st.ThemeColor != "" {
			fmt.Printf("Tema: %s, layout %s\n", st.ThemeColor, st.LayoutStyle)
		}
		return nil

	case "update":
		fs := flag.NewFlagSet("store update", flag.ExitOnError)
		name := fs.String("name", "", "store name (optional)")
		slug := fs.String("slug", "", "store slug (optional)")
		theme := fs.String("theme", "", "theme color (optional)")
		layout := fs.String("layout", "", "layout style: grid|list (optional)")
		font := fs.String("font", "", "font family (optional)")
		fs.Parse(args[1:])

		var payload api.UpdateStorePayload
		if *name != "" {
			payload.Name = name
		}
		if *slug != "" {
			payload.Slug = slug
		}
		if *theme != "" {
			payload.ThemeColor = theme
		}
		if *layout != "" {
			style := api.LayoutStyle(*layout)
			if style != api.LayoutGrid && style != api.LayoutList {
				return fmt.Errorf("layout %q inválido", *layout)
			}
			payload.LayoutStyle = &style
		}
		if *font != "" {
			payload.FontFamily = font
		}

		updated, err := a.store.Update(ctx, payload)
		if err != nil {
			if api.ErrorCode(err) == api.CodeDuplicateSlug {
				return fmt.Errorf("o endereço %q já pertence a outra loja; escolha outro slug", *slug)
			}
			return err
		}
		fmt.Printf("Loja atualizada: %s (/%s)\n", updated.Name, updated.Slug)
		return nil

	default:
		return fmt.Errorf("unknown store action %q", args[0])
	}
}

func joinDeliveryTypes(types []api.DeliveryType) string {
	if len(types) == 0 {
		return "nenhum"
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
