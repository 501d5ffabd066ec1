package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pos-terminal/internal/ai"
	"go-pos-terminal/internal/apiclient"
	"go-pos-terminal/internal/auth"
	"go-pos-terminal/internal/catalog"
	"go-pos-terminal/internal/config"
	"go-pos-terminal/internal/database"
	"go-pos-terminal/internal/handlers"
	"go-pos-terminal/internal/middleware"
	"go-pos-terminal/internal/notify"
	"go-pos-terminal/internal/pos"
	"go-pos-terminal/internal/receipt"
	"go-pos-terminal/internal/stock"
	"go-pos-terminal/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("Warning: No .env file found")
	}
	cfg := config.FromEnv()
	log := config.NewLogger(cfg)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	signer, err := auth.NewSigner(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	terminalID := utils.TerminalID(cfg.TerminalID)
	log.WithField("terminal", terminalID).Info("🖥️ Terminal identified")

	// --- 1. Local journal (sales log, operators) ---
	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return err
	}
	journal := database.NewJournal(db)
	operators := database.NewOperators(db)

	// --- 2. Shop API ---
	apiCfg := apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.HTTPTimeout, TerminalID: terminalID}
	var tokens apiclient.TokenSource = auth.StaticToken(cfg.APIToken)
	if cfg.APIToken == "" {
		login := apiclient.New(apiCfg, nil, log)
		tokens = auth.NewRemoteToken(func(ctx context.Context) (string, error) {
			return login.Login(ctx, cfg.APIUsername, cfg.APIPassword)
		})
	}
	client := apiclient.New(apiCfg, tokens, log)

	products := catalog.NewProducts(client.Products)
	invoices := catalog.NewCache(client.Invoices, time.Minute)

	// --- 3. Optional Redis mirror of the stock snapshot ---
	var mirror stock.Mirror
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		mirror = stock.NewRedisMirror(rdb, terminalID)
		log.WithField("addr", cfg.RedisAddr).Info("📦 Stock mirror enabled")
	}

	// --- 4. Receipts ---
	header := receipt.Header{ShopName: cfg.ShopName, TaxID: cfg.ShopTaxID}
	var printer *receipt.Printer
	if cfg.ReceiptDir != "" {
		if printer, err = receipt.NewSpoolPrinter(cfg.ReceiptDir, header, log); err != nil {
			return err
		}
	} else {
		printer = receipt.NewWriterPrinter(io.Discard, header, log)
	}

	// --- 5. The terminal session ---
	hub := notify.NewHub(50)
	session := pos.NewSession(pos.Settings{
		DefaultTaxRate:    cfg.DefaultTaxRate,
		StockStaleAfter:   cfg.StockStaleAfter,
		ReconcileDebounce: cfg.ReconcileDebounce,
	}, pos.Deps{
		Inventory:    client,
		Mirror:       mirror,
		Submitter:    client,
		Products:     products,
		Notifier:     hub,
		Journal:      journal,
		Printer:      printer,
		Invalidators: []func(){invoices.Invalidate},
	}, log)
	session.Start(ctx)
	defer session.Close()

	agent := ai.NewAgent(cfg.GeminiAPIKey, &ai.Tools{
		Products: products,
		Stock:    session.Stock,
		Cart:     session,
		Sales:    journal,
	}, log)

	// --- 6. HTTP ---
	if !cfg.LogJSON {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin}, // Allow React
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := &handlers.Handler{
		Session:           session,
		Products:          products,
		Invoices:          invoices,
		Hub:               hub,
		Journal:           journal,
		Operators:         operators,
		Signer:            signer,
		Agent:             agent,
		Receipt:           header,
		TerminalID:        terminalID,
		AllowRegistration: cfg.AllowRegistration,
		Log:               log,
	}
	h.Routes(r)

	// --- 7. DEPLOYMENT: Serve React Frontend ---
	r.Static("/assets", "./web/assets")
	r.StaticFile("/vite.svg", "./web/vite.svg")
	// SPA Catch-All: serve index.html so React can handle the routing.
	r.NoRoute(func(c *gin.Context) {
		c.File("./web/index.html")
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
		// Notification streams end with the process context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("🚀 Server starting on :" + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("🛑 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
