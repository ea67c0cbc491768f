package main

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ndmanh/techstore-backend/internal/config"
	"github.com/ndmanh/techstore-backend/internal/inventory"
	"github.com/ndmanh/techstore-backend/internal/order"
	"github.com/ndmanh/techstore-backend/internal/payment"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db := mustOpenDB(cfg.DatabaseURL)
	defer db.Close()
	ensureSchema(db)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	inventoryRepo := inventory.NewPostgresRepository(db)
	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, inventoryRepo, cfg.ShippingFee, logger)
	orderHandler := order.NewHandler(orderService)

	momoGateway := payment.NewMoMoGateway(cfg.MoMo)
	vnpayGateway := payment.NewVNPayGateway(cfg.VNPay)
	reconciler := payment.NewReconciler(orderRepo, logger)
	paymentHandler := payment.NewHandler(momoGateway, vnpayGateway, orderService, reconciler, cfg.FrontendURL, logger)

	// Callback routes stay public: providers authenticate through payload
	// signatures, not through our JWT.
	paymentHandler.RegisterPublicRoutes(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))

	orderHandler.RegisterProtectedRoutes(app)
	paymentHandler.RegisterProtectedRoutes(app)

	logger.Info("starting server", zap.String("addr", cfg.Addr))
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func mustOpenDB(dbURL string) *sql.DB {
	if dbURL == "" {
		panic("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		panic(err)
	}

	if err := db.Ping(); err != nil {
		panic(err)
	}

	return db
}

func ensureSchema(db *sql.DB) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS product_variants (
        "variantID" SERIAL PRIMARY KEY,
        "productID" INT NOT NULL,
        "productName" TEXT NOT NULL,
        "productImg" TEXT NOT NULL DEFAULT '',
        price BIGINT NOT NULL,
        "discountPercent" INT NOT NULL DEFAULT 0,
        "isOnSale" BOOLEAN NOT NULL DEFAULT FALSE,
        stock INT NOT NULL DEFAULT 0
    )`); err != nil {
		panic(err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS orders (
        "orderID" TEXT PRIMARY KEY,
        "orderNumber" TEXT NOT NULL UNIQUE,
        "buyerID" INT NOT NULL,
        recipient TEXT NOT NULL DEFAULT '',
        phone TEXT NOT NULL DEFAULT '',
        "addressLine" TEXT NOT NULL DEFAULT '',
        city TEXT NOT NULL DEFAULT '',
        "paymentMethod" TEXT NOT NULL,
        "paymentStatus" TEXT NOT NULL DEFAULT 'pending',
        "orderStatus" TEXT NOT NULL DEFAULT 'pending',
        subtotal BIGINT NOT NULL DEFAULT 0,
        "shippingFee" BIGINT NOT NULL DEFAULT 0,
        discount BIGINT NOT NULL DEFAULT 0,
        total BIGINT NOT NULL DEFAULT 0,
        note TEXT NOT NULL DEFAULT '',
        "createdAt" TEXT,
        "updatedAt" TEXT
    )`); err != nil {
		panic(err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS order_items (
        "itemID" SERIAL PRIMARY KEY,
        "orderID" TEXT NOT NULL,
        "productID" INT NOT NULL,
        "variantID" INT NOT NULL,
        "productName" TEXT NOT NULL,
        "productImg" TEXT NOT NULL DEFAULT '',
        "unitPrice" BIGINT NOT NULL,
        quantity INT NOT NULL,
        subtotal BIGINT NOT NULL,
        status TEXT NOT NULL DEFAULT 'active'
    )`); err != nil {
		panic(err)
	}
}
