package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hoopthreads/storefront/internal/awsx"
	"github.com/hoopthreads/storefront/internal/catalog"
	"github.com/hoopthreads/storefront/internal/config"
	"github.com/hoopthreads/storefront/internal/fulfillment"
	"github.com/hoopthreads/storefront/internal/handlers"
	"github.com/hoopthreads/storefront/internal/idempotency"
	"github.com/hoopthreads/storefront/internal/orders"
	"github.com/hoopthreads/storefront/internal/payments"
	"github.com/hoopthreads/storefront/internal/pricing"
	"github.com/hoopthreads/storefront/internal/stats"
)

func setupRouter(cfg config.Config, clients *awsx.Clients, log *logrus.Logger) *gin.Engine {
	catalogStore := catalog.NewStore(clients.DynamoDB, cfg.CatalogTable)
	orderStore := orders.NewStore(clients.DynamoDB, cfg.OrdersTable)
	idempStore := idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)

	var verifier payments.Verifier
	if cfg.PayPalClientID != "" {
		verifier = payments.NewPayPalClient(cfg.PayPalAPIBase, cfg.PayPalClientID, cfg.PayPalSecret)
	} else {
		log.Warn("no paypal credentials configured, payment verification disabled")
	}

	policy := pricing.NewPolicy(cfg.Pricing.FreeShippingThreshold, cfg.Pricing.ShippingFlatFee, cfg.Pricing.TaxRate)
	engine := fulfillment.NewEngine(catalogStore, orderStore, verifier, policy, log)

	var publisher *awsx.Publisher
	if cfg.OrdersQueueURL != "" {
		publisher = awsx.NewPublisher(clients.SQS, cfg.OrdersQueueURL)
	}

	budget := stats.NewBudget(cfg.StatsCallBudget)
	statsCache := stats.NewCache(clients.DynamoDB, cfg.StatsCacheTable, cfg.StatsCacheTTL)
	statsClient := stats.NewClient(cfg.StatsAPIHost, cfg.StatsAPIKey, budget, statsCache, log)

	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterOrdersRoutes(r, handlers.OrdersConfig{
		Engine:      engine,
		Orders:      orderStore,
		Idempotency: idempStore,
		Publisher:   publisher,
		Log:         log,
	})
	handlers.RegisterProductsRoutes(r, handlers.ProductsConfig{
		Catalog: catalogStore,
		Engine:  engine,
		Log:     log,
	})
	handlers.RegisterStatsRoutes(r, handlers.StatsConfig{
		Client: statsClient,
		Budget: budget,
		Log:    log,
	})

	return r
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	clients, err := awsx.NewClients(context.Background())
	if err != nil {
		log.WithError(err).Fatal("failed to init aws clients")
	}

	r := setupRouter(cfg, clients, log)

	// local HTTP server for development
	if cfg.RunLocal {
		log.WithField("addr", cfg.LocalAddr).Info("running local server")
		if err := r.Run(cfg.LocalAddr); err != nil {
			log.WithError(err).Fatal("failed to run local server")
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
