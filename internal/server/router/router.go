package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockbook/internal/config"
	"stockbook/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(cfg config.CORSConfig, syncH *handlers.SyncHandler, ledgerH *handlers.LedgerHandler, financeH *handlers.FinanceHandler, backupH *handlers.BackupHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/connect", syncH.Connect)
		api.POST("/disconnect", syncH.Disconnect)
		api.GET("/status", syncH.Status)
		api.GET("/rate-limit", syncH.RateLimit)

		api.POST("/sync/fetch", syncH.Fetch)
		api.POST("/sync/save", syncH.Save)
		api.POST("/sync/force-save", syncH.ForceSave)
		api.POST("/sync/switch-file", syncH.SwitchFile)

		api.GET("/containers", ledgerH.ListContainers)
		api.POST("/containers", ledgerH.CreateContainer)
		api.PUT("/containers/:id", ledgerH.UpdateContainer)
		api.DELETE("/containers/:id", ledgerH.DeleteContainer)

		api.GET("/products", ledgerH.ListProducts)
		api.POST("/products", ledgerH.CreateProduct)
		api.PUT("/products/:id", ledgerH.UpdateProduct)
		api.DELETE("/products/:id", ledgerH.DeleteProduct)

		api.GET("/sales", ledgerH.ListSales)
		api.POST("/sales", ledgerH.CreateSale)
		api.PUT("/sales/:id", ledgerH.UpdateSale)
		api.DELETE("/sales/:id", ledgerH.DeleteSale)

		api.GET("/expenses", ledgerH.ListExpenses)
		api.POST("/expenses", ledgerH.CreateExpense)
		api.PUT("/expenses/:id", ledgerH.UpdateExpense)
		api.DELETE("/expenses/:id", ledgerH.DeleteExpense)

		api.GET("/partners", ledgerH.ListPartners)
		api.POST("/partners", ledgerH.CreatePartner)
		api.PUT("/partners/:id", ledgerH.UpdatePartner)
		api.DELETE("/partners/:id", ledgerH.DeletePartner)

		api.GET("/withdrawals", ledgerH.ListWithdrawals)
		api.POST("/withdrawals", ledgerH.CreateWithdrawal)
		api.PUT("/withdrawals/:id", ledgerH.UpdateWithdrawal)
		api.DELETE("/withdrawals/:id", ledgerH.DeleteWithdrawal)

		api.GET("/cash-injections", ledgerH.ListCashInjections)
		api.POST("/cash-injections", ledgerH.CreateCashInjection)
		api.PUT("/cash-injections/:id", ledgerH.UpdateCashInjection)
		api.DELETE("/cash-injections/:id", ledgerH.DeleteCashInjection)

		api.GET("/summary", ledgerH.Summary)
		api.GET("/reports/low-stock", ledgerH.LowStock)
		api.GET("/reports/top-products", ledgerH.TopProducts)

		api.GET("/cashflows", financeH.ListCashFlows)
		api.POST("/cashflows/rebuild", financeH.Rebuild)
		api.POST("/cashflows/reconcile", financeH.Reconcile)
		api.GET("/integrity", financeH.Integrity)

		api.GET("/backup/export", backupH.Export)
		api.POST("/backup/import", backupH.Import)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
