package routes

import (
	"os"
	"restropos-backend/config"
	"restropos-backend/controllers"
	"restropos-backend/utils"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	origins := []string{"http://localhost:3000"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = append(origins, strings.Split(env, ",")...)
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	// Public payment surface: the SPA bootstrap config and the gateway's
	// webhook deliveries.
	r.GET("/payments/config", controllers.GetPaymentConfig)
	r.POST("/webhooks/stripe", controllers.StripeWebhook)

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Category routes
		categories := api.Group("/categories")
		{
			categories.POST("", controllers.CreateCategory)
			categories.GET("", controllers.GetCategories)
			categories.PUT("/:id", controllers.UpdateCategory)
			categories.DELETE("/:id", controllers.DeleteCategory)
		}

		// Product routes
		products := api.Group("/products")
		{
			products.POST("", controllers.CreateProduct)
			products.GET("", controllers.GetProducts)
			products.GET("/:id", controllers.GetProduct)
			products.PUT("/:id", controllers.UpdateProduct)
			products.DELETE("/:id", controllers.DeleteProduct)
		}

		// Customer routes
		customers := api.Group("/customers")
		{
			customers.POST("", controllers.CreateCustomer)
			customers.GET("", controllers.GetCustomers)
			customers.GET("/:id", controllers.GetCustomer)
			customers.PUT("/:id", controllers.UpdateCustomer)
			customers.DELETE("/:id", controllers.DeleteCustomer)
		}

		// Tab routes
		tabs := api.Group("/tabs")
		{
			tabs.POST("", controllers.OpenTab)
			tabs.GET("", controllers.GetTabs)
			tabs.GET("/:id", controllers.GetTab)
			tabs.POST("/:id/orders", controllers.AddOrder)
			tabs.POST("/:id/close", controllers.CloseTab)
		}

		// Sale routes
		sales := api.Group("/sales")
		{
			sales.GET("", controllers.GetSales)
			sales.GET("/:id", controllers.GetSale)
		}

		// Expense routes
		expenses := api.Group("/expenses")
		{
			expenses.POST("", controllers.CreateExpense)
			expenses.GET("", controllers.GetExpenses)
			expenses.PUT("/:id", controllers.UpdateExpense)
			expenses.DELETE("/:id", controllers.DeleteExpense)
		}

		// Payment operations
		payments := api.Group("/payments")
		{
			payments.POST("/create-intent", controllers.CreatePaymentIntent)
			payments.GET("/:id", controllers.GetPaymentIntent)
			payments.POST("/confirm", controllers.ConfirmPayment)
			payments.POST("/:id/cancel", controllers.CancelPayment)
			payments.POST("/:id/refund", controllers.RefundPayment)
			payments.POST("/complete", controllers.CompletePayment)
		}

		// Payment settings, admin only
		settings := api.Group("/payment-settings", utils.AdminMiddleware())
		{
			settings.GET("", controllers.GetPaymentSettings)
			settings.PUT("", controllers.UpdatePaymentSettings)
			settings.DELETE("", controllers.DeletePaymentSettings)
			settings.POST("/test", controllers.TestPaymentSettings)
		}

		// Company admin
		company := api.Group("/company")
		{
			company.GET("", controllers.GetCompany)
			company.Use(utils.AdminMiddleware())
			company.PUT("/deactivate", controllers.DeactivateCompany)
			company.DELETE("", controllers.DeleteCompany)
		}

		// Reports routes
		reportController := controllers.ReportController{}
		api.GET("/reports", reportController.GetReportAnalytics)

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)
	}

	return r
}
