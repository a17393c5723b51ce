package main

import (
	"fmt"
	"log"
	"os"
	"restropos-backend/config"
	"restropos-backend/models"
	"restropos-backend/routes"
	"restropos-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()
	config.ConnectCache()

	// Shared-schema tables; tenant tables are migrated per schema at
	// provisioning time.
	config.DB.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.StripePaymentIndex{},
	)
}

func main() {

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	summaries := services.NewSummaryService(config.DB)
	summaries.StartScheduler()

	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
