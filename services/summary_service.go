// services/summary_service.go
package services

import (
	"fmt"
	"log"
	"os"
	"time"

	"restropos-backend/config"
	"restropos-backend/models"
	"restropos-backend/utils"

	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// SummaryService texts each company owner an end-of-day sales summary.
type SummaryService struct {
	db     *gorm.DB
	client *twilio.RestClient
}

func NewSummaryService(db *gorm.DB) *SummaryService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &SummaryService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
	}
}

func (s *SummaryService) StartScheduler() {
	c := cron.New()

	// Run every day at 9 PM
	c.AddFunc("0 21 * * *", s.SendDailySummaries)

	c.Start()
	log.Println("Daily summary scheduler started")
}

func (s *SummaryService) SendDailySummaries() {
	log.Println("Starting daily summary processing...")

	var companies []models.Company
	if err := s.db.Find(&companies, "is_active = ?", true).Error; err != nil {
		log.Printf("Failed to fetch companies: %v", err)
		return
	}

	for _, company := range companies {
		s.ProcessCompanySummary(company)
	}

	log.Println("Daily summary processing completed")
}

func (s *SummaryService) ProcessCompanySummary(company models.Company) {
	tdb, err := config.TenantDB(company.SchemaName)
	if err != nil {
		log.Printf("Failed to resolve tenant %s: %v", company.SchemaName, err)
		return
	}

	start := utils.BeginningOfDay(time.Now())
	end := utils.EndOfDay(time.Now())

	var saleCount int64
	var revenue float64
	if err := tdb.Model(&models.Sale{}).
		Where("closed_at BETWEEN ? AND ?", start, end).
		Count(&saleCount).Error; err != nil {
		log.Printf("Failed to count sales for %s: %v", company.SchemaName, err)
		return
	}
	if err := tdb.Model(&models.Sale{}).
		Where("closed_at BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(total), 0)").
		Scan(&revenue).Error; err != nil {
		log.Printf("Failed to sum revenue for %s: %v", company.SchemaName, err)
		return
	}

	var owner models.User
	if err := s.db.Where("company_id = ? AND role = ?", company.ID, "admin").
		First(&owner).Error; err != nil || owner.Phone == "" {
		log.Printf("No reachable owner for %s, skipping summary", company.SchemaName)
		return
	}

	message := fmt.Sprintf("%s daily summary: %d sales, %.2f total revenue.",
		company.Name, saleCount, revenue)
	s.sendSMS(owner.Phone, message)
}

func (s *SummaryService) sendSMS(to, body string) {
	from := os.Getenv("TWILIO_FROM_NUMBER")
	if from == "" {
		log.Println("TWILIO_FROM_NUMBER not set, skipping SMS")
		return
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		log.Printf("Failed to send summary SMS to %s: %v", to, err)
	}
}
