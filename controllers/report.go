// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"restropos-backend/models"
	"restropos-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReportController handles all reporting functions
type ReportController struct{}

// AnalyticsSummary represents the analytics data
type AnalyticsSummary struct {
	CurrentMonthRevenue   float64           `json:"currentMonthRevenue"`
	MonthGrowth           float64           `json:"monthGrowth"`
	CurrentQuarterRevenue float64           `json:"currentQuarterRevenue"`
	QuarterGrowth         float64           `json:"quarterGrowth"`
	CurrentYearRevenue    float64           `json:"currentYearRevenue"`
	YearGrowth            float64           `json:"yearGrowth"`
	MonthExpenses         float64           `json:"monthExpenses"`
	TopProducts           []ProductSummary  `json:"topProducts"`
	TopCustomers          []CustomerSummary `json:"topCustomers"`
	QuickStats            QuickStatistics   `json:"quickStats"`
}

type ProductSummary struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type CustomerSummary struct {
	Name   string  `json:"name"`
	Visits int     `json:"visits"`
	Spent  float64 `json:"spent"`
}

type QuickStatistics struct {
	TotalCustomers int     `json:"totalCustomers"`
	TotalSales     int     `json:"totalSales"`
	AvgSaleValue   float64 `json:"avgSaleValue"`
	OpenTabs       int     `json:"openTabs"`
}

// GetReportAnalytics returns the complete analytics summary
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	// Get current time
	now := time.Now()
	currentYear, currentMonth, _ := now.Date()
	currentLocation := now.Location()

	// Calculate date ranges
	firstOfMonth := time.Date(currentYear, currentMonth, 1, 0, 0, 0, 0, currentLocation)
	lastOfMonth := firstOfMonth.AddDate(0, 1, -1)

	currentMonthRevenue, err := rc.getRevenue(tdb, firstOfMonth, lastOfMonth)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get monthly revenue")
		return
	}

	lastMonthRevenue, err := rc.getRevenue(tdb,
		firstOfMonth.AddDate(0, -1, 0),
		lastOfMonth.AddDate(0, -1, 0))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get last month revenue")
		return
	}

	currentQuarterRevenue, err := rc.getRevenue(tdb,
		rc.getQuarterStart(now),
		rc.getQuarterEnd(now))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get quarterly revenue")
		return
	}

	lastQuarterRevenue, err := rc.getRevenue(tdb,
		rc.getQuarterStart(now).AddDate(0, -3, 0),
		rc.getQuarterEnd(now).AddDate(0, -3, 0))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get last quarter revenue")
		return
	}

	currentYearRevenue, err := rc.getRevenue(tdb,
		time.Date(currentYear, 1, 1, 0, 0, 0, 0, currentLocation),
		time.Date(currentYear, 12, 31, 23, 59, 59, 0, currentLocation))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get yearly revenue")
		return
	}

	lastYearRevenue, err := rc.getRevenue(tdb,
		time.Date(currentYear-1, 1, 1, 0, 0, 0, 0, currentLocation),
		time.Date(currentYear-1, 12, 31, 23, 59, 59, 0, currentLocation))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get last year revenue")
		return
	}

	monthGrowth := rc.calculateGrowthPercentage(currentMonthRevenue, lastMonthRevenue)
	quarterGrowth := rc.calculateGrowthPercentage(currentQuarterRevenue, lastQuarterRevenue)
	yearGrowth := rc.calculateGrowthPercentage(currentYearRevenue, lastYearRevenue)

	var monthExpenses float64
	if err := tdb.Model(&models.Expense{}).
		Where("expense_date BETWEEN ? AND ?", firstOfMonth, lastOfMonth).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&monthExpenses).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get monthly expenses")
		return
	}

	topProducts, err := rc.getTopProducts(tdb, firstOfMonth, lastOfMonth, 4)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get top products")
		return
	}

	topCustomers, err := rc.getTopCustomers(tdb, 4)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get top customers")
		return
	}

	quickStats, err := rc.getQuickStatistics(tdb)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get quick statistics")
		return
	}

	summary := AnalyticsSummary{
		CurrentMonthRevenue:   currentMonthRevenue,
		MonthGrowth:           monthGrowth,
		CurrentQuarterRevenue: currentQuarterRevenue,
		QuarterGrowth:         quarterGrowth,
		CurrentYearRevenue:    currentYearRevenue,
		YearGrowth:            yearGrowth,
		MonthExpenses:         monthExpenses,
		TopProducts:           topProducts,
		TopCustomers:          topCustomers,
		QuickStats:            quickStats,
	}

	c.JSON(http.StatusOK, summary)
}

// Helper functions for reports

func (rc *ReportController) getRevenue(tdb *gorm.DB, start, end time.Time) (float64, error) {
	var total float64
	err := tdb.Model(&models.Sale{}).
		Where("closed_at BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total).Error
	return total, err
}

func (rc *ReportController) getQuarterStart(date time.Time) time.Time {
	quarter := (int(date.Month())-1)/3 + 1
	startMonth := time.Month((quarter-1)*3 + 1)
	return time.Date(date.Year(), startMonth, 1, 0, 0, 0, 0, date.Location())
}

func (rc *ReportController) getQuarterEnd(date time.Time) time.Time {
	return rc.getQuarterStart(date).AddDate(0, 3, -1)
}

func (rc *ReportController) calculateGrowthPercentage(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return ((current - previous) / previous) * 100
}

func (rc *ReportController) getTopProducts(tdb *gorm.DB, start, end time.Time, limit int) ([]ProductSummary, error) {
	var products []ProductSummary

	err := tdb.Table("order_items").
		Select("order_items.product_name as name, SUM(order_items.quantity) as count, SUM(order_items.total_price) as revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN tabs ON tabs.id = orders.tab_id").
		Where("tabs.status = ? AND tabs.closed_at BETWEEN ? AND ?", models.TabStatusClosed, start, end).
		Group("order_items.product_name").
		Order("revenue DESC").
		Limit(limit).
		Scan(&products).Error

	return products, err
}

func (rc *ReportController) getTopCustomers(tdb *gorm.DB, limit int) ([]CustomerSummary, error) {
	var customers []CustomerSummary

	err := tdb.Model(&models.Customer{}).
		Select("name, total_visits as visits, total_spent as spent").
		Where("deleted_at IS NULL").
		Order("spent DESC").
		Limit(limit).
		Scan(&customers).Error

	return customers, err
}

func (rc *ReportController) getQuickStatistics(tdb *gorm.DB) (QuickStatistics, error) {
	var stats QuickStatistics

	var totalCustomers int64
	if err := tdb.Model(&models.Customer{}).
		Where("deleted_at IS NULL").
		Count(&totalCustomers).Error; err != nil {
		return stats, err
	}
	stats.TotalCustomers = int(totalCustomers)

	var totalSales int64
	if err := tdb.Model(&models.Sale{}).Count(&totalSales).Error; err != nil {
		return stats, err
	}
	stats.TotalSales = int(totalSales)

	var totalRevenue float64
	if err := tdb.Model(&models.Sale{}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return stats, err
	}
	if stats.TotalSales > 0 {
		stats.AvgSaleValue = totalRevenue / float64(stats.TotalSales)
	}

	var openTabs int64
	if err := tdb.Model(&models.Tab{}).
		Where("status = ?", models.TabStatusOpen).
		Count(&openTabs).Error; err != nil {
		return stats, err
	}
	stats.OpenTabs = int(openTabs)

	return stats, nil
}
