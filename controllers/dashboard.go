package controllers

import (
	"net/http"
	"time"

	"restropos-backend/models"
	"restropos-backend/utils"

	"github.com/gin-gonic/gin"
)

type DashboardOverview struct {
	OpenTabs      int          `json:"openTabs"`
	TodayRevenue  float64      `json:"todayRevenue"`
	TodaySales    int          `json:"todaySales"`
	TodayExpenses float64      `json:"todayExpenses"`
	RecentSales   []RecentSale `json:"recentSales"`
}

type RecentSale struct {
	SaleNumber    string  `json:"saleNumber"`
	Total         float64 `json:"total"`
	PaymentMethod string  `json:"paymentMethod"`
	ClosedAt      string  `json:"closedAt"`
}

func GetDashboardOverview(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	startOfDay := utils.BeginningOfDay(time.Now())

	var openTabs int64
	tdb.Model(&models.Tab{}).Where("status = ?", models.TabStatusOpen).Count(&openTabs)

	var todayRevenue float64
	tdb.Model(&models.Sale{}).
		Where("closed_at >= ?", startOfDay).
		Select("COALESCE(SUM(total), 0)").Scan(&todayRevenue)

	var todaySales int64
	tdb.Model(&models.Sale{}).Where("closed_at >= ?", startOfDay).Count(&todaySales)

	var todayExpenses float64
	tdb.Model(&models.Expense{}).
		Where("expense_date >= ?", startOfDay).
		Select("COALESCE(SUM(amount), 0)").Scan(&todayExpenses)

	var sales []models.Sale
	tdb.Order("closed_at DESC").Limit(5).Find(&sales)

	recent := make([]RecentSale, 0, len(sales))
	for _, sale := range sales {
		recent = append(recent, RecentSale{
			SaleNumber:    sale.SaleNumber,
			Total:         sale.Total,
			PaymentMethod: sale.PaymentMethod,
			ClosedAt:      sale.ClosedAt.Format(time.RFC3339),
		})
	}

	overview := DashboardOverview{
		OpenTabs:      int(openTabs),
		TodayRevenue:  todayRevenue,
		TodaySales:    int(todaySales),
		TodayExpenses: todayExpenses,
		RecentSales:   recent,
	}

	c.JSON(http.StatusOK, overview)
}
