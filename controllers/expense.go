// controllers/expense.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"restropos-backend/models"
	"restropos-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateExpenseInput defines the expected JSON structure for creating an expense
type CreateExpenseInput struct {
	Description string     `json:"description" binding:"required"`
	Category    string     `json:"category"`
	Amount      float64    `json:"amount" binding:"required,min=0"`
	ExpenseDate *time.Time `json:"expenseDate"`
	Notes       string     `json:"notes"`
}

// UpdateExpenseInput defines the expected JSON structure for updating an expense
type UpdateExpenseInput struct {
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	Amount      *float64   `json:"amount"`
	ExpenseDate *time.Time `json:"expenseDate"`
	Notes       *string    `json:"notes"`
}

func CreateExpense(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	var input CreateExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	expenseDate := time.Now()
	if input.ExpenseDate != nil {
		expenseDate = *input.ExpenseDate
	}

	category := input.Category
	if category == "" {
		category = "General"
	}

	expense := models.Expense{
		Description: input.Description,
		Category:    category,
		Amount:      input.Amount,
		ExpenseDate: expenseDate,
		Notes:       input.Notes,
	}

	if err := tdb.Create(&expense).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create expense")
		return
	}

	c.JSON(http.StatusCreated, expense)
}

func GetExpenses(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	query := tdb.Order("expense_date DESC")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("expense_date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("expense_date <= ?", to)
	}

	var expenses []models.Expense
	if err := query.Find(&expenses).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve expenses")
		return
	}

	c.JSON(http.StatusOK, expenses)
}

func UpdateExpense(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	expenseUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid expense ID format")
		return
	}

	var input UpdateExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var expense models.Expense
	if err := tdb.First(&expense, "id = ?", expenseUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Expense not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Description != nil {
		expense.Description = *input.Description
	}
	if input.Category != nil {
		expense.Category = *input.Category
	}
	if input.Amount != nil {
		expense.Amount = *input.Amount
	}
	if input.ExpenseDate != nil {
		expense.ExpenseDate = *input.ExpenseDate
	}
	if input.Notes != nil {
		expense.Notes = *input.Notes
	}

	if err := tdb.Save(&expense).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update expense")
		return
	}

	c.JSON(http.StatusOK, expense)
}

func DeleteExpense(c *gin.Context) {
	tdb, _, ok := tenantDB(c)
	if !ok {
		return
	}

	expenseUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid expense ID format")
		return
	}

	if err := tdb.Delete(&models.Expense{}, "id = ?", expenseUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete expense")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}
