package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/middlewares"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
)

// withCreatorEmails fills created_by_email from the per-request user loader.
func withCreatorEmails(ctx context.Context, views ...*models.TransactionView) error {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.CreatedBy)
	}
	emails, err := middlewares.UserEmails(ctx, ids)
	if err != nil {
		return err
	}
	for _, v := range views {
		v.CreatedByEmail = emails[v.CreatedBy]
	}
	return nil
}

func parseTransactionFilter(c *gin.Context) (*models.TransactionFilter, error) {
	var q models.TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}
	return models.ParseTransactionFilter(q, time.Now().UTC())
}

func listTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := parseTransactionFilter(c)
		if err != nil {
			respondError(c, err)
			return
		}
		ctx := c.Request.Context()
		views, err := models.ListTransactionViews(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := withCreatorEmails(ctx, views...); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

func getTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		view, err := models.GetTransaction(ctx, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if err := withCreatorEmails(ctx, view); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func bindTransactionImages(c *gin.Context) (models.TransactionImages, error) {
	var images models.TransactionImages
	if !isMultipart(c) {
		return images, nil
	}
	var err error
	if images.Invoice, err = formFile(c, "invoiceImage"); err != nil {
		return images, err
	}
	if images.Receipt, err = formFile(c, "receiptImage"); err != nil {
		return images, err
	}
	return images, nil
}

func bindNewTransaction(c *gin.Context) (*models.NewTransaction, error) {
	var input models.NewTransaction
	if !isMultipart(c) {
		if err := c.ShouldBindJSON(&input); err != nil {
			return nil, utils.NewValidationError(err.Error())
		}
		return &input, nil
	}
	if err := c.ShouldBind(&input); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}
	if err := bindFormList(c, "buy_items", &input.BuyItems); err != nil {
		return nil, err
	}
	if err := bindFormList(c, "sell_items", &input.SellItems); err != nil {
		return nil, err
	}
	return &input, nil
}

func createTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		input, err := bindNewTransaction(c)
		if err != nil {
			respondError(c, err)
			return
		}
		images, err := bindTransactionImages(c)
		if err != nil {
			respondError(c, err)
			return
		}
		view, err := models.CreateTransaction(c.Request.Context(), input, images)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func flexPtr(s *string) *utils.FlexString {
	if s == nil {
		return nil
	}
	f := utils.FlexString(*s)
	return &f
}

func bindTransactionPatch(c *gin.Context) (*models.TransactionPatch, error) {
	var input models.TransactionPatch
	if !isMultipart(c) {
		if err := c.ShouldBindJSON(&input); err != nil {
			return nil, utils.NewValidationError(err.Error())
		}
		return &input, nil
	}
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}
	input.Date = optionalFormString(c, "date")
	input.PartyId = optionalFormString(c, "party_id")
	input.Phone = flexPtr(optionalFormString(c, "phone"))
	input.TotalWeight = flexPtr(optionalFormString(c, "total_weight"))
	input.TotalPayment = flexPtr(optionalFormString(c, "total_payment"))
	input.Notes = optionalFormString(c, "notes")
	return &input, nil
}

func updateTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		input, err := bindTransactionPatch(c)
		if err != nil {
			respondError(c, err)
			return
		}
		images, err := bindTransactionImages(c)
		if err != nil {
			respondError(c, err)
			return
		}
		view, err := models.UpdateTransaction(c.Request.Context(), c.Param("id"), input, images)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func deleteTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := models.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
