package main

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/models/reports"
	"github.com/mmdatafocus/ledger_backend/utils"
)

const (
	exportFormatCSV  = "csv"
	exportFormatXLSX = "xlsx"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func reportSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := parseTransactionFilter(c)
		if err != nil {
			respondError(c, err)
			return
		}
		summary, err := reports.GetSummary(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func reportDashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := parseTransactionFilter(c)
		if err != nil {
			respondError(c, err)
			return
		}
		dashboard, err := reports.GetDashboard(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dashboard)
	}
}

func generateReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewReport
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, utils.NewValidationError(err.Error()))
			return
		}
		report, err := models.GenerateReport(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func listReportsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := models.ListReports(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func getReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := models.GetReport(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func exportTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", exportFormatCSV)))
		if format != exportFormatCSV && format != exportFormatXLSX {
			respondError(c, utils.NewValidationError("invalid format: "+format))
			return
		}
		detailed := false
		if v := strings.TrimSpace(c.Query("detailed")); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				respondError(c, utils.NewValidationError("invalid detailed: "+v))
				return
			}
			detailed = b
		}

		filter, err := parseTransactionFilter(c)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.OrderBy = models.OrderByDateDesc

		ctx := c.Request.Context()
		views, err := models.ListTransactionViews(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		if detailed || format == exportFormatXLSX {
			if err := withCreatorEmails(ctx, views...); err != nil {
				respondError(c, err)
				return
			}
		}

		prefix := "transactions"
		if detailed {
			prefix = "transactions_report"
		}
		var buf bytes.Buffer
		contentType := "text/csv; charset=utf-8"
		if format == exportFormatXLSX {
			contentType = xlsxContentType
			err = reports.WriteTransactionsExcel(&buf, views)
		} else {
			err = reports.WriteTransactionsCSV(&buf, views, detailed)
		}
		if err != nil {
			respondError(c, err)
			return
		}

		filename := reports.ExportFilename(prefix, time.Now(), format)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, contentType, buf.Bytes())
	}
}
