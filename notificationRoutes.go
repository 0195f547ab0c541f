package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/models"
)

func listNotificationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := models.ListNotifications(c.Request.Context(), c.DefaultQuery("filter", models.NotificationFilterAll))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func unreadNotificationCountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := models.UnreadNotificationCount(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

func markNotificationReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := models.MarkNotificationRead(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, n)
	}
}

func markAllNotificationsReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		updated, err := models.MarkAllNotificationsRead(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
	}
}
