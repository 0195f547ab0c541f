package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/sirupsen/logrus"
)

// uploadObjectHandler streams a stored image, for private buckets and the
// local disk provider.
func uploadObjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		objectKey := strings.TrimSpace(c.Query("key"))
		if !utils.ValidObjectKey(objectKey) {
			respondError(c, utils.NewValidationError("invalid key"))
			return
		}

		obj, err := utils.OpenObject(c.Request.Context(), objectKey)
		if err != nil {
			if errors.Is(err, utils.ErrObjectNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
				return
			}
			logUploadError(config.GetLogger(), err, utils.GetStorageProvider(), objectKey)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
			return
		}
		defer obj.Body.Close()

		if obj.ContentType != "" {
			c.Writer.Header().Set("Content-Type", obj.ContentType)
		}
		if obj.Size > 0 {
			c.Writer.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
		}
		c.Writer.Header().Set("Cache-Control", "private, max-age=3600")
		c.Status(http.StatusOK)
		_, _ = io.Copy(c.Writer, obj.Body)
	}
}

func logUploadError(logger *logrus.Logger, err error, provider string, objectKey string) {
	logger.WithFields(logrus.Fields{
		"field":     "uploads",
		"provider":  provider,
		"objectKey": objectKey,
	}).Error(err.Error())
}
