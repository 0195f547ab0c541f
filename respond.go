package main

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/utils"
)

// respondError maps the error taxonomy to a status. Messages pass through.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case utils.IsValidationError(err):
		status = http.StatusBadRequest
	case errors.Is(err, utils.ErrorRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, utils.ErrorUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, utils.ErrorForbidden):
		status = http.StatusForbidden
	case errors.Is(err, utils.ErrorResourceBusy):
		status = http.StatusConflict
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formFile returns nil when the field was not uploaded.
func formFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, utils.NewValidationError("invalid upload for " + field + ": " + err.Error())
	}
	return fh, nil
}

func formValues(c *gin.Context) map[string][]string {
	if c.Request.MultipartForm != nil && c.Request.MultipartForm.Value != nil {
		return c.Request.MultipartForm.Value
	}
	return c.Request.PostForm
}

var indexedFieldRe = regexp.MustCompile(`^([a-z_]+)\[(\d+)\]\[([a-z_]+)\]$`)

// bindFormList decodes a list posted in a form, either as a JSON string in
// field itself or as indexed keys like field[0][name]. dest must be a
// pointer to a slice of structs with json tags.
func bindFormList(c *gin.Context, field string, dest interface{}) error {
	values := formValues(c)
	if raw := strings.TrimSpace(firstValue(values[field])); raw != "" {
		if err := json.Unmarshal([]byte(raw), dest); err != nil {
			return utils.NewValidationError("invalid " + field + ": " + err.Error())
		}
		return nil
	}

	rows := map[int]map[string]string{}
	for key, v := range values {
		m := indexedFieldRe.FindStringSubmatch(key)
		if m == nil || m[1] != field {
			continue
		}
		i, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if rows[i] == nil {
			rows[i] = map[string]string{}
		}
		rows[i][m[3]] = firstValue(v)
	}
	if len(rows) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(rows))
	for i := range rows {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	list := make([]map[string]string, 0, len(rows))
	for _, i := range indexes {
		list = append(list, rows[i])
	}
	// round trip through json so FlexString and friends decode as usual
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func firstValue(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// optionalFormString distinguishes an absent form field from an empty one.
func optionalFormString(c *gin.Context, field string) *string {
	v, ok := formValues(c)[field]
	if !ok {
		return nil
	}
	s := firstValue(v)
	return &s
}

func optionalFormBool(c *gin.Context, field string) (*bool, error) {
	s := optionalFormString(c, field)
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(*s))
	if err != nil {
		return nil, utils.NewValidationError("invalid " + field + ": " + *s)
	}
	return &b, nil
}

func uploadFormImage(c *gin.Context, field string, folder string) (string, error) {
	fh, err := formFile(c, field)
	if err != nil {
		return "", err
	}
	url, err := utils.UploadImage(c.Request.Context(), folder, fh)
	if err != nil {
		config.LogError(config.GetLogger(), "respond.go", "uploadFormImage", field, folder, err)
		return "", err
	}
	return url, nil
}
