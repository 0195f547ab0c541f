package reports

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/sirupsen/logrus"
)

/*
caches:
	Report:$name:$version:$filter
*/

func reportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_REPORT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportSlowMs() int64 {
	// Env: REPORT_SLOW_MS (default 500ms)
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time, rows int) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"report":         name,
		"ms":             d.Milliseconds(),
		"rows":           rows,
		"correlation_id": cid,
	}).Warn("slow report")
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// cacheKey is empty when caching is off. The ledger version makes every
// committed mutation invalidate earlier entries.
func cacheKey(ctx context.Context, name string, filter *models.TransactionFilter) string {
	if !reportCacheEnabled() || config.GetRedisDB() == nil {
		return ""
	}
	parts := []string{"-", "-", "-", "-"}
	if filter != nil {
		if filter.Type != nil {
			parts[0] = string(*filter.Type)
		}
		if filter.PartyId != "" {
			parts[1] = filter.PartyId
		}
		parts[2] = formatBound(filter.StartDate)
		parts[3] = formatBound(filter.EndDate)
	}
	return fmt.Sprintf("Report:%s:%s:%s", name, models.ReportCacheVersion(ctx), strings.Join(parts, "|"))
}

func cacheLoad[T any](key string, dest *T) bool {
	if key == "" {
		return false
	}
	ok, err := config.GetRedisObject(key, dest)
	if err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "cacheLoad", "GetRedisObject", key, err)
		return false
	}
	return ok
}

func cacheStore(key string, obj any) {
	if key == "" {
		return
	}
	if err := config.SetRedisObject(key, obj, reportCacheTTL()); err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "cacheStore", "SetRedisObject", key, err)
	}
}
