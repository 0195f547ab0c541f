package models_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/models/reports"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

func TestLedgerIngestionAndReports(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "ledger_test")
	t.Setenv("REQUIRE_AUTH", "")
	t.Setenv("PHONE_REGION", "")
	t.Setenv("ENABLE_REPORT_CACHE", "true")
	t.Setenv("STORAGE_PROVIDER", utils.StorageProviderLocal)
	t.Setenv("LOCAL_UPLOAD_DIR", t.TempDir())

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	// Ordered: the first case needs an empty users table.
	t.Run("no user to attribute to", func(t *testing.T) {
		_, err := models.CreateTransaction(ctx, &models.NewTransaction{
			Type:      "buying",
			Date:      "2026-03-01",
			PartyName: "Nobody",
		}, models.TransactionImages{})
		if !utils.IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !strings.Contains(err.Error(), "No user found") {
			t.Fatalf("unexpected message: %v", err)
		}
	})

	first, err := models.CreateUser(ctx, &models.NewUser{Email: "owner@test.local", Name: "Owner"}, "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if first.Role != models.UserRoleUser {
		t.Fatalf("expected role user, got %s", first.Role)
	}

	rajesh, err := models.CreateParty(ctx, &models.NewParty{Name: "Rajesh Traders", Phone: "9876543210"}, "")
	if err != nil {
		t.Fatalf("CreateParty: %v", err)
	}

	countParties := func(t *testing.T) int64 {
		t.Helper()
		var n int64
		if err := config.GetDB().Model(&models.Party{}).Count(&n).Error; err != nil {
			t.Fatalf("count parties: %v", err)
		}
		return n
	}

	t.Run("existing party matched by name", func(t *testing.T) {
		before := countParties(t)
		view, err := models.CreateTransaction(ctx, &models.NewTransaction{
			Type:         "buying",
			Date:         "2026-03-02",
			PartyName:    "Rajesh Traders",
			TotalWeight:  "120.5",
			TotalPayment: "45000",
			BuyItems: []models.NewBuyItem{
				{HnyColor: "70", BlackColor: "50.5"},
			},
		}, models.TransactionImages{})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
		if view.PartyId != rajesh.ID {
			t.Fatalf("expected party %s, got %s", rajesh.ID, view.PartyId)
		}
		if after := countParties(t); after != before {
			t.Fatalf("expected %d parties, got %d", before, after)
		}
		if !view.HnyWeight.Equal(decimal.NewFromInt(70)) {
			t.Fatalf("expected hny weight 70, got %s", view.HnyWeight)
		}
	})

	t.Run("unknown party is created", func(t *testing.T) {
		before := countParties(t)
		view, err := models.CreateTransaction(ctx, &models.NewTransaction{
			Type:         "selling",
			Date:         "2026-03-03",
			PartyName:    "New Co",
			Phone:        "000",
			TotalPayment: "52000",
		}, models.TransactionImages{})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
		if after := countParties(t); after != before+1 {
			t.Fatalf("expected %d parties, got %d", before+1, after)
		}
		party, err := models.GetParty(ctx, view.PartyId)
		if err != nil {
			t.Fatalf("GetParty: %v", err)
		}
		if party.Name != "New Co" || party.Phone != "000" {
			t.Fatalf("unexpected party %+v", party)
		}
		if party.CreatedBy != first.ID {
			t.Fatalf("expected creator %s, got %s", first.ID, party.CreatedBy)
		}
	})

	t.Run("round trip keeps type and items", func(t *testing.T) {
		created, err := models.CreateTransaction(ctx, &models.NewTransaction{
			TransactionType: "selling",
			Date:            "2026-03-04",
			PartyId:         rajesh.ID,
			TotalWeight:     "10",
			TotalPayment:    "3000",
			SellItems: []models.NewSellItem{
				{ItemCode: "A1", Payment: "1000", ShoesHny: "2"},
				{ItemCode: "A2", Payment: "2000", SheetBlack: "3"},
			},
			BuyItems: []models.NewBuyItem{{HnyColor: "99"}},
		}, models.TransactionImages{})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
		got, err := models.GetTransaction(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetTransaction: %v", err)
		}
		if got.TransactionType != "selling" || got.Type != models.TransactionTypeSell {
			t.Fatalf("unexpected type %q/%q", got.TransactionType, got.Type)
		}
		if len(got.SellItems) != 2 || got.SellItems[0].ItemCode != "A1" || got.SellItems[1].ItemCode != "A2" {
			t.Fatalf("unexpected sell items %+v", got.SellItems)
		}
		if len(got.BuyItems) != 0 {
			t.Fatalf("expected no buy items, got %d", len(got.BuyItems))
		}
	})

	t.Run("empty item list reads back empty", func(t *testing.T) {
		created, err := models.CreateTransaction(ctx, &models.NewTransaction{
			Type:    "buying",
			Date:    "2026-03-05",
			PartyId: rajesh.ID,
		}, models.TransactionImages{})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
		got, err := models.GetTransaction(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetTransaction: %v", err)
		}
		if got.BuyItems == nil || len(got.BuyItems) != 0 {
			t.Fatalf("expected empty buy items, got %#v", got.BuyItems)
		}
		if !got.TotalWeight.IsZero() || !got.TotalPayment.IsZero() {
			t.Fatalf("expected zero totals, got %s/%s", got.TotalWeight, got.TotalPayment)
		}
	})

	t.Run("summary reflects writes", func(t *testing.T) {
		all := &models.TransactionFilter{}
		s, err := reports.GetSummary(ctx, all)
		if err != nil {
			t.Fatalf("GetSummary: %v", err)
		}
		if s.Buying.Count != 2 || s.Selling.Count != 2 {
			t.Fatalf("unexpected counts %d/%d", s.Buying.Count, s.Selling.Count)
		}

		if _, err := models.CreateTransaction(ctx, &models.NewTransaction{
			Type:         "selling",
			Date:         "2026-03-06",
			PartyId:      rajesh.ID,
			TotalPayment: "100",
		}, models.TransactionImages{}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
		s, err = reports.GetSummary(ctx, all)
		if err != nil {
			t.Fatalf("GetSummary: %v", err)
		}
		if s.Selling.Count != 3 {
			t.Fatalf("expected cached summary to be invalidated, selling count %d", s.Selling.Count)
		}
	})

	t.Run("party with transactions cannot be deleted", func(t *testing.T) {
		err := models.DeleteParty(ctx, rajesh.ID)
		if !utils.IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("party matched by phone alone", func(t *testing.T) {
		before := countParties(t)
		view, err := models.CreateTransaction(ctx, &models.NewTransaction{
			Type:  "buying",
			Date:  "2026-04-01",
			Phone: "9876543210",
		}, models.TransactionImages{})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
		if view.PartyId != rajesh.ID {
			t.Fatalf("expected party %s, got %s", rajesh.ID, view.PartyId)
		}
		if after := countParties(t); after != before {
			t.Fatalf("expected %d parties, got %d", before, after)
		}
	})

	t.Run("renamed party no longer claims its old name", func(t *testing.T) {
		first, err := models.CreateTransaction(ctx, &models.NewTransaction{
			Type:      "buying",
			Date:      "2026-04-02",
			PartyName: "Acme",
			Phone:     "111",
		}, models.TransactionImages{})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
		newName, newPhone := "Acme Corp", "222"
		if _, err := models.UpdateParty(ctx, first.PartyId, &models.PartyPatch{Name: &newName, Phone: &newPhone}, ""); err != nil {
			t.Fatalf("UpdateParty: %v", err)
		}

		second, err := models.CreateTransaction(ctx, &models.NewTransaction{
			Type:      "buying",
			Date:      "2026-04-03",
			PartyName: "Acme",
			Phone:     "111",
		}, models.TransactionImages{})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
		if second.PartyId == first.PartyId {
			t.Fatalf("expected a new party, got the renamed one %s", first.PartyId)
		}
		if second.PartyName != "Acme" {
			t.Fatalf("expected party Acme, got %s", second.PartyName)
		}
	})

	t.Run("stale resolution key is released", func(t *testing.T) {
		stale, err := models.CreateParty(ctx, &models.NewParty{Name: "Old Name", Phone: "333"}, "")
		if err != nil {
			t.Fatalf("CreateParty: %v", err)
		}
		err = config.GetDB().Model(&models.Party{}).Where("id = ?", stale.ID).
			Update("resolution_key", "Zeta|444").Error
		if err != nil {
			t.Fatalf("set resolution key: %v", err)
		}

		view, err := models.CreateTransaction(ctx, &models.NewTransaction{
			Type:      "selling",
			Date:      "2026-04-04",
			PartyName: "Zeta",
			Phone:     "444",
		}, models.TransactionImages{})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
		if view.PartyId == stale.ID || view.PartyName != "Zeta" {
			t.Fatalf("expected a new Zeta party, got %s (%s)", view.PartyName, view.PartyId)
		}
	})

	t.Run("update merges only provided fields", func(t *testing.T) {
		created, err := models.CreateTransaction(ctx, &models.NewTransaction{
			Type:         "buying",
			Date:         "2026-04-05",
			PartyId:      rajesh.ID,
			TotalWeight:  "40",
			TotalPayment: "8000",
			Notes:        "first load",
		}, models.TransactionImages{Invoice: pngFileHeader(t, "invoice.png")})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
		if created.InvoiceImage == nil || *created.InvoiceImage == "" {
			t.Fatalf("expected an invoice image")
		}
		invoice := *created.InvoiceImage

		notes := "second look"
		got, err := models.UpdateTransaction(ctx, created.ID, &models.TransactionPatch{Notes: &notes}, models.TransactionImages{})
		if err != nil {
			t.Fatalf("UpdateTransaction: %v", err)
		}
		if got.Notes != notes {
			t.Fatalf("expected notes %q, got %q", notes, got.Notes)
		}
		if !got.TotalWeight.Equal(decimal.NewFromInt(40)) || !got.TotalPayment.Equal(decimal.NewFromInt(8000)) {
			t.Fatalf("expected totals untouched, got %s/%s", got.TotalWeight, got.TotalPayment)
		}
		if !got.Date.Equal(created.Date) || got.PartyId != rajesh.ID {
			t.Fatalf("expected date and party untouched, got %s/%s", got.Date, got.PartyId)
		}
		if got.InvoiceImage == nil || *got.InvoiceImage != invoice {
			t.Fatalf("expected invoice image kept without an upload, got %v", got.InvoiceImage)
		}

		got, err = models.UpdateTransaction(ctx, created.ID, &models.TransactionPatch{},
			models.TransactionImages{Invoice: pngFileHeader(t, "invoice2.png")})
		if err != nil {
			t.Fatalf("UpdateTransaction: %v", err)
		}
		if got.InvoiceImage == nil || *got.InvoiceImage == invoice {
			t.Fatalf("expected invoice image replaced by the upload, got %v", got.InvoiceImage)
		}
		if got.Notes != notes {
			t.Fatalf("expected notes kept, got %q", got.Notes)
		}
	})

	t.Run("list is newest first with inclusive dates", func(t *testing.T) {
		filter, err := models.ParseTransactionFilter(models.TransactionQuery{
			StartDate: "2026-03-02",
			EndDate:   "2026-03-04",
		}, time.Now().UTC())
		if err != nil {
			t.Fatalf("ParseTransactionFilter: %v", err)
		}
		views, err := models.ListTransactionViews(ctx, filter)
		if err != nil {
			t.Fatalf("ListTransactionViews: %v", err)
		}
		var dates []string
		for _, v := range views {
			dates = append(dates, v.Date.UTC().Format("2006-01-02"))
		}
		if strings.Join(dates, ",") != "2026-03-04,2026-03-03,2026-03-02" {
			t.Fatalf("unexpected dates %v", dates)
		}

		all, err := models.ListTransactionViews(ctx, &models.TransactionFilter{})
		if err != nil {
			t.Fatalf("ListTransactionViews: %v", err)
		}
		for i := 1; i < len(all); i++ {
			if all[i].CreatedDate.After(all[i-1].CreatedDate) {
				t.Fatalf("expected newest first, %s before %s", all[i-1].CreatedDate, all[i].CreatedDate)
			}
		}
	})

	t.Run("report snapshot ignores later edits", func(t *testing.T) {
		report, err := models.GenerateReport(ctx, &models.NewReport{
			Name:      "March",
			StartDate: "2026-03-01",
			EndDate:   "2026-03-31",
		})
		if err != nil {
			t.Fatalf("GenerateReport: %v", err)
		}
		before, err := report.Transactions()
		if err != nil || len(before) == 0 {
			t.Fatalf("expected snapshot rows, got %d (%v)", len(before), err)
		}

		payment := utils.FlexString("999999")
		if _, err := models.UpdateTransaction(ctx, before[0].ID, &models.TransactionPatch{TotalPayment: &payment}, models.TransactionImages{}); err != nil {
			t.Fatalf("UpdateTransaction: %v", err)
		}

		stored, err := models.GetReport(ctx, report.ID)
		if err != nil {
			t.Fatalf("GetReport: %v", err)
		}
		after, err := stored.Transactions()
		if err != nil {
			t.Fatalf("Transactions: %v", err)
		}
		if len(after) != len(before) {
			t.Fatalf("expected %d rows, got %d", len(before), len(after))
		}
		for i := range before {
			if after[i].ID != before[i].ID || !after[i].TotalPayment.Equal(before[i].TotalPayment) {
				t.Fatalf("row %d changed: %+v -> %+v", i, before[i], after[i])
			}
		}
	})

	t.Run("repeated reads agree", func(t *testing.T) {
		all := &models.TransactionFilter{}
		a, err := models.ListTransactionViews(ctx, all)
		if err != nil {
			t.Fatalf("ListTransactionViews: %v", err)
		}
		b, err := models.ListTransactionViews(ctx, all)
		if err != nil {
			t.Fatalf("ListTransactionViews: %v", err)
		}
		if len(a) != len(b) {
			t.Fatalf("expected %d rows, got %d", len(a), len(b))
		}
		for i := range a {
			if a[i].ID != b[i].ID {
				t.Fatalf("row %d differs: %s vs %s", i, a[i].ID, b[i].ID)
			}
		}

		s1, err := reports.GetSummary(ctx, all)
		if err != nil {
			t.Fatalf("GetSummary: %v", err)
		}
		s2, err := reports.GetSummary(ctx, all)
		if err != nil {
			t.Fatalf("GetSummary: %v", err)
		}
		for _, pair := range [][2]reports.TypeSummary{{s1.Buying, s2.Buying}, {s1.Selling, s2.Selling}} {
			x, y := pair[0], pair[1]
			if x.Count != y.Count || !x.SumWeight.Equal(y.SumWeight) || !x.SumPayment.Equal(y.SumPayment) {
				t.Fatalf("summaries differ: %+v vs %+v", x, y)
			}
		}
	})
}

// pngFileHeader builds an uploaded file the way a multipart request would.
func pngFileHeader(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(raw.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("ledger-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("ledger-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=ledger_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
