package acceptance

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/packsight/packsight/internal/models"
	"github.com/packsight/packsight/internal/notify"
	"github.com/packsight/packsight/internal/pipeline"
	"github.com/packsight/packsight/internal/sink"
	"github.com/packsight/packsight/internal/source"
)

const ordersKC = `[
  {"transaction_id":"T1","index":0,"products":[{"title":"board game","length":30,"width":20,"height":10,"weight":500,"quantity":1,"length_unit":"cm","weight_unit":"g"}]},
  {"transaction_id":"T2","index":1,"products":[{"title":"dice","length":50,"width":50,"height":50,"weight":1000,"quantity":2,"length_unit":"mm","weight_unit":"mg"}]},
  {"transaction_id":"T3","index":2,"products":[{"title":"no height","length":30,"width":20,"height":null,"weight":500,"quantity":1,"length_unit":"cm","weight_unit":"g"}]}
]`

const ordersJF = `[
  {"transaction_id":"J1","index":0,"products":[{"title":"mug","length":30,"width":20,"height":10,"weight":500,"quantity":1,"length_unit":"cm","weight_unit":"g"}]}
]`

const sizes = `[
  {"url":"/b1","size_cm":"40x30x20","length":40,"width":30,"height":20,"status":"active","packageId":"B1","inner_length":38,"inner_width":28,"inner_height":18,"empty_weight":120},
  {"url":"/b2","size_cm":"100x100x100","length":100,"width":100,"height":100,"status":"active","packageId":"B2"}
]`

// TestPipelineFlowAgainstFileSources runs the whole pipeline over file-backed
// sources and checks the persisted statistics, the CSV report, and webhook
// delivery end to end.
func TestPipelineFlowAgainstFileSources(t *testing.T) {
	resourceDir := t.TempDir()
	dataDir := filepath.Join(t.TempDir(), "data")

	writeFixture(t, resourceDir, "orders_kc.json", ordersKC)
	writeFixture(t, resourceDir, "orders_jf.json", ordersJF)
	writeFixture(t, resourceDir, "sizes.json", sizes)

	var mu sync.Mutex
	uploads := map[string][]byte{}
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse upload: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		body, err := io.ReadAll(file)
		if err != nil {
			t.Errorf("read file part: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		mu.Lock()
		uploads[header.Filename] = body
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	notifier, err := notify.NewWebhookNotifier(notify.WebhookConfig{URL: webhook.URL})
	if err != nil {
		t.Fatalf("webhook notifier: %v", err)
	}
	out, err := sink.NewFileSink(dataDir)
	if err != nil {
		t.Fatalf("file sink: %v", err)
	}

	coord := pipeline.NewCoordinator(
		source.NewFileOrderSource(resourceDir, ""),
		source.NewFileCatalogSource(resourceDir),
		out,
		notifier,
		log.New(io.Discard, "", 0),
	)

	results, err := coord.Run(context.Background(), []string{"kc", "jf"}, 99999)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 category results, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != models.CategoryStatusSucceeded {
			t.Fatalf("category %s failed: %s", r.Category, r.Error)
		}
	}
	kc := results[0]
	if kc.TotalOrders != 3 || kc.ProcessedOrders != 3 {
		t.Fatalf("unexpected kc order counts: %+v", kc)
	}
	if kc.ContainersUsed != 1 {
		t.Fatalf("expected kc to use exactly one container, got %d", kc.ContainersUsed)
	}

	// kc statistics: T1 and T2 both fit the smaller /b1; the no-height order
	// produces a null fit and stays out of the aggregation.
	var stats []models.UsageStatistic
	readJSON(t, filepath.Join(dataDir, "bin_usage_statistics_kc.json"), &stats)
	if len(stats) != 1 {
		t.Fatalf("expected one kc statistic, got %d", len(stats))
	}
	b1 := stats[0]
	if b1.URL != "/b1" {
		t.Fatalf("expected smallest fitting container /b1, got %s", b1.URL)
	}
	if b1.UsageCount != 2 {
		t.Fatalf("expected usage_count 2, got %d", b1.UsageCount)
	}
	if len(b1.OrdersDetail) != 2 {
		t.Fatalf("expected 2 order details, got %d", len(b1.OrdersDetail))
	}
	if b1.OrdersDetail[0].OrderID == nil || *b1.OrdersDetail[0].OrderID != "T1" {
		t.Fatalf("details not sorted by order index: %+v", b1.OrdersDetail)
	}
	if b1.TotalUniqueOrders != 2 || b1.TotalProductsPacked != 2 {
		t.Fatalf("unexpected totals: %+v", b1)
	}
	if b1.TotalActualProducts == nil || *b1.TotalActualProducts != 2 {
		t.Fatalf("expected total_actual_products 2, got %v", b1.TotalActualProducts)
	}
	if b1.TotalQuantity == nil || *b1.TotalQuantity != 3 {
		t.Fatalf("expected total_quantity 3, got %v", b1.TotalQuantity)
	}

	// jf statistics: single order, smaller candidate wins.
	var jfStats []models.UsageStatistic
	readJSON(t, filepath.Join(dataDir, "bin_usage_statistics_jf.json"), &jfStats)
	if len(jfStats) != 1 || jfStats[0].URL != "/b1" || jfStats[0].UsageCount != 1 {
		t.Fatalf("unexpected jf statistics: %+v", jfStats)
	}

	// kc report joins the catalog record for /b1.
	csvRaw, err := os.ReadFile(filepath.Join(dataDir, "bin_usage_statistics_kc.csv"))
	if err != nil {
		t.Fatalf("read kc report: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(csvRaw), "\r\n"), "\r\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	wantHeader := "PackageId,URL,Title,Type,OuterLength [cm],OuterWidth [cm],OuterHeight [cm],InnerLength [cm],InnerWidth [cm],InnerHeight [cm],MaxWeight [g],EmptyWeight [g],Cost,Status,Order count"
	if lines[0] != wantHeader {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	wantRow := "B1,/b1,40x30x20,bin,40,30,20,38,28,18,,120,,active,2"
	if lines[1] != wantRow {
		t.Fatalf("unexpected row: %s", lines[1])
	}

	// every artifact also reached the webhook, bytes intact
	mu.Lock()
	defer mu.Unlock()
	for _, name := range []string{
		"bin_usage_statistics_kc.json", "bin_usage_statistics_kc.csv",
		"bin_usage_statistics_jf.json", "bin_usage_statistics_jf.csv",
	} {
		if _, ok := uploads[name]; !ok {
			t.Fatalf("missing webhook upload %s (got %v)", name, uploadNames(uploads))
		}
	}
	if string(uploads["bin_usage_statistics_kc.csv"]) != string(csvRaw) {
		t.Fatalf("webhook csv differs from persisted csv")
	}
}

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func readJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func uploadNames(uploads map[string][]byte) []string {
	names := make([]string, 0, len(uploads))
	for name := range uploads {
		names = append(names, name)
	}
	return names
}
