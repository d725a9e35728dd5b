package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"parceldesk/internal/config"
	"parceldesk/internal/domain/models"
)

func testConfig(baseURL string) config.RemoteConfig {
	return config.RemoteConfig{
		BaseURL:      baseURL,
		AppID:        "app",
		AppKey:       "key",
		PackageClass: "Package",
		ProductClass: "Product",
		Timeout:      2 * time.Second,
		ListLimit:    100,
	}
}

func TestListPackagesTranslatesWireFields(t *testing.T) {
	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[
			{"objectId":"R1","trackingNum":"SF123","itemName":"Socks","recipient":"Ana","sender":"shop","costPrice":5.5,"quantity":2,"status":"shipped","productId":"P1","createdAt":"2026-03-01T12:00:00.000Z"},
			{"objectId":"R2","itemName":"Lamp"}
		]}`)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	pkgs, err := client.ListPackages(context.Background(), "t1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if gotReq.URL.Path != "/1.1/classes/Package" {
		t.Fatalf("unexpected path %q", gotReq.URL.Path)
	}
	if gotReq.Header.Get("X-LC-Id") != "app" || gotReq.Header.Get("X-LC-Key") != "key" {
		t.Fatalf("missing credential headers: %v", gotReq.Header)
	}
	q := gotReq.URL.Query()
	if q.Get("order") != "-createdAt" || q.Get("limit") != "100" {
		t.Fatalf("unexpected list query: %v", q)
	}
	if !strings.Contains(q.Get("where"), `"tenantId":"t1"`) {
		t.Fatalf("where clause must scope the tenant: %q", q.Get("where"))
	}

	if len(pkgs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(pkgs))
	}
	first := pkgs[0]
	if first.ID != "R1" || first.TrackingNumber != "SF123" || first.ItemName != "Socks" {
		t.Fatalf("wire fields not translated: %+v", first)
	}
	if first.Recipient != "Ana" || first.Sender != "shop" || first.CostPrice != 5.5 || first.Quantity != 2 {
		t.Fatalf("wire fields not translated: %+v", first)
	}
	if first.Status != models.StatusShipped || first.ProductID != "P1" {
		t.Fatalf("status or product link lost: %+v", first)
	}
	if want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC); !first.CreatedAt.Equal(want) {
		t.Fatalf("createdAt parsed to %v, want %v", first.CreatedAt, want)
	}

	// Missing status and quantity fall back to sane values.
	second := pkgs[1]
	if second.Status != models.StatusPending {
		t.Fatalf("expected pending default, got %s", second.Status)
	}
	if second.Quantity != 1 {
		t.Fatalf("expected quantity default 1, got %d", second.Quantity)
	}
}

func TestInsertPackageSendsWireNames(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"objectId":"R7","createdAt":"2026-03-02T08:00:00.000Z"}`)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	confirmed, err := client.InsertPackage(context.Background(), "t1", models.Package{
		ID:             "local-abc",
		TrackingNumber: "SF1",
		ItemName:       "Socks",
		CostPrice:      5,
		Quantity:       2,
		Status:         models.StatusPending,
		ProductID:      "P1",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if body["itemName"] != "Socks" || body["trackingNum"] != "SF1" || body["productId"] != "P1" {
		t.Fatalf("wire names wrong: %v", body)
	}
	if body["tenantId"] != "t1" {
		t.Fatalf("payload must carry the tenant: %v", body)
	}
	if _, ok := body["objectId"]; ok {
		t.Fatalf("local id must not be sent: %v", body)
	}

	if confirmed.ID != "R7" {
		t.Fatalf("expected authoritative id R7, got %q", confirmed.ID)
	}
	if want := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC); !confirmed.CreatedAt.Equal(want) {
		t.Fatalf("createdAt %v, want %v", confirmed.CreatedAt, want)
	}
}

func TestInsertPackageRequiresItemName(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:0"), nil)
	if _, err := client.InsertPackage(context.Background(), "t1", models.Package{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"object missing", http.StatusNotFound, `{"code":101,"error":"object not found"}`, ErrNotFound},
		{"bad field", http.StatusBadRequest, `{"code":105,"error":"invalid field name"}`, ErrValidation},
		{"unprocessable", http.StatusUnprocessableEntity, `{"error":"rejected"}`, ErrValidation},
		{"bad credentials", http.StatusUnauthorized, `{"code":401,"error":"unauthorized"}`, ErrRemoteUnavailable},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrRemoteUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			client := NewClient(testConfig(srv.URL), nil)
			err := client.UpdatePackageStatus(context.Background(), "t1", "R1", models.StatusReceived)
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d: got %v, want %v", tc.status, err, tc.want)
			}
		})
	}
}

func TestUnreachableHostIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	if _, err := client.ListPackages(context.Background(), "t1"); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestFindProductByNameEmptyIsNotFound(t *testing.T) {
	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	if _, err := client.FindProductByName(context.Background(), "t1", "Rice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if gotReq.URL.Path != "/1.1/classes/Product" {
		t.Fatalf("unexpected path %q", gotReq.URL.Path)
	}
	q := gotReq.URL.Query()
	if q.Get("limit") != "1" {
		t.Fatalf("lookup must cap at one result: %v", q)
	}
	if !strings.Contains(q.Get("where"), `"name":"Rice"`) {
		t.Fatalf("where clause must match the name: %q", q.Get("where"))
	}
}
