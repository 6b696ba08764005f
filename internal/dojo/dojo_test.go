package dojo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
)

type fakeDojo struct {
	products      map[string]int
	nextProductID int
	engagements   int
	imports       int
}

func newFakeDojo() *fakeDojo {
	return &fakeDojo{products: map[string]int{}, nextProductID: 1}
}

func (d *fakeDojo) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v2/products/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			tag := r.URL.Query().Get("tag")
			if id, ok := d.products[tag]; ok {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"count":   1,
					"results": []map[string]interface{}{{"id": id, "name": "p"}},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"count": 0, "results": []interface{}{}})
			return
		}

		r.ParseForm()
		id := d.nextProductID
		d.nextProductID++
		d.products[r.FormValue("tags")] = id
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": id})
	})

	mux.HandleFunc("/api/v2/engagements/", func(w http.ResponseWriter, r *http.Request) {
		d.engagements++
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 77})
	})

	mux.HandleFunc("/api/v2/import-scan/", func(w http.ResponseWriter, r *http.Request) {
		d.imports++
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})

	return mux
}

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	t.Setenv("DEFECTDOJO_TOKEN", "test-token")

	cfg := &config.Config{}
	cfg.DefectDojo.URL = url
	cfg.DefectDojo.ProjectsPrefix = "github.com/"

	client, err := NewClient(nil, cfg)
	require.NoError(t, err)
	return client
}

func TestUpload(t *testing.T) {
	fake := newFakeDojo()
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := testClient(t, server.URL)

	reportPath := filepath.Join(t.TempDir(), "report.sarif")
	require.NoError(t, os.WriteFile(reportPath, []byte(`{"version":"2.1.0","runs":[]}`), 0644))

	require.NoError(t, client.Upload(context.Background(), "acme/webapp", "run-1", reportPath))
	assert.Equal(t, 1, fake.engagements)
	assert.Equal(t, 1, fake.imports)

	// A second upload reuses the product.
	require.NoError(t, client.Upload(context.Background(), "acme/webapp", "run-2", reportPath))
	assert.Len(t, fake.products, 1)
	assert.Equal(t, 2, fake.engagements)
}

func TestImportScanRejectsMissingReport(t *testing.T) {
	fake := newFakeDojo()
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := testClient(t, server.URL)

	err := client.ImportScan(context.Background(), 77, filepath.Join(t.TempDir(), "missing.sarif"), "acme/webapp")
	require.Error(t, err)
	assert.Equal(t, 0, fake.imports)
}

func TestNewClientRequiresToken(t *testing.T) {
	t.Setenv("DEFECTDOJO_TOKEN", "")
	cfg := &config.Config{}
	cfg.DefectDojo.URL = "http://dojo.local"

	_, err := NewClient(nil, cfg)
	assert.Error(t, err)
}

func TestNewClientRequiresURL(t *testing.T) {
	t.Setenv("DEFECTDOJO_TOKEN", "token")
	_, err := NewClient(nil, &config.Config{})
	assert.Error(t, err)
}

func TestProductTagIsStable(t *testing.T) {
	assert.Equal(t, productTag("acme"), productTag("acme"))
	assert.NotEqual(t, productTag("acme"), productTag("other"))
}
