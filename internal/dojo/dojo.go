package dojo

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
	"github.com/scan-io-git/vulnsmith/pkg/shared/files"
	"github.com/scan-io-git/vulnsmith/pkg/shared/httpclient"
)

const tokenEnv = "DEFECTDOJO_TOKEN"

// Client uploads scan reports to a DefectDojo instance.
type Client struct {
	resty          *resty.Client
	logger         hclog.Logger
	projectsPrefix string
}

type product struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type getProductsResult struct {
	Count   int       `json:"count"`
	Results []product `json:"results"`
}

type engagement struct {
	ID        int `json:"id"`
	ProductID int `json:"product"`
}

// NewClient builds a DefectDojo client. The API token comes from
// DEFECTDOJO_TOKEN; the base URL and product prefix from the configuration.
func NewClient(logger hclog.Logger, cfg *config.Config) (*Client, error) {
	token := os.Getenv(tokenEnv)
	if token == "" {
		return nil, fmt.Errorf("%s environment variable is not set", tokenEnv)
	}
	if cfg == nil || cfg.DefectDojo.URL == "" {
		return nil, fmt.Errorf("defectdojo url is not configured")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	restyClient := httpclient.InitializeRestyClient(logger, cfg)
	restyClient.
		SetBaseURL(cfg.DefectDojo.URL).
		SetHeader("Authorization", fmt.Sprintf("Token %s", token))

	return &Client{
		resty:          restyClient,
		logger:         logger,
		projectsPrefix: cfg.DefectDojo.ProjectsPrefix,
	}, nil
}

// productName applies the configured prefix to a project name.
func (c *Client) productName(project string) string {
	return c.projectsPrefix + project
}

// productTag derives a stable tag from the product name. Lookup goes through
// the tag because product names may contain characters the search endpoint
// mangles.
func productTag(name string) string {
	sum := md5.Sum([]byte(name))
	return fmt.Sprintf("vulnsmith_p_%s", hex.EncodeToString(sum[:]))
}

// findProduct looks a product up by tag. A zero id means not found.
func (c *Client) findProduct(ctx context.Context, name string) (int, error) {
	var result getProductsResult
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParam("tag", productTag(name)).
		SetResult(&result).
		Get("/api/v2/products/")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("response != 200 on getting product %q: %s", name, resp.Status())
	}
	if result.Count == 0 {
		return 0, nil
	}
	return result.Results[0].ID, nil
}

// EnsureProduct finds or creates the product for a project and returns its id.
func (c *Client) EnsureProduct(ctx context.Context, project string) (int, error) {
	name := c.productName(project)

	id, err := c.findProduct(ctx, name)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		c.logger.Info("product already exists", "product", name, "id", id)
		return id, nil
	}

	c.logger.Info("creating defectdojo product", "product", name)
	var created product
	resp, err := c.resty.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"name":        name,
			"description": fmt.Sprintf("Static analysis findings for %q", project),
			"prod_type":   "1",
			"tags":        productTag(name),
		}).
		SetResult(&created).
		Post("/api/v2/products/")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return 0, fmt.Errorf("response != 201 on creating product %q: %s", name, resp.Status())
	}
	return created.ID, nil
}

// CreateEngagement opens a completed engagement for one analysis run.
func (c *Client) CreateEngagement(ctx context.Context, productID int, runID string) (int, error) {
	today := time.Now().Format("2006-01-02")

	var created engagement
	resp, err := c.resty.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"target_start": today,
			"target_end":   today,
			"status":       "Completed",
			"product":      strconv.Itoa(productID),
			"name":         fmt.Sprintf("vulnsmith run %s", runID),
		}).
		SetResult(&created).
		Post("/api/v2/engagements/")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return 0, fmt.Errorf("response != 201 on creating engagement: %s", resp.Status())
	}
	return created.ID, nil
}

// ImportScan uploads a SARIF report into the engagement.
func (c *Client) ImportScan(ctx context.Context, engagementID int, reportPath, service string) error {
	fileName, err := files.GetValidatedFileName(reportPath)
	if err != nil {
		return fmt.Errorf("report file is not usable: %w", err)
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetFiles(map[string]string{"file": reportPath}).
		SetFormData(map[string]string{
			"engagement": strconv.Itoa(engagementID),
			"scan_type":  "SARIF",
			"service":    service,
		}).
		Post("/api/v2/import-scan/")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("response != 201 on importing scan results: %s", resp.Status())
	}

	c.logger.Info("report imported", "engagement", engagementID, "report", fileName)
	return nil
}

// Upload runs the full flow: ensure product, open engagement, import report.
func (c *Client) Upload(ctx context.Context, project, runID, reportPath string) error {
	productID, err := c.EnsureProduct(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to ensure product: %w", err)
	}

	engagementID, err := c.CreateEngagement(ctx, productID, runID)
	if err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}

	if err := c.ImportScan(ctx, engagementID, reportPath, project); err != nil {
		return fmt.Errorf("failed to import scan: %w", err)
	}
	return nil
}
