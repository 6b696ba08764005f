package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
)

// Scanner is the contract implemented by scanner plugin binaries.
type Scanner interface {
	Setup(configData config.Config) (bool, error)
	Scan(args ScannerScanRequest) (ScannerScanResponse, error)
}

// ScannerScanRequest represents a single scan request.
type ScannerScanRequest struct {
	TargetPath     string   // Path to the source tree to scan
	ResultsPath    string   // Path to save the results of the scan
	Language       string   // Language to build the analysis database for
	QuerySuite     string   // Query suite or pack to run
	ReportFormat   string   // Format of the report to generate (e.g. sarif-latest, csv)
	BuildCommand   string   // Custom build command for compiled languages
	Threads        int      // Number of analysis threads (0 = auto)
	AdditionalArgs []string // Additional arguments passed through to the scanner
}

type ScannerScanResponse struct {
	ResultsPath string
}

type ScannerRPCClient struct{ client *rpc.Client }

func (g *ScannerRPCClient) Setup(configData config.Config) (bool, error) {
	var resp bool
	err := g.client.Call("Plugin.Setup", configData, &resp)
	if err != nil {
		return false, err
	}
	return resp, nil
}

func (g *ScannerRPCClient) Scan(req ScannerScanRequest) (ScannerScanResponse, error) {
	var resp ScannerScanResponse

	err := g.client.Call("Plugin.Scan", req, &resp)
	if err != nil {
		return resp, err
	}

	return resp, nil
}

type ScannerRPCServer struct {
	Impl Scanner
}

func (s *ScannerRPCServer) Setup(configData config.Config, resp *bool) error {
	var err error
	*resp, err = s.Impl.Setup(configData)
	return err
}

func (s *ScannerRPCServer) Scan(args ScannerScanRequest, resp *ScannerScanResponse) error {
	var err error
	*resp, err = s.Impl.Scan(args)
	return err
}

type ScannerPlugin struct {
	Impl Scanner
}

func (p *ScannerPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &ScannerRPCServer{Impl: p.Impl}, nil
}

func (ScannerPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ScannerRPCClient{client: c}, nil
}
