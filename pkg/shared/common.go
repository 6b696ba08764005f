package shared

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
	"github.com/scan-io-git/vulnsmith/pkg/shared/logger"
)

const (
	PluginTypeScanner string = "scanner"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "VULNSMITH",
	MagicCookieValue: "5b1f0f2a4af6f77c06184dd2f7db58f4f2a9e0c1",
}

var PluginMap = map[string]plugin.Plugin{
	PluginTypeScanner: &ScannerPlugin{},
}

// Versions holds build metadata, injected at link time.
type Versions struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
}

// WithPlugin starts the named plugin binary, dispenses the requested plugin
// type and hands it to f. The plugin process is killed when f returns.
func WithPlugin(cfg *config.Config, loggerName string, pluginType string, pluginName string, f func(interface{}) error) error {
	pluginLogger := logger.NewLogger(cfg, loggerName)

	pluginPath := filepath.Join(config.GetPluginsHome(cfg), pluginName)
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap,
		Cmd:             exec.Command(pluginPath),
		Logger:          pluginLogger,
	})
	defer client.Kill()

	rpcClient, err := client.Client()
	if err != nil {
		return fmt.Errorf("failed to start plugin %q: %w", pluginName, err)
	}

	raw, err := rpcClient.Dispense(pluginType)
	if err != nil {
		return fmt.Errorf("failed to dispense plugin %q: %w", pluginName, err)
	}

	return f(raw)
}
