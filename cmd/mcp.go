package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/hockijo/techconnect/internal/mcp"
	"github.com/hockijo/techconnect/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// mcpSetup validates the analysis and store settings only.
// The MCP tools work on stored runs, so no instrument address is required.
func mcpSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := contract.ProcessAnalysisConfig(cfg, input); err != nil {
		return err
	}
	color.NoColor = true // stdout carries the protocol

	if err := store.InitStore(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	return nil
}

// mcpSetupWrapper wraps mcpSetup to provide PreRunE for the mcp command.
func mcpSetupWrapper(_ *cobra.Command, _ []string) error {
	return mcpSetup()
}

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Techconnect MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents list stored runs,
measure their finesse and inspect the store through standard tools.`,
	PreRunE: mcpSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
