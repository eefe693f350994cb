// Package commands implements smb1d's CLI, following dittofs's
// cmd/dittofs/commands package split (one file per subcommand, shared
// root.go for global flags).
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time by main.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "smb1d",
	Short: "smb1d - an SMB 1.0 (NT LM 0.12) file server",
	Long: `smb1d serves one or more named shares over the CIFS/SMB 1.0 protocol,
authenticating clients with LM/NTLM/NTLMv2 challenge-response and exposing
a minimal DCE/RPC endpoint for share enumeration over \PIPE\srvsvc.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command; called once from main.
func Execute() error {
	return rootCmd.Execute()
}

// GetConfigFile returns the --config flag value.
func GetConfigFile() string {
	return cfgFile
}
