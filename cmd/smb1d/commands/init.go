package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample configuration file",
	Long: `Write a sample smb1d configuration file.

By default the file is written to ./smb1d.yaml; pass a path to override,
or use --config at the root command.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

const sampleConfig = `# smb1d sample configuration.
listen:
  host: 0.0.0.0
  port: 445

domain_name: WORKGROUP
allow_anonymous: false

max_connections: 256

timeouts:
  read: 5m
  write: 30s
  idle: 5m
  shutdown: 30s

logging:
  level: INFO
  format: text
  output: stdout

metrics:
  enabled: false
  listen: 127.0.0.1:9445

# Account table: lowercase name -> hex-encoded LM/NTLM password hashes.
users:
  guest:
    lm_hash: ""
    ntlm_hash: ""

# Share table. IPC$ is always present and does not need listing here.
shares:
  public:
    backend: disk
    root: /srv/smb1d/public
    comment: Public share
`

func runInit(cmd *cobra.Command, args []string) error {
	path := "smb1d.yaml"
	if cfgFile := GetConfigFile(); cfgFile != "" {
		path = cfgFile
	}
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	fmt.Printf("Configuration file written to: %s\n", path)
	fmt.Println("Edit the shares/users sections, then run: smb1d start --config " + path)
	return nil
}
