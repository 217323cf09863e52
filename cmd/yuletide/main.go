package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/yuletide/internal/config"
)

var (
	configPath string

	// run
	addr     string
	device   int
	noWindow bool
	withTray bool
	seed     uint64

	// inspect
	limit int

	// converge
	frames    int
	target    string
	scale     float64
	plotWidth int

	// config init
	force bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "yuletide",
		Short: "gesture-controlled particle christmas tree",
		// Default to the full application when no command is given
		RunE: runApp,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.yuletide/config.yaml)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "open the camera, the window and the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runApp,
	}
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides server.addr)")
		c.Flags().IntVar(&device, "camera", 0, "camera device index (overrides camera.device)")
		c.Flags().BoolVar(&noWindow, "no-window", false, "run without the 3D window")
		c.Flags().BoolVar(&withTray, "tray", false, "show the system tray menu (headless only)")
		c.Flags().Uint64Var(&seed, "seed", 0, "particle layout seed, 0 picks one")
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "print configuration, plugins, bindings and recent transitions",
		Args:  cobra.NoArgs,
		RunE:  inspect,
	}
	inspectCmd.Flags().IntVar(&limit, "limit", 10, "number of recent transitions")

	convergeCmd := &cobra.Command{
		Use:   "converge",
		Short: "plot how fast the particle field settles on a layout",
		Args:  cobra.NoArgs,
		RunE:  converge,
	}
	convergeCmd.Flags().IntVar(&frames, "frames", 120, "frames to simulate")
	convergeCmd.Flags().StringVar(&target, "state", "EXPLODE", "layout to converge on (TREE or EXPLODE)")
	convergeCmd.Flags().Float64Var(&scale, "scale", 0.1, "fraction of the configured particle counts")
	convergeCmd.Flags().Uint64Var(&seed, "seed", 1, "particle layout seed")
	convergeCmd.Flags().IntVar(&plotWidth, "width", 60, "plot width in columns")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage the configuration file",
	}
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "write the default configuration",
		Args:  cobra.NoArgs,
		RunE:  configInit,
	}
	configInitCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd, inspectCmd, convergeCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config, or the default path when the flag is empty.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("load config: %w", err)
	}
	return cfg, path, nil
}

func configInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
