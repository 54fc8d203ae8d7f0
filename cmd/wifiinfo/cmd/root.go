package cmd

import (
	"os"
	"path/filepath"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wifiinfo",
	Short: "wifiinfo scans for nearby WiFi access points",
	Long: `wifiinfo scans for nearby WiFi access points and shows their radio
and identity attributes, either once from the terminal or continuously
over a REST API and websocket (wifiinfo serve).`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "wifiinfo")
	}
	return "./data"
}

// configFromFlags reads the persistent flags shared by every command.
func configFromFlags(cmd *cobra.Command) (wifiinfo.ServerConfig, error) {
	var config wifiinfo.ServerConfig
	var err error

	if config.DataDir, err = cmd.Flags().GetString("data-dir"); err != nil {
		return config, err
	}
	if config.Backend, err = cmd.Flags().GetString("backend"); err != nil {
		return config, err
	}
	if config.Interface, err = cmd.Flags().GetString("interface"); err != nil {
		return config, err
	}
	if config.Verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
		return config, err
	}
	if config.ScanTimeout, err = cmd.Flags().GetDuration("scan-timeout"); err != nil {
		return config, err
	}
	return config, nil
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", defaultDataDir(), "Directory holding the consent store")
	rootCmd.PersistentFlags().String("backend", wifiinfo.BackendAuto, "WiFi backend: auto, networkmanager or nl80211")
	rootCmd.PersistentFlags().StringP("interface", "i", "", "Only use this wireless interface")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Be verbose")
	rootCmd.PersistentFlags().Duration("scan-timeout", wifiinfo.DefaultScanTimeout, "How long a scan may take before another can be requested")
}
