package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dogeorg/wifiinfo/cmd/wifiinfo/utils"
	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/permission"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for access points and list them, strongest first.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := configFromFlags(cmd)
		if err != nil {
			log.Println("Failed to read flags: ", err)
			utils.ExitBad(false)
			return
		}

		watch, err := cmd.Flags().GetBool("watch")
		if err != nil {
			log.Println("Failed to get watch flag.")
			utils.ExitBad(false)
			return
		}

		interval, err := cmd.Flags().GetDuration("interval")
		if err != nil {
			log.Println("Failed to get interval flag.")
			utils.ExitBad(false)
			return
		}

		asJSON, err := cmd.Flags().GetBool("json")
		if err != nil {
			log.Println("Failed to get json flag.")
			utils.ExitBad(false)
			return
		}

		show := func(records []wifiinfo.ScanRecord) error {
			if asJSON {
				return writeJSON(os.Stdout, byLevel(records))
			}
			return writeTable(os.Stdout, records, time.Now())
		}

		client, err := remoteClient(cmd)
		if err != nil {
			log.Println("Failed to connect: ", err)
			utils.ExitBad(false)
			return
		}

		if client != nil {
			defer client.Logout()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			timeout := config.ScanTimeout
			if timeout <= 0 {
				timeout = wifiinfo.DefaultScanTimeout
			}
			err = remoteScan(ctx, client, timeout, watch, interval, show)
		} else {
			err = scanLocally(config, watch, interval, show)
		}

		if errors.Is(err, errStopped) && watch {
			err = nil
		}
		if err != nil {
			log.Println("Scan failed: ", err)
			utils.ExitBad(false)
			return
		}
	},
}

// scanLocally prompts on this terminal for anything the user has not
// yet decided on.
func scanLocally(config wifiinfo.ServerConfig, watch bool, interval time.Duration, show func([]wifiinfo.ScanRecord) error) error {
	terminal := permission.NewTerminal(os.Stdin, os.Stderr, permission.ConsentPath(config.DataDir))

	l, err := newLocal(context.Background(), config, terminal, terminal)
	if err != nil {
		return err
	}
	defer l.Close()

	return l.scan(watch, interval, show)
}

func init() {
	scanCmd.Flags().BoolP("watch", "w", false, "Keep scanning until interrupted")
	scanCmd.Flags().Duration("interval", 10*time.Second, "Pause between scans with --watch")
	scanCmd.Flags().Bool("json", false, "Print results as JSON")
	addRemoteFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}
