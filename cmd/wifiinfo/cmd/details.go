package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dogeorg/wifiinfo/cmd/wifiinfo/utils"
	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/format"
	"github.com/dogeorg/wifiinfo/pkg/permission"
	"github.com/spf13/cobra"
)

var detailsCmd = &cobra.Command{
	Use:   "details <bssid>",
	Short: "Show every attribute of one access point.",
	Long: `Show every attribute of one access point. Locally this runs a fresh
scan first; with --remote it reads the server's latest results.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bssid := args[0]

		config, err := configFromFlags(cmd)
		if err != nil {
			log.Println("Failed to read flags: ", err)
			utils.ExitBad(false)
			return
		}

		client, err := remoteClient(cmd)
		if err != nil {
			log.Println("Failed to connect: ", err)
			utils.ExitBad(false)
			return
		}

		var fields []format.Field
		if client != nil {
			defer client.Logout()
			res, err := client.Detail(bssid)
			if err != nil {
				log.Println("Failed to get details: ", err)
				utils.ExitBad(false)
				return
			}
			fields = res.Details
		} else {
			fields, err = detailsLocally(config, bssid)
			if err != nil {
				log.Println("Failed to get details: ", err)
				utils.ExitBad(false)
				return
			}
		}

		if err := writeDetails(os.Stdout, fields); err != nil {
			log.Println("Failed to write details: ", err)
			utils.ExitBad(false)
		}
	},
}

func detailsLocally(config wifiinfo.ServerConfig, bssid string) ([]format.Field, error) {
	terminal := permission.NewTerminal(os.Stdin, os.Stderr, permission.ConsentPath(config.DataDir))

	l, err := newLocal(context.Background(), config, terminal, terminal)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	noop := func([]wifiinfo.ScanRecord) error { return nil }
	if err := l.scan(false, 0, noop); err != nil {
		return nil, err
	}

	r, ok := l.wi.Results.Find(bssid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", wifiinfo.ErrNotFound, bssid)
	}
	return format.Details(r, time.Now()), nil
}

func init() {
	addRemoteFlags(detailsCmd)
	rootCmd.AddCommand(detailsCmd)
}
