package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/web"
	"github.com/spf13/cobra"
)

const passwordEnv = "WIFIINFO_PASSWORD"

// password prefers --password, falling back to $WIFIINFO_PASSWORD.
func password(cmd *cobra.Command) (string, error) {
	p, err := cmd.Flags().GetString("password")
	if err != nil {
		return "", err
	}
	if p == "" {
		p = os.Getenv(passwordEnv)
	}
	return p, nil
}

// remoteClient returns a logged in client for --remote, or nil when
// the command should run locally.
func remoteClient(cmd *cobra.Command) (*web.Client, error) {
	remote, err := cmd.Flags().GetString("remote")
	if err != nil || remote == "" {
		return nil, err
	}
	pass, err := password(cmd)
	if err != nil {
		return nil, err
	}
	if pass == "" {
		return nil, fmt.Errorf("--remote needs --password or $%s", passwordEnv)
	}

	client := web.NewClient(remote)
	if err := client.Authenticate(pass); err != nil {
		return nil, fmt.Errorf("logging in to %s: %w", remote, err)
	}
	return client, nil
}

func addRemoteFlags(cmd *cobra.Command) {
	cmd.Flags().String("remote", "", "URL of a running `wifiinfo serve` to use instead of this host")
	cmd.Flags().String("password", "", "Password for --remote (default $"+passwordEnv+")")
}

/* remoteScan mirrors local.scan against a server: it subscribes to
 * the scan socket, starts a scan job and shows every result set
 * that follows, until the context ends when watch is set.
 */
func remoteScan(ctx context.Context, client *web.Client, timeout time.Duration, watch bool, interval time.Duration, show func([]wifiinfo.ScanRecord) error) error {
	sub, err := client.Subscribe()
	if err != nil {
		return err
	}
	defer sub.Close()

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	// the socket opens with whatever the server already holds
	if _, err := sub.Next(); err != nil {
		return err
	}

	for {
		id, err := client.Scan()
		if err != nil {
			return err
		}
		if err := waitRemoteScan(sub, id, timeout, show); err != nil {
			if ctx.Err() != nil {
				return errStopped
			}
			return err
		}
		if !watch {
			return nil
		}

		select {
		case <-ctx.Done():
			return errStopped
		case <-time.After(interval):
		}
	}
}

func waitRemoteScan(sub *web.Subscription, id string, timeout time.Duration, show func([]wifiinfo.ScanRecord) error) error {
	if err := sub.SetDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	for {
		e, err := sub.Next()
		if err != nil {
			var ne interface{ Timeout() bool }
			if errors.As(err, &ne) && ne.Timeout() {
				return fmt.Errorf("no scan results after %s", timeout)
			}
			return err
		}

		switch e.Type {
		case "action":
			if e.ID == id && e.Error != "" {
				return errors.New(e.Error)
			}
		case "scan":
			update, err := e.ScanUpdate()
			if err != nil {
				return err
			}
			return show(update.Results)
		}
	}
}
