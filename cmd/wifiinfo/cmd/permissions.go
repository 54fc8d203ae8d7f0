package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/dogeorg/wifiinfo/cmd/wifiinfo/utils"
	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/permission"
	"github.com/dogeorg/wifiinfo/pkg/web"
	"github.com/spf13/cobra"
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Show what wifiinfo is allowed to do and what it needs next.",
	Run: func(cmd *cobra.Command, args []string) {
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

		if client != nil {
			defer client.Logout()
			res, err := client.Permissions()
			if err != nil {
				log.Println("Failed to get permissions: ", err)
				utils.ExitBad(false)
				return
			}
			writePermissions(os.Stdout, res, nil, nil)
			return
		}

		res, consent, system, err := localPermissions(config)
		if err != nil {
			log.Println("Failed to get permissions: ", err)
			utils.ExitBad(false)
			return
		}
		writePermissions(os.Stdout, res, consent, system)
	},
}

// localPermissions reports the effective state of each permission
// along with the consent and system answers it was combined from.
func localPermissions(config wifiinfo.ServerConfig) (web.PermissionsResponse, permission.States, permission.States, error) {
	ctx := context.Background()
	var res web.PermissionsResponse

	l, err := newLocal(ctx, config, permission.DenyPrompter{}, permission.HeadlessUI{})
	if err != nil {
		return res, nil, nil, err
	}
	defer l.Close()

	consent := permission.States{}
	system := permission.States{}
	for _, p := range wifiinfo.AllPermissions {
		if consent[p], err = l.consent.Check(ctx, p); err != nil {
			return res, nil, nil, err
		}
		if system[p], err = l.platform.Check(ctx, p); err != nil {
			return res, nil, nil, err
		}
	}

	if res.Permissions, err = l.gate.States(ctx); err != nil {
		return res, nil, nil, err
	}
	if res.Decision, err = l.gate.Decide(ctx); err != nil {
		return res, nil, nil, err
	}
	if res.Decision.Action == permission.ShowSettings {
		res.Hints = map[wifiinfo.Permission]string{}
		for _, p := range res.Decision.Permissions {
			res.Hints[p] = permission.SettingsHint(l.consent.Path(), p)
		}
	}
	return res, consent, system, nil
}

// consent and system are optional extra columns.
func writePermissions(w io.Writer, res web.PermissionsResponse, consent, system permission.States) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if consent != nil && system != nil {
		fmt.Fprintln(tw, "PERMISSION\tCONSENT\tSYSTEM\tSTATE")
	} else {
		fmt.Fprintln(tw, "PERMISSION\tSTATE")
	}
	for _, p := range wifiinfo.AllPermissions {
		if consent != nil && system != nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p, consent[p], system[p], res.Permissions[p])
		} else {
			fmt.Fprintf(tw, "%s\t%s\n", p, res.Permissions[p])
		}
	}
	tw.Flush()

	switch res.Decision.Action {
	case permission.Proceed:
		fmt.Fprintln(w, "\nReady to scan.")
	case permission.ShowSettings:
		fmt.Fprintln(w, "\nPermanently denied, change by hand:")
		for _, p := range res.Decision.Permissions {
			fmt.Fprintf(w, "  %s\n", res.Hints[p])
		}
	default:
		fmt.Fprintf(w, "\nNext scan will ask for: %v\n", res.Decision.Permissions)
	}
}

// setConsentCmd records one answer in the consent store.
func setConsentCmd(use, short string, state wifiinfo.PermissionState) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <permission>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runConsentChange(cmd, args[0], func(p wifiinfo.Permission, client *web.Client, store *permission.ConsentStore) error {
				if client != nil {
					_, err := client.SetPermission(p, state)
					return err
				}
				return store.Set(p, state)
			})
		},
	}
}

var resetPermissionCmd = &cobra.Command{
	Use:   "reset <permission>",
	Short: "Forget the answer for a permission so the next scan asks again.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runConsentChange(cmd, args[0], func(p wifiinfo.Permission, client *web.Client, store *permission.ConsentStore) error {
			if client != nil {
				_, err := client.ResetPermission(p)
				return err
			}
			return store.Reset(p)
		})
	},
}

func runConsentChange(cmd *cobra.Command, name string, change func(wifiinfo.Permission, *web.Client, *permission.ConsentStore) error) {
	p, err := wifiinfo.ParsePermission(name)
	if err != nil {
		log.Println(err)
		utils.ExitBad(false)
		return
	}

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
	if client != nil {
		defer client.Logout()
	}

	store := permission.NewConsentStore(config.DataDir, permission.DenyPrompter{}, wifiinfo.NewLogger(config.Verbose))
	if err := change(p, client, store); err != nil {
		log.Printf("Failed to update %s: %v", p, err)
		utils.ExitBad(false)
		return
	}
	fmt.Printf("%s updated\n", p)
}

func init() {
	grantCmd := setConsentCmd("grant", "Allow a permission.", wifiinfo.PermissionGranted)
	denyCmd := setConsentCmd("deny", "Deny a permission; the next scan asks again.", wifiinfo.PermissionDenied)
	neverCmd := setConsentCmd("never", "Deny a permission and never ask again.", wifiinfo.PermissionPermanentlyDenied)

	for _, c := range []*cobra.Command{permissionsCmd, grantCmd, denyCmd, neverCmd, resetPermissionCmd} {
		addRemoteFlags(c)
	}
	permissionsCmd.AddCommand(grantCmd, denyCmd, neverCmd, resetPermissionCmd)
	rootCmd.AddCommand(permissionsCmd)
}
