package cmd

import (
	"context"
	"log"

	"github.com/dogeorg/wifiinfo/cmd/wifiinfo/utils"
	"github.com/dogeorg/wifiinfo/pkg/permission"
	"github.com/dogeorg/wifiinfo/pkg/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scan results over a REST API and websocket.",
	Long: `Serve scan results over a REST API and websocket. Nobody is at a
terminal to answer permission prompts, so consent must be given up front
with 'wifiinfo permissions grant' or through PUT /permissions/{name}.`,
	Run: func(cmd *cobra.Command, args []string) {
		isSystemd := utils.IsSystemd()

		config, err := configFromFlags(cmd)
		if err != nil {
			log.Println("Failed to read flags: ", err)
			utils.ExitBad(isSystemd)
			return
		}

		if config.Bind, err = cmd.Flags().GetString("addr"); err != nil {
			log.Println("Failed to get addr flag.")
			utils.ExitBad(isSystemd)
			return
		}

		if config.Port, err = cmd.Flags().GetInt("port"); err != nil {
			log.Println("Failed to get port flag.")
			utils.ExitBad(isSystemd)
			return
		}

		if config.Password, err = password(cmd); err != nil {
			log.Println("Failed to get password flag.")
			utils.ExitBad(isSystemd)
			return
		}

		if config.Password == "" {
			log.Printf("Refusing to serve without a password, set --password or $%s", passwordEnv)
			utils.ExitBad(isSystemd)
			return
		}

		/* ----------------------------------------------------------------------- */
		// Set up the platform and the scan workflow

		l, err := newLocal(context.Background(), config, permission.DenyPrompter{}, permission.HeadlessUI{})
		if err != nil {
			log.Println("Failed to set up WiFi backend: ", err)
			utils.ExitBad(isSystemd)
			return
		}
		defer l.Close()

		/* ----------------------------------------------------------------------- */
		// Setup our external APIs. REST, Websockets

		wsh := web.NewWSRelay(l.wi.Changes, l.log)
		rest := web.RESTAPI(config, l.wi, l.gate, l.consent, wsh, l.log)

		/* ----------------------------------------------------------------------- */
		// Create a conductor to manage all the above services startup/shutdown

		c := l.conductor()
		c.Service("WifiInfo", l.wi)
		c.Service("WSock Relay", wsh)
		c.Service("REST API", rest)
		<-c.Start()
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().Int("port", 8080, "REST API Port")
	serveCmd.Flags().String("password", "", "Password for API clients (default $"+passwordEnv+")")
	rootCmd.AddCommand(serveCmd)
}
