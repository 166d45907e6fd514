package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jcadam/veil/pkg/config"
	"github.com/jcadam/veil/pkg/mode"
	"github.com/jcadam/veil/pkg/prefs"
)

func init() {
	rootCmd.AddCommand(modeCmd)
}

var modeCmd = &cobra.Command{
	Use:   "mode [name]",
	Short: "Show or set the active privacy mode",
	Long: `With no argument, prints the stored mode and the policy of each
available mode. With an argument, switches the active mode: through the
daemon when it is running (which also clears session cookies), directly
in the preference file otherwise.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		veilDir, err := config.VeilDir()
		if err != nil {
			return err
		}
		store := prefs.NewStore(veilDir)

		if len(args) == 0 {
			active, err := store.ActiveMode()
			if err != nil {
				return err
			}
			for _, name := range mode.Names() {
				p, _ := mode.Resolve(string(name))
				marker := "  "
				if string(name) == active {
					marker = "* "
				}
				fmt.Printf("%s%-9s transport=%s headers=%s cookies=%s scripts=%v images=%v\n",
					marker, name, p.Transport, p.Headers, p.Cookies, p.ScriptsAllowed, p.ImagesAllowed)
			}
			return nil
		}

		name := args[0]
		if client, err := newAPIClient(); err == nil {
			var res struct {
				Mode string `json:"mode"`
			}
			if err := client.post(cmd.Context(), "/mode", map[string]string{"mode": name}, &res); err == nil {
				fmt.Printf("mode set to %s\n", res.Mode)
				return nil
			}
		}

		// Daemon not running: validate and persist directly.
		if err := store.SetMode(name); err != nil {
			return err
		}
		fmt.Printf("mode set to %s (takes effect when the daemon starts)\n", name)
		return nil
	},
}
