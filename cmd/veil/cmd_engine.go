package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jcadam/veil/pkg/config"
	"github.com/jcadam/veil/pkg/prefs"
)

func init() {
	rootCmd.AddCommand(engineCmd)
}

var engineCmd = &cobra.Command{
	Use:   "engine [name]",
	Short: "Show or set the default search backend",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		veilDir, err := config.VeilDir()
		if err != nil {
			return err
		}
		store := prefs.NewStore(veilDir)

		if len(args) == 0 {
			engine, err := store.ActiveEngine()
			if err != nil {
				return err
			}
			fmt.Println(engine)
			return nil
		}
		if err := store.SetEngine(args[0]); err != nil {
			return err
		}
		fmt.Printf("search engine set to %s\n", args[0])
		return nil
	},
}
