package main

import "github.com/spf13/cobra"

func regimeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "regime",
		Short: "Detect the current market regime",
		Long:  "Evaluates the index bearish signals and prints the hysteresis-confirmed regime state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*configPath, false, nil)
			if err != nil {
				return err
			}
			return printJSON(app.detector.Detect())
		},
	}
}
