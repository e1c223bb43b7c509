package handlers

import (
	"tamgu/internal/tui"

	"github.com/spf13/cobra"
)

// NewTUICmd creates the TUI command
func NewTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the terminal worksheet",
		Long:  `Browse articles, fill in the 5W1H worksheet and ask the AI for help from the terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return tui.Run(cmd.Context(), a.ws)
		},
	}
}
