package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "miespacio",
	Short: "Recommend study notes to UBB students",
	Long: `Miespacio ranks the notes shared on MiEspacioUBB for each student,
using their enrolled subjects, grades, study methods and activity.

Workflow: init → import → recommend | search | trends | serve`,
}

func init() {
	rootCmd.Version = "0.1.0"
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
