package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitebrief/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if full, _ := cmd.Flags().GetBool("full"); full {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Full())
			return err
		}
		if format, _ := cmd.Flags().GetString("format"); format != "" {
			w, closeFn, err := openWriter(cmd)
			if err != nil {
				return err
			}
			if err := w.Write(info); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "sitebrief %s\n", info)
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("full", false, "show build details")
	addOutputFlags(versionCmd, "")
}
