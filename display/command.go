// Package display decides between human and machine output for CLI commands.
package display

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// OutputEnv selects JSON output when set to "json", for scripts that cannot pass flags.
const OutputEnv = "CERSEI_OUTPUT"

// ShouldOutputJSON reports whether a command should print JSON instead of tables.
// A --json flag on the command wins over the global flag, which wins over OutputEnv.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd != nil {
		if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
			v, _ := cmd.Flags().GetBool("json")
			return v
		}
		if globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); globalFlag {
			return true
		}
	}
	return strings.EqualFold(strings.TrimSpace(os.Getenv(OutputEnv)), "json")
}

// OutputJSON writes v as indented JSON followed by a newline.
func OutputJSON(w io.Writer, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
