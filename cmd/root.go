package cmd

import (
	"os"

	"github.com/aaron-n/smallsh/core"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "smallsh",
	Short: "A small interactive shell",
	Long: `smallsh is a minimal interactive shell: it reads commands from the
terminal, expands $$ to its own pid, runs the builtins exit, cd and status,
and launches everything else as a child process with optional < and >
redirection and optional trailing-& background execution. Ctrl+Z toggles
foreground-only mode.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		sh, err := core.NewShell(core.ShellConfig{
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		})
		if err != nil {
			return err
		}
		defer sh.Close()

		return sh.Run()
	},
}

// Execute runs the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
