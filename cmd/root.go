package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"toolroom/internal/core/config"
)

// menuAnnotation names the menu entry a command belongs to. Commands carrying
// it are refused for roles whose menu lacks the entry.
const menuAnnotation = "menu"

func NewRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "toolroom",
		Short:         "Tool room inventory and approval workflow",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.gate(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.flags.apiURL, "api-url", "", "Backend base URL (overrides TOOLROOM_API_URL)")
	flags.DurationVar(&a.flags.timeout, "timeout", 0, "Per request timeout (overrides TOOLROOM_TIMEOUT)")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newResetPasswordCmd(a),
		newWhoamiCmd(a),
		newMenuCmd(a),
		newToolsCmd(a),
		newRequestsCmd(a),
		newAdditionsCmd(a),
		newIssuesCmd(a),
		newUsersCmd(a),
		newNotificationsCmd(a),
		newSessionsCmd(a),
		newServeCmd(a),
		newMigrateCmd(a),
	)
	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := newApp(in, out, errOut)
	rootCmd := NewRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		a.close()
		return 1
	}
	return 0
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
