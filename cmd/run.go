// cmd/run.go
package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webdriver-keywords/internal/keywords"
	"github.com/xkilldash9x/webdriver-keywords/internal/observability"
)

func newRunCmd() *cobra.Command {
	var vars map[string]string

	runCmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Run a keyword script",
		Long: `Runs the steps of a YAML keyword script in order and stops at the first
failing step. A step may save its result into a variable that later steps
reference as ${name}.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			script, err := keywords.LoadScript(args[0])
			if err != nil {
				return err
			}
			if script.Vars == nil {
				script.Vars = make(map[string]string, len(vars))
			}
			for k, v := range vars {
				script.Vars[k] = v
			}

			logger := observability.GetLogger().With(zap.String("script", args[0]))
			lib := newLibrary(cfg, logger)
			defer closeLibrary(lib, logger)

			out := cmd.OutOrStdout()
			results, final, err := keywords.NewRegistry(lib).RunScript(cmd.Context(), script, logger)
			for _, r := range results {
				printPass(out, r.Step.Keyword, r.Step.Args, r.Output)
			}
			if err != nil {
				printFail(out, err)
				return fmt.Errorf("script %s failed after %d of %d steps: %w", scriptName(script, args[0]), len(results), len(script.Steps), err)
			}

			logger.Info("Script passed.", zap.Int("steps", len(results)))
			if len(final) > 0 {
				names := make([]string, 0, len(final))
				for k := range final {
					names = append(names, k)
				}
				sort.Strings(names)
				for _, k := range names {
					fmt.Fprintf(out, "${%s} = %s\n", k, final[k])
				}
			}
			return nil
		},
	}
	runCmd.Flags().StringToStringVar(&vars, "var", nil, "set a script variable, e.g. --var base=https://example.test")
	return runCmd
}

func scriptName(s *keywords.Script, path string) string {
	if s.Name != "" {
		return fmt.Sprintf("%q", s.Name)
	}
	return path
}
