// cmd/shell.go
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webdriver-keywords/internal/keywords"
	"github.com/xkilldash9x/webdriver-keywords/internal/observability"
)

const shellPrompt = "wdk> "

var errUnterminatedQuote = errors.New("unterminated quote")

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run keywords interactively",
		Long: `Starts an interactive prompt that runs one keyword per line against a
single browser session. Arguments are separated by spaces; quote arguments
that contain spaces. Keyword names ignore case, spaces and underscores:

  wdk> open_browser chrome
  wdk> "Navigate To URL" https://example.test
  wdk> title = GetPageTitle
  wdk> ElementTextContains id heading "${title}"

Type "help" to list keywords and "exit" or "quit" to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := observability.GetLogger().Named("shell")
			lib := newLibrary(cfg, logger)
			defer closeLibrary(lib, logger)

			sh := &shell{
				registry: keywords.NewRegistry(lib),
				vars:     make(map[string]string),
				out:      cmd.OutOrStdout(),
				logger:   logger,
			}
			return sh.loop(cmd, cmd.InOrStdin())
		},
	}
}

// shell is one interactive session. Variables live as long as the prompt.
type shell struct {
	registry *keywords.Registry
	vars     map[string]string
	out      io.Writer
	logger   *zap.Logger
}

func (sh *shell) loop(cmd *cobra.Command, in io.Reader) error {
	ctx := cmd.Context()
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(sh.out, shellPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help":
			printKeywords(sh.out, sh.registry, false)
			continue
		}
		sh.execute(cmd, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// execute runs one line. Failures are printed and the prompt carries on.
func (sh *shell) execute(cmd *cobra.Command, line string) {
	save, name, args, err := parseLine(line)
	if err != nil {
		printFail(sh.out, err)
		return
	}
	for i, a := range args {
		if args[i], err = keywords.Expand(a, sh.vars); err != nil {
			printFail(sh.out, err)
			return
		}
	}

	out, err := sh.registry.Run(cmd.Context(), name, args)
	if err != nil {
		sh.logger.Debug("Keyword failed.", zap.String("keyword", name), zap.Error(err))
		printFail(sh.out, err)
		return
	}
	if save != "" {
		sh.vars[save] = out
	}
	printPass(sh.out, name, args, out)
}

// parseLine splits "[var =] keyword args..." into its parts.
func parseLine(line string) (save, name string, args []string, err error) {
	fields, err := splitFields(line)
	if err != nil {
		return "", "", nil, err
	}
	if len(fields) >= 2 && fields[1] == "=" {
		save = strings.TrimSuffix(strings.TrimPrefix(fields[0], "${"), "}")
		fields = fields[2:]
	}
	if len(fields) == 0 {
		return "", "", nil, errors.New("missing keyword")
	}
	return save, fields[0], fields[1:], nil
}

// splitFields splits on unquoted whitespace. Single and double quotes group
// words, and a backslash escapes the next character outside single quotes.
func splitFields(line string) ([]string, error) {
	var (
		fields  []string
		cur     strings.Builder
		inField bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inField = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inField = true
		case r == ' ' || r == '\t':
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}
		default:
			cur.WriteRune(r)
			inField = true
		}
	}
	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}
	if inField {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
