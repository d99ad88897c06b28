package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/funcagent/config"
	"github.com/hupe1980/funcagent/runner"
)

// appOptions carries injectable IO for tests.
type appOptions struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (o *appOptions) defaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

func newRootCmd(opts appOptions) *cobra.Command {
	opts.defaults()

	var (
		cfgPath string
		verbose bool
	)

	root := &cobra.Command{
		Use:          "funcagent",
		Short:        "funcagent - bounded tool-calling agent",
		SilenceUsage: true,
	}

	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print user input and tool calls")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		if verbose {
			cfg.Verbose = true
		}
		return cfg, nil
	}

	root.AddCommand(
		newRunCmd(opts, load),
		newChatCmd(opts, load),
		newToolsCmd(opts),
	)

	return root
}

func newRunCmd(opts appOptions, load func() (*config.Config, error)) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send a single message and print the answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(message) == "" {
				return errors.New("--message is required")
			}

			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := newApp(ctx, cfg, opts)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			return ask(ctx, a.runner, message, opts.Stdout)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "message to send")

	return cmd
}

func newChatCmd(opts appOptions, load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session; memory persists between turns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := newApp(ctx, cfg, opts)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			fmt.Fprintln(opts.Stdout, "funcagent chat (type 'exit' to quit)")

			scanner := bufio.NewScanner(opts.Stdin)
			for {
				fmt.Fprint(opts.Stdout, "\n> ")
				if !scanner.Scan() {
					break
				}

				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					continue
				}
				if input == "exit" || input == "quit" {
					break
				}

				if err := ask(ctx, a.runner, input, opts.Stdout); err != nil {
					if ctx.Err() != nil {
						return err
					}
					fmt.Fprintf(opts.Stderr, "error: %v\n", err)
				}
			}

			return scanner.Err()
		},
	}
}

func newToolsCmd(opts appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, t := range calculatorTools() {
				meta := t.Metadata()
				fmt.Fprintf(opts.Stdout, "%-10s %s (%s)\n", meta.Name, meta.Description, strings.Join(meta.ParameterNames(), ", "))
			}
			return nil
		},
	}
}

// ask runs one task and prints its answer. Hitting the call ceiling still
// prints the last response before reporting the error.
func ask(ctx context.Context, r *runner.Runner, input string, out io.Writer) error {
	resp, err := r.Chat(ctx, input)
	if resp != nil {
		fmt.Fprintln(out, resp.Response)
	}

	if errors.Is(err, runner.ErrMaxFunctionCalls) {
		return fmt.Errorf("stopped early: %w", err)
	}

	return err
}
