package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"web-agent/internal/application/port/input"
	"web-agent/internal/domain/entity"
	"web-agent/internal/infrastructure/userinteraction"

	"github.com/spf13/cobra"
)

var (
	runSteps int
	runJSON  bool
)

var runCmd = &cobra.Command{
	Use:   "run [goal]",
	Short: "Run one goal in the terminal",
	Long: `Run one goal and print the agent's progress.

The goal is taken from the arguments, or read from stdin when none are given.
With --json every display event is written to stdout as one JSON line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		goal, err := readGoal(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		container, err := newContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Close()

		steps := entity.ClampSteps(runSteps)
		if runJSON {
			return streamEvents(ctx, container.RunExecutor, goal, steps, cmd.OutOrStdout())
		}

		printer := userinteraction.NewConsolePrinter(cmd.OutOrStdout())
		printer.ShowGoal(goal, steps)

		res, err := container.RunExecutor.Run(ctx, goal, steps, printer)
		if err != nil {
			printer.ShowError(err)
			return err
		}
		printer.ShowSummary(res)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVarP(&runSteps, "steps", "s", entity.DefaultStepBudget, "step budget (1-20)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "write display events as JSON lines")
}

func readGoal(args []string, in io.Reader) (string, error) {
	goal := strings.TrimSpace(strings.Join(args, " "))
	if goal == "" {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read goal: %w", err)
		}
		goal = strings.TrimSpace(line)
	}
	if goal == "" {
		return "", errors.New("goal must not be empty")
	}
	return goal, nil
}

func streamEvents(ctx context.Context, runner input.RunExecutor, goal string, steps int, out io.Writer) error {
	enc := json.NewEncoder(out)
	for event, err := range runner.Events(ctx, goal, steps) {
		if err != nil {
			return err
		}
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
	}
	return nil
}
