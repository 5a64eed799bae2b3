package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-screener/internal/pipeline"
)

// screenCmd runs the pipeline once from the terminal
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "스크리닝 1회 실행 후 결과 출력",
	Long: `캐시가 유효하면 캐시 결과를, 아니면 전체 스크리닝을 실행하고
상위 종목 표를 출력합니다.

Example:
  go run ./cmd/screener screen
  go run ./cmd/screener screen --force --universe both`,
	RunE: runScreen,
}

var (
	screenForce bool
	screenQuiet bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().BoolVar(&screenForce, "force", false, "캐시 무시하고 새로 스크리닝")
	screenCmd.Flags().BoolVarP(&screenQuiet, "quiet", "q", false, "진행 메시지 숨김")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Ctrl+C 시 실행을 중단하고 캐시를 쓰지 않음
	a.service.WithCancellation()

	out := cmd.OutOrStdout()

	done := make(chan struct{})
	printed := make(chan struct{})
	if screenQuiet {
		close(printed)
	} else {
		go func() {
			defer close(printed)
			printProgress(ctx, out, a.service.Progress(), done)
		}()
	}

	result, err := a.service.GetDailyStocks(ctx, screenForce)
	close(done)
	<-printed
	if err != nil {
		return fmt.Errorf("screening failed: %w", err)
	}

	PrintRunSummary(out, result.Run, result.Cached)
	PrintRejections(out, result.Run)
	PrintOpportunities(out, result.Run.Stocks)
	return nil
}

// printProgress echoes every progress change until done
func printProgress(ctx context.Context, w io.Writer, tracker *pipeline.ProgressTracker, done <-chan struct{}) {
	var last uint64
	for {
		state, version, changed := tracker.Watch()
		if version != last && state.Message != "" {
			last = version
			fmt.Fprintf(w, "[%s] %s\n", state.Stage, state.Message)
		}

		select {
		case <-changed:
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}
