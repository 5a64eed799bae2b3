package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-screener/internal/export"
)

// exportCmd writes the cached shortlist to a spreadsheet
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "마지막 스크리닝 결과를 XLSX로 저장",
	Long: `캐시에 저장된 마지막 스크리닝 결과를 엑셀 파일로 내보냅니다.
TTL이 지난 결과도 내보낼 수 있습니다 (Summary 시트의 Timestamp 확인).

Example:
  go run ./cmd/screener export --out shortlist.xlsx`,
	RunE: runExport,
}

var exportOut string

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "screening.xlsx", "출력 파일 경로")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	run, found, err := a.cache.Peek(ctx)
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}
	if !found {
		return fmt.Errorf("no cached screening run, run `screener screen` first")
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", exportOut, err)
	}

	if err := export.WriteXLSX(f, run); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", exportOut, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Exported %d stocks (run %s) to %s\n", len(run.Stocks), run.RunID, exportOut)
	return nil
}
