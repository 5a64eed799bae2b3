package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// cacheCmd inspects the result cache
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "결과 캐시 조회 / 삭제",
	Long: `결과 캐시를 조회하거나 삭제합니다.

Subcommands:
  show    - 캐시된 실행 정보와 유효성
  clear   - 캐시 삭제 (다음 요청 시 새로 스크리닝)`,
}

var (
	cacheShowCmd = &cobra.Command{
		Use:   "show",
		Short: "캐시된 실행 정보",
		RunE:  showCache,
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "캐시 삭제",
		RunE:  clearCache,
	}
)

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func showCache(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()

	run, found, err := a.cache.Peek(ctx)
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}
	if !found {
		fmt.Fprintf(out, "Cache empty (backend: %s)\n", a.cfg.Screener.CacheBackend)
		return nil
	}

	age := run.Age(time.Now())
	valid := age < a.cache.TTL() && run.HasSurvivors()

	PrintRunSummary(out, run, true)
	PrintKeyValue(out, "Backend", a.cfg.Screener.CacheBackend, 14)
	PrintKeyValue(out, "Age", age.Round(time.Second).String(), 14)
	PrintKeyValue(out, "Valid", fmt.Sprintf("%t (ttl %s)", valid, a.cache.TTL()), 14)
	PrintOpportunities(out, run.Stocks)
	return nil
}

func clearCache(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✅ Cache cleared")
	return nil
}
