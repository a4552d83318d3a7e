package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mealdex/mealdex/core/config"
	"github.com/mealdex/mealdex/core/food"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Search as you type; each line is debounced like a keystroke stream",
	Long: `Reads queries line by line and issues them through the debounced
interactive path. Lines typed in quick succession supersede each other;
only the most recent one inside the quiet window reaches the providers.

Commands: /stats prints engine diagnostics, /quit exits.`,
	RunE: runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.Logging, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	var printMu sync.Mutex
	onResult := func(results []food.RankedResult) {
		printMu.Lock()
		defer printMu.Unlock()
		printResults(cmd, "", results)
		fmt.Fprint(os.Stdout, "> ")
	}

	cmd.Println("mealdex interactive search (/stats, /quit)")
	fmt.Fprint(os.Stdout, "> ")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			fmt.Fprint(os.Stdout, "> ")
		case "/quit", "/q":
			return nil
		case "/stats":
			stats := eng.Stats()
			cmd.Printf("cache=%d in-flight=%d pending-debounce=%d\n",
				stats.CacheSize, stats.InFlightCount, stats.PendingDebounce)
			fmt.Fprint(os.Stdout, "> ")
		default:
			eng.SearchDebounced(line, onResult)
		}
	}
	return scanner.Err()
}
