package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/diyradiolab/FoodPantryParser/internal/config"
	"github.com/diyradiolab/FoodPantryParser/internal/generator"
)

var (
	verbose   bool
	dataDir   string
	outputDir string

	month     int
	year      int
	assumeYes bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fpreport",
	Short: "Food pantry order form reporting",
	Long: `fpreport turns a folder of daily food pantry order form spreadsheets
into the monthly report set: per-agency workbooks, per-day workbooks, a
combined agency overview, and a plain-text period summary.

Run "fpreport instructions" for the monthly routine.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the full report set for one month",
	Long: `Reads every .xlsx order form in the data folder, extracts the orders,
and writes the report set into the output folder:

  <Month><Year>.xlsx              weekday calendar for the period
  all.xlsx                        every extracted order
  ByAgency/<agency>.xlsx          one month per agency, zero-filled
  <Month><Year>AgencyReports.xlsx all agencies side by side
  ByDate/<yyyymmdd>.xlsx          one workbook per order form, with totals
  info.txt                        period summary and missing dates

Forms whose order date cannot be read are skipped with a warning.`,
	RunE: runGenerate,
}

var instructionsCmd = &cobra.Command{
	Use:   "instructions",
	Short: "Print the monthly reporting routine",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(instructionsText)
	},
}

const instructionsText = `Monthly reporting routine
=========================

1. Collect the month's daily order form spreadsheets (.xlsx) into the
   data folder (default: FoodPantryData, see config.toml).
2. Move any reports you want to keep out of the output folder; the
   ByDate and ByAgency subfolders are cleared at the start of each run
   (after a confirmation prompt), and no other output file is ever
   overwritten.
3. Run:  fpreport generate --month <1-12> --year <yyyy>
4. Review warnings about skipped forms and near-duplicate agency names;
   fix the source files and re-run if needed.
5. Check info.txt for period totals and dates with no recorded orders.

Two order forms carrying the same date will collide in ByDate; the run
stops at the duplicate so you can merge or rename the source files.

Cell addresses and column letters of the order form template live in
config.toml next to the executable; edit them there if the template
ever changes.
`

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "source folder with order forms (overrides config.toml)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "out", "", "output folder for reports (overrides config.toml)")

	lastMonth := time.Now().AddDate(0, -1, 0)
	generateCmd.Flags().IntVar(&month, "month", int(lastMonth.Month()), "reporting month (1-12)")
	generateCmd.Flags().IntVar(&year, "year", lastMonth.Year(), "reporting year")
	generateCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to all prompts")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(instructionsCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("invalid month %d: want 1-12", month)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config.toml: %w", err)
	}
	if dataDir != "" {
		cfg.Data.DataDir = dataDir
	}
	if outputDir != "" {
		cfg.Data.OutputDir = outputDir
	}

	confirm := askOperator
	if assumeYes {
		confirm = func(string) bool { return true }
	}

	period := fmt.Sprintf("%s %d", time.Month(month).String(), year)
	if !confirm(fmt.Sprintf("Generate reports for %s from %s?", period, cfg.Data.DataDir)) {
		return fmt.Errorf("run aborted")
	}

	logger.Info("starting reporting run",
		zap.String("period", period),
		zap.String("data_dir", cfg.Data.DataDir),
		zap.String("output_dir", cfg.Data.OutputDir))

	g := generator.New(cfg, logger, time.Month(month), year, confirm)
	return g.Execute()
}

// askOperator prints a yes/no prompt and reads one line from stdin.
func askOperator(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
