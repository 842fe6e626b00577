// Package main provides the markdown report command-line tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"enrprod/internal/analytics"
	"enrprod/internal/config"
	"enrprod/internal/formatter"
	"enrprod/internal/logger"
	"enrprod/internal/pipeline"
)

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)

	return nil
}

func main() {
	// Define command-line flags
	configFile := flag.String("config", "configs/enrprod.yaml", "Path to YAML configuration file")
	inputPath := flag.String("input", "", "Source CSV (overrides dataset.path)")
	title := flag.String("title", "", "Report title")
	top := flag.Int("top", 5, "Number of regions in the ranking (0 for all)")
	yearMin := flag.Int("year-min", 0, "First year included (0 for no bound)")
	yearMax := flag.Int("year-max", 0, "Last year included (0 for no bound)")
	outPath := flag.String("out", "", "Write the report to this file instead of stdout")
	alignPath := flag.String("align", "", "Re-align the tables of markdown files under this path instead of reporting")
	write := flag.Bool("write", false, "With -align, write changes to files (default: dry-run)")
	help := flag.Bool("help", false, "Show usage information")

	var energyTypes, regions multiFlag

	flag.Var(&energyTypes, "energy-type", "Energy type to include (repeatable)")
	flag.Var(&regions, "region", "Region to include (repeatable)")

	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	if *alignPath != "" {
		os.Exit(align(*alignPath, *write))
	}

	cfg, err := config.LoadOrDefault(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v\n", err)
	}

	if *inputPath != "" {
		cfg.Dataset.Path = *inputPath
	}

	filter := analytics.Filter{EnergyTypes: energyTypes, Regions: regions}
	if *yearMin != 0 {
		filter.YearMin = yearMin
	}

	if *yearMax != 0 {
		filter.YearMax = yearMax
	}

	if err := filter.Validate(); err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	ds, err := pipeline.NewFromConfig(cfg, logger.New("warn", cfg.Logging.Format, os.Stderr), nil).
		Build(context.Background(), cfg.Dataset.Path)
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	report := formatter.Report(filter.Apply(ds.Observations), formatter.ReportOptions{Title: *title, TopN: *top})

	if *outPath == "" {
		fmt.Print(report)
		return
	}

	if err := os.WriteFile(*outPath, []byte(report), 0644); err != nil {
		log.Fatalf("❌ Failed to write report: %v\n", err)
	}

	fmt.Printf("✅ Report written to %s\n", *outPath)
}

// align re-aligns every markdown file under root and returns the exit code.
func align(root string, write bool) int {
	fmt.Printf("📂 Scanning path: %s\n", root)

	if write {
		fmt.Println("✍️  Write mode ENABLED (files will be modified)")
	} else {
		fmt.Println("👀 Dry-run mode (no changes will be written)")
	}

	fmt.Println()

	count := 0
	changed := 0
	failures := 0

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("❌ Error accessing path %s: %v\n", path, err)

			failures++

			return nil
		}

		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && info.Name() != "." {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.ToLower(filepath.Ext(path)) != ".md" {
			return nil
		}

		count++

		wasChanged, procErr := alignFile(path, write)

		switch {
		case procErr != nil:
			fmt.Printf("❌ Failed to process %s: %v\n", path, procErr)

			failures++
		case wasChanged && write:
			changed++

			fmt.Printf("✅ Aligned: %s\n", path)
		case wasChanged:
			changed++

			fmt.Printf("📝 Would align: %s\n", path)
		}

		return nil
	})
	if err != nil {
		log.Printf("❌ Error walking path: %v\n", err)

		return 1
	}

	fmt.Println("\n----------------------------------------------------------------")
	fmt.Printf("📈 Summary:\n")
	fmt.Printf("  Scanned: %d files\n", count)
	fmt.Printf("  Changed: %d files\n", changed)
	fmt.Printf("  Errors:  %d\n", failures)

	if failures > 0 || (changed > 0 && !write) {
		if !write {
			fmt.Println("\n💡 Run with -write to apply changes.")
		}

		return 1
	}

	return 0
}

func alignFile(path string, write bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	original := string(content)

	formatted := formatter.FormatMarkdown(original)
	if formatted == original {
		return false, nil
	}

	if write {
		if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
			return false, err
		}
	}

	return true, nil
}

func printUsage() {
	fmt.Println("Usage: ./bin/formatter [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ./bin/formatter -input data/prod-region-annuelle-enr.csv -top 3")
	fmt.Println("  ./bin/formatter -region Bretagne -year-min 2015 -out bretagne.md")
	fmt.Println("  ./bin/formatter -align docs -write")
}
