// Package main provides the verify command that checks a signed lead report
// against its metadata hash.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Leanito/Leadsrecptives/internal/formatter"
	"github.com/Leanito/Leadsrecptives/pkg/metadata"
)

func main() {
	reportPath := flag.String("report", "", "Path to a generated report (e.g., output/relatorio_leads.md)")
	reformat := flag.Bool("format", false, "Realign report tables and re-sign before verifying")
	flag.Parse()

	if *reportPath == "" {
		fmt.Println("Usage: verify -report <path> [-format]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	contentBytes, err := os.ReadFile(*reportPath)
	if err != nil {
		log.Fatalf("Error reading file: %v\n", err)
	}

	content := string(contentBytes)
	fmt.Printf("📂 Reading: %s (%d bytes)\n", *reportPath, len(content))

	if *reformat {
		fmt.Println("🧹 Realigning tables...")

		content, err = formatter.FormatMarkdown(content)
		if err != nil {
			log.Fatalf("❌ Format failed: %v\n", err)
		}

		if err := os.WriteFile(*reportPath, []byte(content), 0644); err != nil {
			log.Fatalf("Error writing file: %v\n", err)
		}
	}

	meta, err := metadata.Verify(content)
	if err != nil {
		log.Fatalf("❌ Verification failed: %v\n", err)
	}

	fmt.Println("✅ Signature valid")
	fmt.Printf("🔖 Run: %s\n", meta.RunID)
	fmt.Printf("📄 Source: %s\n", meta.Source)
	fmt.Printf("🕒 Generated: %s\n", meta.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
}
