// Command export dumps the report collection as CSV, in the same column
// order the API's export endpoint uses.
//
// Usage:
//
//	go run ./cmd/export -store civicfix.db -out reports.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/civicfix/report-service/internal/domain"
	"github.com/civicfix/report-service/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	storePath := flag.String("store", "civicfix.db", "sqlite file to read")
	out := flag.String("out", "", "output path; stdout when empty")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(*storePath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	reports, err := st.Reports(context.Background())
	if err != nil {
		return err
	}
	csv, err := domain.ReportsCSV(reports)
	if err != nil {
		return err
	}

	if *out == "" {
		fmt.Print(csv)
		return nil
	}
	if err := os.WriteFile(*out, []byte(csv), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d reports to %s\n", len(reports), *out)
	return nil
}
