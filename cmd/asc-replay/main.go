// Package main — cmd/asc-replay/main.go
//
// asc-replay is an offline evidence-exporter for a kernel's hash-chained
// event log. It opens a BoltDB-backed log through eventlog.Open, walks the
// chain, verifies every link, and prints a report. It is the tool an investigator
// reaches for after an incident: does this ledger's tip hash actually
// commit to every record it claims to, in order, unmodified.
//
// Usage:
//
//	asc-replay -db /var/lib/asc-kernel/eventlog.db
//	asc-replay -db /var/lib/asc-kernel/eventlog.db -json
//
// Exit codes: 0 if the chain verifies intact, 1 on a broken link or I/O
// failure. asc-replay appends no records and changes none, but the database
// is not opened read-only: eventlog.Open opens it read-write and creates
// the file, its buckets and its schema_version key when they are missing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ascsys/asc-kernel/internal/eventlog"
)

type report struct {
	Path        string         `json:"path"`
	RecordCount int            `json:"record_count"`
	TipHash     string         `json:"tip_hash"`
	Intact      bool           `json:"intact"`
	BrokenAt    int            `json:"broken_at,omitempty"`
	Verdicts    map[string]int `json:"verdicts"`
	Reasons     map[string]int `json:"reasons"`
}

func main() {
	dbPath := flag.String("db", "", "Path to the BoltDB event log to verify (required)")
	asJSON := flag.Bool("json", false, "Emit the report as JSON instead of plain text")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "asc-replay: -db is required")
		os.Exit(1)
	}

	log, err := eventlog.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "asc-replay: open %q: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer log.Close() //nolint:errcheck

	records := log.Records()
	brokenAt := log.VerifyChain()

	rep := report{
		Path:        *dbPath,
		RecordCount: len(records),
		TipHash:     log.TipHash(),
		Intact:      brokenAt < 0,
		Verdicts:    map[string]int{},
		Reasons:     map[string]int{},
	}
	if brokenAt >= 0 {
		rep.BrokenAt = brokenAt
	}
	for _, rec := range records {
		rep.Verdicts[rec.Payload.Verdict.String()]++
		for _, r := range rec.Payload.Reasons {
			rep.Reasons[string(r)]++
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(os.Stderr, "asc-replay: encode report: %v\n", err)
			os.Exit(1)
		}
	} else {
		printReport(rep)
	}

	if !rep.Intact {
		os.Exit(1)
	}
}

func printReport(rep report) {
	fmt.Printf("event log:     %s\n", rep.Path)
	fmt.Printf("records:       %d\n", rep.RecordCount)
	fmt.Printf("tip hash:      %s\n", rep.TipHash)
	if rep.Intact {
		fmt.Println("chain:         intact")
	} else {
		fmt.Printf("chain:         BROKEN at record index %d\n", rep.BrokenAt)
	}
	fmt.Println("verdicts:")
	for _, v := range []string{"Allow", "Clamp", "Hold", "Override", "Shutdown"} {
		if n, ok := rep.Verdicts[v]; ok {
			fmt.Printf("  %-10s %d\n", v, n)
		}
	}
	if len(rep.Reasons) > 0 {
		fmt.Println("reasons:")
		for reason, n := range rep.Reasons {
			fmt.Printf("  %-28s %d\n", reason, n)
		}
	}
}
