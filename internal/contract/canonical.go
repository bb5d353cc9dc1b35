package contract

import "strings"

// Canonicalize applies the normalization the loader uses for the contract
// fingerprint: split on line boundaries, right-trim each line, drop lines
// that are empty after trimming, rejoin with "\n" (no trailing newline).
// The event log does not call it; it hashes its own encoding
// (eventlog's canonicalBytes).
//
// This must be byte-identical across implementations — it underwrites the
// contract fingerprint.
// Do not special-case CRLF beyond what strings.Split("\n") already
// does; a file saved with CRLF line endings canonicalizes identically to
// one saved with LF, because the trailing "\r" is whitespace that gets
// right-trimmed.
func Canonicalize(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r\f\v")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}
