package eventlog

import (
	"strconv"
	"strings"
)

// canonicalBytes produces the byte string fed into SHA-256 for one event.
// The encoding is deliberately not JSON or any library-default serializer:
// field order, integer and float formatting, and enum spelling are pinned
// explicitly so two independent implementations produce byte-identical log
// bytes. Pin this encoding — do not "simplify" it to a generic marshaler
// later.
//
//   - integers: decimal, no leading zeros (strconv.FormatUint base 10)
//   - floats: full round-trip precision via strconv.FormatFloat(-1), which
//     also keeps -0 and 0 distinct exactly when the inputs are
//   - enums: symbolic names (Verdict.String(), ReasonCode's own string value)
//   - field ordering: fixed
//   - no insignificant whitespace beyond the single '\n' field separators below
func canonicalBytes(seq uint64, out Output, prevHash string) []byte {
	var b strings.Builder

	b.WriteString("seq:")
	b.WriteString(strconv.FormatUint(seq, 10))
	b.WriteByte('\n')

	b.WriteString("verdict:")
	b.WriteString(out.Verdict.String())
	b.WriteByte('\n')

	b.WriteString("reasons:[")
	for i, r := range out.Reasons {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(r))
	}
	b.WriteString("]\n")

	b.WriteString("rates:[")
	for i, r := range out.Command.AppliedRatesDPS {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(formatFloat(r))
	}
	b.WriteString("]\n")

	b.WriteString("climb:")
	b.WriteString(formatFloat(out.Command.AppliedClimbMPS))
	b.WriteByte('\n')

	b.WriteString("shutdown:")
	b.WriteString(strconv.FormatBool(out.Command.Shutdown))
	b.WriteByte('\n')

	b.WriteString("fingerprint:")
	b.WriteString(out.ContractFingerprint)
	b.WriteByte('\n')

	b.WriteString("prev:")
	b.WriteString(prevHash)

	return []byte(b.String())
}

// formatFloat renders f with the shortest representation that round-trips
// exactly. strconv's 'g'/-1 formatter already keeps -0 and 0 distinct and
// renders NaN/±Inf deterministically.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
