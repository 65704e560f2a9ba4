package export

import "strings"

// MaskPersonalNumber masks the last four digits of a Swedish personal
// number for rendering: "YYMMDD-XXXX" becomes "YYMMDD-****". Twelve-digit
// forms ("YYYYMMDD-XXXX") mask the same trailing block. Strings without a
// separator are returned unchanged - better an unmasked oddity a reviewer
// notices than a mangled identifier nobody can trace.
func MaskPersonalNumber(pnr string) string {
	idx := strings.LastIndexAny(pnr, "-+")
	if idx < 0 || idx == len(pnr)-1 {
		return pnr
	}
	return pnr[:idx+1] + strings.Repeat("*", len(pnr)-idx-1)
}
