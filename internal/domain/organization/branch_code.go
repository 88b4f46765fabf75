package organization

import (
	"fmt"
	"strconv"
)

// NextBranchCode returns the highest numeric code plus one, zero-padded to
// three digits. Non-numeric codes count as zero, so an empty or fully
// non-numeric list yields "001". Concurrent callers may get the same code.
func NextBranchCode(codes []string) string {
	highest := 0
	for _, code := range codes {
		n, err := strconv.Atoi(code)
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%03d", highest+1)
}
