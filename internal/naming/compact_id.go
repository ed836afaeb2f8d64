// Package naming generates and validates the identifiers modelops writes into
// cluster object names, label values and registry rows.
package naming

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	compactTimeChars = 7
	compactRandChars = 5
	// CompactIDLength is the length of IDs returned by NewCompactID.
	CompactIDLength = compactTimeChars + compactRandChars
)

var (
	compactTimeLimit = int64(78364164096)   // 36^7
	compactRandLimit = big.NewInt(60466176) // 36^5
)

// NewCompactID returns a lowercase base36 ID of CompactIDLength characters:
// the UTC unix second in 7 characters followed by 5 random characters. IDs
// sort by creation second and are valid DNS-1123 label fragments.
func NewCompactID() (string, error) {
	return compactIDAt(time.Now().UTC())
}

func compactIDAt(now time.Time) (string, error) {
	ts := now.Unix()
	if ts < 0 || ts >= compactTimeLimit {
		return "", fmt.Errorf("timestamp %d outside compact ID range", ts)
	}
	n, err := rand.Int(rand.Reader, compactRandLimit)
	if err != nil {
		return "", fmt.Errorf("generate random suffix: %w", err)
	}
	return pad36(ts, compactTimeChars) + pad36(n.Int64(), compactRandChars), nil
}

func pad36(v int64, width int) string {
	s := strconv.FormatInt(v, 36)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}
