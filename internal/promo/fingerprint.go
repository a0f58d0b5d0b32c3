package promo

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
)

// Fingerprint returns a stable content hash of a solve's inputs, used by
// the calling layer to memoize results across identical requests. Row order
// does not affect the fingerprint; any field or budget change does.
func Fingerprint(summaries []ProductSummary, budget float64) string {
	rows := make([]ProductSummary, len(summaries))
	copy(rows, summaries)
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProductID < rows[j].ProductID })

	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, r := range rows {
		// Encoder output is deterministic for a fixed struct definition.
		_ = enc.Encode(r)
	}
	h.Write([]byte(strconv.FormatFloat(budget, 'g', -1, 64)))
	return hex.EncodeToString(h.Sum(nil))
}
