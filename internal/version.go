package internal

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Version is the marghivasal release version
const Version = "0.3.0"

// GenerateRecordID creates a unique ID for a history record from its
// creation time and source text.
// Format: epochMillis_md5(text)[:8]
func GenerateRecordID(at time.Time, sourceText string) string {
	hash := md5.Sum([]byte(sourceText))
	return fmt.Sprintf("%d_%s", at.UnixMilli(), hex.EncodeToString(hash[:])[:8])
}
