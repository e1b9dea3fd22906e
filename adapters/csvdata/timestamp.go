package csvdata

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"psychofit/domain/core"
)

// ParseSessionTimestamp extracts the recording time from a session filename
// like 2AFC_P_20251020_003915.csv (date, then HHMMSS).
func ParseSessionTimestamp(filename string) (core.Timestamp, error) {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(name, "_")
	if len(parts) < 4 {
		return core.Timestamp{}, fmt.Errorf("filename %s has no timestamp fields", base)
	}
	t, err := time.ParseInLocation("20060102_150405", parts[2]+"_"+parts[3], time.Local)
	if err != nil {
		return core.Timestamp{}, fmt.Errorf("filename %s: bad timestamp: %w", base, err)
	}
	return core.NewTimestamp(t), nil
}
