package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// EncodeToken creates a base64 encoded keyset token from an entry's date and ID.
// Entries are listed by date descending with the ID as tie-breaker.
func EncodeToken(when time.Time, entryID int64) string {
	tokenStr := fmt.Sprintf("%s|%d", when.Format(timeFormat), entryID)
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses the base64 encoded token back into an entry date and ID.
func DecodeToken(token string) (time.Time, int64, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (split)")
	}

	when, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (date parse): %w", err)
	}

	entryID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (id parse): %w", err)
	}

	return when, entryID, nil
}

// After reports whether the entry (when, id) sorts after the cursor in
// date-descending, ID-descending order.
func After(when time.Time, id int64, cursorWhen time.Time, cursorID int64) bool {
	if when.Equal(cursorWhen) {
		return id < cursorID
	}
	return when.Before(cursorWhen)
}
