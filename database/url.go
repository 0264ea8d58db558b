package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL combines a base URL and a database name.
// sslmode=disable is appended when the URL does not set an sslmode, and
// existing query parameters are preserved.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	baseURL = strings.TrimRight(baseURL, "/")

	var databaseURL string
	if base, query, found := strings.Cut(baseURL, "?"); found {
		databaseURL = fmt.Sprintf("%s/%s?%s", strings.TrimRight(base, "/"), databaseName, query)
	} else {
		databaseURL = fmt.Sprintf("%s/%s", baseURL, databaseName)
	}

	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "&"
		if !strings.Contains(databaseURL, "?") {
			separator = "?"
		}
		databaseURL = fmt.Sprintf("%s%ssslmode=disable", databaseURL, separator)
	}

	return databaseURL
}
