package lib

import (
	"regexp"
	"strings"
)

const microcenterBase = "https://www.microcenter.com"

var (
	// Microcenter requires both the product number and the slug.
	productPath = regexp.MustCompile(`/product/(\d+)/(.+)`)
	storeNumber = regexp.MustCompile(`^\d{3}$`)
)

// NormalizeLocator turns user input into a full product URL. It accepts a
// full Microcenter URL or a /product/<id>/<slug> path and rejects anything
// missing the slug.
func NormalizeLocator(input string) (string, bool) {
	input = strings.TrimSpace(input)

	if strings.HasPrefix(input, microcenterBase+"/product/") {
		if productPath.MatchString(input) {
			return input, true
		}
		return "", false
	}

	if strings.HasPrefix(input, "/product/") {
		if productPath.MatchString(input) {
			return microcenterBase + input, true
		}
		return "", false
	}

	return "", false
}

// ValidStoreID accepts 3-digit store numbers like 131, 065, 121.
func ValidStoreID(storeID string) bool {
	return storeNumber.MatchString(storeID)
}
