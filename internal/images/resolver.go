package images

import (
	"encoding/json"
	"regexp"
	"strings"

	"carauctiongo/internal/models"

	"go.uber.org/zap"
)

// DefaultPlaceholder is returned when every source tier yields nothing.
const DefaultPlaceholder = "/images/cars/default-car.svg"

// Folder prefixes applied to bare relative paths, keyed by the image
// row's category tag. Unknown categories land in the marketplace
// uploads folder, as does every legacy-string entry.
var categoryPrefixes = map[string]string{
	"exterior": "/uploads/vehicles/exterior/",
	"interior": "/uploads/vehicles/interior/",
	"document": "/uploads/documents/",
}

const defaultPrefix = "/uploads/marketplace/"

const adminUploadsPrefix = "/admin/uploads/"

// Hosts that only ever served throwaway stock imagery. Anything
// pointing at them is discarded before the fallback decision.
var throwawayHost = regexp.MustCompile(`(?i)^https?://(www\.)?(via\.placeholder\.com|placehold\.co|placekitten\.com|dummyimage\.com)(/|$)`)

// Resolve normalizes a vehicle's image sources into one ordered list of
// canonical URLs. The first tier yielding at least one valid URL wins:
// structured image rows, then the legacy free-form column, then the
// default placeholder. Malformed input never fails resolution; it
// degrades to the next tier.
func Resolve(v *models.Vehicle) []string {
	if urls := fromStructured(v.Images); len(urls) > 0 {
		return urls
	}
	if urls := fromLegacy(v.LegacyImages); len(urls) > 0 {
		return urls
	}
	zap.L().Debug("images_placeholder_fallback", zap.String("vehicle_id", v.ID))
	return []string{DefaultPlaceholder}
}

func fromStructured(rows []models.VehicleImage) []string {
	urls := make([]string, 0, len(rows))
	for _, row := range rows {
		u := canonicalize(row.URL, prefixFor(row.Category))
		if u == "" {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

func prefixFor(category string) string {
	if p, ok := categoryPrefixes[strings.ToLower(strings.TrimSpace(category))]; ok {
		return p
	}
	return defaultPrefix
}

// legacyKind tags the detected encoding of the free-form images column
// so each format gets its own parser instead of sequential guessing.
type legacyKind int

const (
	legacyEmpty legacyKind = iota
	legacyJSON
	legacyCSV
	legacySingle
)

func classifyLegacy(raw string) (legacyKind, string) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return legacyEmpty, s
	}
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, `"`) {
		return legacyJSON, s
	}
	if strings.Contains(s, ",") {
		return legacyCSV, s
	}
	return legacySingle, s
}

func fromLegacy(raw string) []string {
	kind, s := classifyLegacy(raw)
	var entries []string
	switch kind {
	case legacyEmpty:
		return nil
	case legacyJSON:
		entries = parseLegacyJSON(s)
		if entries == nil {
			// Not actually JSON after all; comma-split is the
			// historical next guess.
			entries = parseLegacyCSV(s)
		}
	case legacyCSV:
		entries = parseLegacyCSV(s)
	case legacySingle:
		entries = []string{s}
	}

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		if u := canonicalize(e, defaultPrefix); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// parseLegacyJSON handles three historical shapes: a JSON array of
// strings, a JSON-encoded single string, and a double-encoded array
// (an array that was stringified twice). Anything unparseable returns
// nil so the caller can fall through.
func parseLegacyJSON(s string) []string {
	var arr []any
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		return stringEntries(arr)
	}

	var inner string
	if err := json.Unmarshal([]byte(s), &inner); err != nil {
		zap.L().Debug("images_legacy_json_unparseable", zap.String("raw", s))
		return nil
	}
	inner = strings.TrimSpace(inner)
	if strings.HasPrefix(inner, "[") {
		if err := json.Unmarshal([]byte(inner), &arr); err == nil {
			return stringEntries(arr)
		}
		zap.L().Debug("images_legacy_double_encoded_unparseable", zap.String("raw", s))
		return nil
	}
	if inner == "" {
		return nil
	}
	return []string{inner}
}

func stringEntries(arr []any) []string {
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func parseLegacyCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// canonicalize turns one raw entry into a servable URL, or "" when the
// entry must be dropped. Absolute http(s) URLs and root-relative paths
// pass through untouched apart from the admin-path rewrite; bare
// relative names get the folder prefix.
func canonicalize(raw, prefix string) string {
	s := strings.TrimSpace(strings.ReplaceAll(raw, `\`, "/"))
	if s == "" {
		return ""
	}
	if throwawayHost.MatchString(s) {
		zap.L().Debug("images_throwaway_discarded", zap.String("url", s))
		return ""
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	if strings.HasPrefix(s, "/") {
		if strings.HasPrefix(s, adminUploadsPrefix) {
			return "/uploads/" + strings.TrimPrefix(s, adminUploadsPrefix)
		}
		return s
	}
	return prefix + s
}
