// Package normalize maps heterogeneous provider JSON items into the
// canonical BusinessRecord schema. Field precedence is an explicit ordered
// alias list per field, evaluated by a small first-present combinator.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/model"
)

// MapItem converts one raw provider item into a BusinessRecord. It never
// fails: unmappable fields degrade to their zero values and an item whose
// name and place_id both resolve empty is logged, not dropped, so output
// count always matches input count.
func MapItem(item map[string]any) model.BusinessRecord {
	name := firstString(item, "title", "name", "businessName")
	placeID := firstString(item, "placeId", "place_id")

	types := resolveTypes(item)
	categories := resolveCategories(item, types)

	var primaryType *string
	if len(types) > 0 {
		primaryType = &types[0]
	}

	location, _ := item["location"].(map[string]any)

	rec := model.BusinessRecord{
		Name:        name,
		PlaceID:     placeID,
		Types:       types,
		PrimaryType: primaryType,
		Categories:  categories,

		BusinessStatus: resolveBusinessStatus(item),
		GoogleMapsURL:  firstNonEmptyStr(item, "googleMapsUrl", "googleMapsUri", "placeUrl", "url"),

		FormattedAddress: resolveFormattedAddress(item, location),
		Latitude:         resolveCoordinate(item, location, "lat", "latitude"),
		Longitude:        resolveCoordinate(item, location, "lng", "longitude"),
		City:             stringPtr(item["city"]),
		State:            stringPtr(item["state"]),
		Country:          firstStringPtr(item, "country", "countryName", "countryCode"),
		PostalCode:       firstStringPtr(item, "postalCode", "zip"),

		FormattedPhoneNumber:     firstStringPtr(item, "phone", "phoneNumber"),
		InternationalPhoneNumber: firstStringPtr(item, "internationalPhoneNumber", "phoneUnformatted", "internationalPhone"),
		Website:                  firstStringPtr(item, "website", "domain"),

		Rating:           firstFloatPtr(item, "rating", "stars", "totalScore"),
		UserRatingsTotal: firstIntPtr(item, "reviewsCount", "reviewCount", "totalReviews", "user_ratings_total"),
		PriceLevel:       firstStringPtr(item, "priceLevel", "price"),

		Photos: resolvePhotos(item),

		Neighborhood:        stringPtr(item["neighborhood"]),
		Street:              stringPtr(item["street"]),
		ClaimThisBusiness:   boolPtr(item["claimThisBusiness"]),
		Rank:                intPtr(item["rank"]),
		ImageURL:            stringPtr(item["imageUrl"]),
		ImagesCount:         intPtr(item["imagesCount"]),
		ReviewsDistribution: item["reviewsDistribution"],
		TemporarilyClosed:   boolPtr(item["temporarilyClosed"]),
		PermanentlyClosed:   boolPtr(item["permanentlyClosed"]),
		IsAdvertisement:     boolPtr(item["isAdvertisement"]),
		CID:                 stringPtr(item["cid"]),
		FID:                 stringPtr(item["fid"]),
		KGMID:               stringPtr(item["kgmid"]),
		SearchString:        stringPtr(item["searchString"]),
		SearchPageURL:       stringPtr(item["searchPageUrl"]),
		ScrapedAt:           stringPtr(item["scrapedAt"]),
		AdditionalInfo:      item["additionalInfo"],
	}

	rec.OpeningHours, rec.OpeningHoursRaw = resolveOpeningHours(item)

	if rec.Name == "" && rec.PlaceID == "" {
		zap.L().Warn("normalize: item mapped with empty name and place_id",
			zap.Strings("item_keys", mapKeys(item)),
		)
	}

	return rec
}

// MapItems maps every item, preserving 1:1 item-to-record correspondence.
func MapItems(items []map[string]any) []model.BusinessRecord {
	records := make([]model.BusinessRecord, 0, len(items))
	for _, item := range items {
		records = append(records, MapItem(item))
	}
	return records
}

// resolveTypes applies types → type (bare string wrapped) → singleton
// category fallback → empty list.
func resolveTypes(item map[string]any) []string {
	if types := toStringSlice(item["types"]); len(types) > 0 {
		return types
	}
	if types := toStringSlice(item["type"]); len(types) > 0 {
		return types
	}
	if category := firstString(item, "categoryName", "category"); category != "" {
		return []string{category}
	}
	return []string{}
}

// resolveCategories prefers an explicit categories field, falling back to the
// already-resolved types.
func resolveCategories(item map[string]any, types []string) []string {
	if categories := toStringSlice(item["categories"]); len(categories) > 0 {
		return categories
	}
	if len(types) > 0 {
		return types
	}
	return []string{}
}

// resolveCoordinate checks the flat key pair first, then the nested location
// object. Missing or unparseable values yield 0, never null, to keep
// downstream consumers numeric-safe.
func resolveCoordinate(item, location map[string]any, short, long string) float64 {
	for _, v := range []any{item[short], item[long]} {
		if f, ok := toFloat(v); ok {
			return f
		}
	}
	if location != nil {
		for _, v := range []any{location[short], location[long]} {
			if f, ok := toFloat(v); ok {
				return f
			}
		}
	}
	return 0
}

func resolveFormattedAddress(item, location map[string]any) *string {
	candidates := []any{
		item["formattedAddress"],
		item["address"],
		item["fullAddress"],
		item["streetAddress"],
	}
	if location != nil {
		candidates = append(candidates, location["formattedAddress"], location["address"])
	}
	// A bare string under "location" is itself an address.
	if s, ok := item["location"].(string); ok {
		candidates = append(candidates, s)
	}
	for _, v := range candidates {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return &s
		}
	}
	return nil
}

// resolvePhotos accepts imageUrls/images/photoUrls/photos in scalar, string
// list, or object list form, extracting URLs and dropping unresolvable
// entries. A lone imageUrl field is the last resort.
func resolvePhotos(item map[string]any) []string {
	var raw any
	for _, key := range []string{"imageUrls", "images", "photoUrls", "photos"} {
		if v, ok := item[key]; ok && v != nil {
			raw = v
			break
		}
	}

	var entries []any
	switch v := raw.(type) {
	case nil:
	case []any:
		entries = v
	default:
		entries = []any{v}
	}

	var photos []string
	for _, entry := range entries {
		switch e := entry.(type) {
		case string:
			photos = append(photos, e)
		case map[string]any:
			if u := firstString(e, "url", "photoUrl", "imageUrl"); u != "" {
				photos = append(photos, u)
			}
		}
	}
	photos = dedupeStrings(photos)

	if len(photos) == 0 {
		if u, ok := item["imageUrl"].(string); ok && u != "" {
			return []string{u}
		}
		return nil
	}
	return photos
}

// resolveOpeningHours maps a dict-shaped openingHours onto the canonical
// {open_now, weekday_text} pair, and synthesizes "Day: Hours" lines from the
// list-of-pairs shape. The original list is retained separately for
// list-shaped input only.
func resolveOpeningHours(item map[string]any) (*model.OpeningHours, []any) {
	switch raw := item["openingHours"].(type) {
	case map[string]any:
		hours := &model.OpeningHours{}
		if openNow, ok := raw["openNow"].(bool); ok {
			hours.OpenNow = &openNow
		}
		hours.WeekdayText = toStringSlice(raw["weekdayText"])
		return hours, nil
	case []any:
		var weekdayText []string
		for _, entry := range raw {
			pair, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			day, _ := pair["day"].(string)
			hoursText, _ := pair["hours"].(string)
			if day != "" && hoursText != "" {
				weekdayText = append(weekdayText, day+": "+hoursText)
			}
		}
		return &model.OpeningHours{WeekdayText: weekdayText}, raw
	default:
		return nil, nil
	}
}

// resolveBusinessStatus prefers an explicit businessStatus/status, then
// derives from boolean closure flags, defaulting to OPERATIONAL.
func resolveBusinessStatus(item map[string]any) model.BusinessStatus {
	if status := firstString(item, "businessStatus", "status"); status != "" {
		return model.BusinessStatus(status)
	}
	if closed, ok := item["permanentlyClosed"].(bool); ok && closed {
		return model.StatusClosedPermanently
	}
	if closed, ok := item["temporarilyClosed"].(bool); ok && closed {
		return model.StatusClosedTemporarily
	}
	return model.StatusOperational
}

// --- first-present combinators and coercion helpers ---

// firstPresent returns the first non-nil value among the named keys.
func firstPresent(item map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := item[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(item map[string]any, keys ...string) string {
	if s, ok := firstPresent(item, keys...).(string); ok {
		return s
	}
	return ""
}

func firstStringPtr(item map[string]any, keys ...string) *string {
	return stringPtr(firstPresent(item, keys...))
}

func firstNonEmptyStr(item map[string]any, keys ...string) *string {
	for _, key := range keys {
		if s, ok := item[key].(string); ok && strings.TrimSpace(s) != "" {
			return &s
		}
	}
	return nil
}

func firstFloatPtr(item map[string]any, keys ...string) *float64 {
	if f, ok := toFloat(firstPresent(item, keys...)); ok {
		return &f
	}
	return nil
}

func firstIntPtr(item map[string]any, keys ...string) *int {
	if f, ok := toFloat(firstPresent(item, keys...)); ok {
		n := int(f)
		return &n
	}
	return nil
}

func stringPtr(v any) *string {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return &s
	case float64:
		// Numeric IDs (cid and friends) arrive as JSON numbers.
		formatted := strconv.FormatFloat(s, 'f', -1, 64)
		return &formatted
	default:
		formatted := fmt.Sprint(v)
		return &formatted
	}
}

func boolPtr(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

func intPtr(v any) *int {
	if f, ok := toFloat(v); ok {
		n := int(f)
		return &n
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toStringSlice coerces a bare string into a single-element list and filters
// non-string entries out of mixed lists.
func toStringSlice(v any) []string {
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	case []any:
		var out []string
		for _, entry := range s {
			if str, ok := entry.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case []string:
		return s
	default:
		return nil
	}
}

func dedupeStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func mapKeys(item map[string]any) []string {
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	return keys
}
