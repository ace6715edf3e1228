package places

import "github.com/leadgrid/leadgen/internal/model"

// mapPlace merges one search-result place with its detail record into the
// canonical schema. Search fields win; details fill the gaps and carry the
// contact, address-component, and opening-hours data the search field mask
// does not return.
func mapPlace(place, details map[string]any) model.BusinessRecord {
	types := stringSlice(place["types"])
	if len(types) == 0 {
		types = stringSlice(details["types"])
	}
	var primaryType *string
	if len(types) > 0 {
		primaryType = &types[0]
	}

	record := model.BusinessRecord{
		Name:        displayName(place["displayName"], details["displayName"]),
		PlaceID:     firstString(place["id"], details["id"]),
		Types:       types,
		PrimaryType: primaryType,
		Categories:  types,

		BusinessStatus: model.BusinessStatus(firstString(place["businessStatus"], details["businessStatus"])),
		GoogleMapsURL:  firstStringPtr(place["googleMapsUri"], details["googleMapsUri"]),

		FormattedAddress: firstStringPtr(place["formattedAddress"], details["formattedAddress"]),

		FormattedPhoneNumber:     firstStringPtr(details["nationalPhoneNumber"]),
		InternationalPhoneNumber: firstStringPtr(details["internationalPhoneNumber"]),
		Website:                  firstStringPtr(details["websiteUri"]),

		Rating:           firstFloatPtr(place["rating"], details["rating"]),
		UserRatingsTotal: firstIntPtr(place["userRatingCount"], details["userRatingCount"]),
		PriceLevel:       firstStringPtr(place["priceLevel"], details["priceLevel"]),
	}

	record.Latitude, record.Longitude = coordinate(place["location"], details["location"])
	record.City, record.State, record.Country, record.PostalCode = addressParts(details["addressComponents"])
	record.OpeningHours = openingHours(details["regularOpeningHours"], details["currentOpeningHours"])
	record.Photos = photoRefs(details["photos"], place["photos"])

	return record
}

// displayName unwraps {"text": ...} display names, first non-empty wins.
func displayName(values ...any) string {
	for _, v := range values {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := m["text"].(string); ok && text != "" {
			return text
		}
	}
	return ""
}

func coordinate(values ...any) (float64, float64) {
	for _, v := range values {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		lat, latOK := m["latitude"].(float64)
		lng, lngOK := m["longitude"].(float64)
		if latOK && lngOK {
			return lat, lng
		}
	}
	return 0, 0
}

// addressParts walks Places addressComponents. locality or postal_town
// yields the city; later components of the same type overwrite earlier ones.
func addressParts(value any) (city, state, country, postalCode *string) {
	components, ok := value.([]any)
	if !ok {
		return nil, nil, nil, nil
	}

	for _, c := range components {
		component, ok := c.(map[string]any)
		if !ok {
			continue
		}
		text, _ := component["longText"].(string)
		if text == "" {
			text, _ = component["shortText"].(string)
		}
		if text == "" {
			continue
		}
		types := stringSlice(component["types"])
		switch {
		case hasType(types, "locality") || hasType(types, "postal_town"):
			city = &text
		case hasType(types, "administrative_area_level_1"):
			state = &text
		case hasType(types, "country"):
			country = &text
		case hasType(types, "postal_code"):
			postalCode = &text
		}
	}
	return city, state, country, postalCode
}

// openingHours prefers regular hours, falling back per-field to current
// hours.
func openingHours(regular, current any) *model.OpeningHours {
	regularMap, _ := regular.(map[string]any)
	currentMap, _ := current.(map[string]any)
	if regularMap == nil && currentMap == nil {
		return nil
	}

	hours := &model.OpeningHours{}
	if openNow, ok := regularMap["openNow"].(bool); ok {
		hours.OpenNow = &openNow
	} else if openNow, ok := currentMap["openNow"].(bool); ok {
		hours.OpenNow = &openNow
	}

	hours.WeekdayText = stringSlice(regularMap["weekdayDescriptions"])
	if len(hours.WeekdayText) == 0 {
		hours.WeekdayText = stringSlice(currentMap["weekdayDescriptions"])
	}

	if hours.OpenNow == nil && len(hours.WeekdayText) == 0 {
		return nil
	}
	return hours
}

// photoRefs collects photo names from the first source that has any.
func photoRefs(sources ...any) []string {
	for _, source := range sources {
		photos, ok := source.([]any)
		if !ok || len(photos) == 0 {
			continue
		}
		var refs []string
		for _, p := range photos {
			photo, ok := p.(map[string]any)
			if !ok {
				continue
			}
			ref, _ := photo["name"].(string)
			if ref == "" {
				ref, _ = photo["photoReference"].(string)
			}
			if ref != "" {
				refs = append(refs, ref)
			}
		}
		if len(refs) > 0 {
			return refs
		}
	}
	return nil
}

func firstString(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstStringPtr(values ...any) *string {
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			s := s
			return &s
		}
	}
	return nil
}

func firstFloatPtr(values ...any) *float64 {
	for _, v := range values {
		if f, ok := v.(float64); ok {
			f := f
			return &f
		}
	}
	return nil
}

func firstIntPtr(values ...any) *int {
	for _, v := range values {
		if f, ok := v.(float64); ok {
			i := int(f)
			return &i
		}
	}
	return nil
}

func stringSlice(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func hasType(types []string, target string) bool {
	for _, t := range types {
		if t == target {
			return true
		}
	}
	return false
}
