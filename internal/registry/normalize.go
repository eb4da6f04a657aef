package registry

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"patchpanel/internal/catalog"
)

// Placeholders used when a fetched record omits a field.
const (
	UnknownAppName    = "Unknown App"
	UntitledPatchName = "Untitled Patch"
	DefaultIcon       = "📦"
	AnyVersion        = "Any"
	DefaultBranch     = "main"
)

// records returns the array elements of a decoded response. A bare array is
// used as is; an object is searched for the first array under one of keys.
func records(data any, keys ...string) []map[string]any {
	var items []any
	switch v := data.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, k := range keys {
			if arr, ok := v[k].([]any); ok {
				items = arr
				break
			}
		}
	}

	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func normalizeApp(obj map[string]any) (catalog.Application, bool) {
	pkg := str(obj["packageName"])
	if pkg == "" {
		return catalog.Application{}, false
	}
	return catalog.Application{
		ID:                 orDefault(str(obj["id"]), uuid.NewString()),
		Name:               orDefault(str(obj["name"]), UnknownAppName),
		Icon:               orDefault(str(obj["icon"]), DefaultIcon),
		IconURL:            httpURL(str(obj["iconUrl"])),
		PackageName:        pkg,
		RecommendedVersion: orDefault(str(obj["recommendedVersion"]), AnyVersion),
	}, true
}

func normalizePatch(obj map[string]any) catalog.Patch {
	return catalog.Patch{
		ID:             orDefault(str(obj["id"]), uuid.NewString()),
		Name:           orDefault(str(obj["name"]), UntitledPatchName),
		Description:    str(obj["description"]),
		Enabled:        false,
		Version:        str(obj["version"]),
		CompatibleApps: strList(obj["compatibleApps"]),
		Status:         catalog.StatusUnknown,
	}
}

func normalizeRepo(obj map[string]any) catalog.SourceRepository {
	return catalog.SourceRepository{
		ID:          orDefault(str(obj["id"]), uuid.NewString()),
		Owner:       str(obj["owner"]),
		Name:        str(obj["name"]),
		Description: str(obj["description"]),
		URL:         httpURL(str(obj["url"])),
		Stars:       count(obj["stars"]),
		LastUpdated: str(obj["lastUpdated"]),
		Branch:      orDefault(str(obj["branch"]), DefaultBranch),
		Official:    boolean(obj["isOfficial"]),
	}
}

// str coerces scalars to a trimmed string. Objects, arrays and null yield "".
func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func strList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, el := range arr {
		switch el.(type) {
		case string, float64:
			if s := str(el); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// count accepts a number or a numeric string such as "1,204" or "3.4k".
func count(v any) int {
	switch t := v.(type) {
	case float64:
		if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int(math.Round(t))
	case string:
		s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(t), ",", ""))
		mult := 1.0
		if strings.HasSuffix(s, "k") {
			mult, s = 1000, strings.TrimSuffix(s, "k")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return count(f * mult)
	default:
		return 0
	}
}

func boolean(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	default:
		return false
	}
}

// httpURL returns raw when it is an absolute http(s) URL with a host.
func httpURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return raw
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
