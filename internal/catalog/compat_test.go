package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var (
	youtube = Application{ID: "youtube", Name: "YouTube", PackageName: "com.google.android.youtube"}
	beta    = Application{ID: "beta", Name: "Example Beta", PackageName: "com.example.app.beta"}
	other   = Application{ID: "other", Name: "Other", PackageName: "com.other.app"}
)

func ids(patches []Patch) []string {
	out := make([]string, 0, len(patches))
	for _, p := range patches {
		out = append(out, p.ID)
	}
	return out
}

func TestResolveCompatible_UniversalPatches(t *testing.T) {
	statuses := []CompatibilityStatus{"", StatusUnknown, StatusVerified, StatusWarning}
	for _, st := range statuses {
		for _, app := range []Application{youtube, beta, other} {
			patches := []Patch{
				{ID: "nil-list", Status: st},
				{ID: "empty-list", Status: st, CompatibleApps: []string{}},
			}
			got := ResolveCompatible(patches, app)
			assert.Equal(t, []string{"nil-list", "empty-list"}, ids(got), "status=%q app=%s", st, app.ID)
		}
	}
}

func TestResolveCompatible_IncompatibleAlwaysExcluded(t *testing.T) {
	patches := []Patch{
		{ID: "a", Status: StatusIncompatible},
		{ID: "b", Status: StatusIncompatible, CompatibleApps: []string{"com.google.android.youtube"}},
		{ID: "c", Status: StatusIncompatible, CompatibleApps: []string{"com"}},
	}
	for _, app := range []Application{youtube, beta, other} {
		assert.Empty(t, ResolveCompatible(patches, app))
	}
}

func TestResolveCompatible_SubstringMatching(t *testing.T) {
	p := Patch{ID: "example", CompatibleApps: []string{"com.example.app"}}

	tests := []struct {
		name string
		app  Application
		want []string
	}{
		{"suffix variant matches", beta, []string{"example"}},
		{"case-insensitive", Application{PackageName: "COM.Example.App"}, []string{"example"}},
		{"unrelated package excluded", other, []string{}},
		{"similar prefix still matches", Application{PackageName: "com.example.app2"}, []string{"example"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(ResolveCompatible([]Patch{p}, tt.app))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ResolveCompatible mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveCompatible_PreservesOrderAndInput(t *testing.T) {
	patches := []Patch{
		{ID: "z", CompatibleApps: []string{"com.google.android.youtube"}},
		{ID: "x", CompatibleApps: []string{"com.spotify.music"}},
		{ID: "a"},
		{ID: "m", CompatibleApps: []string{"com.spotify.music", "com.google.android.youtube"}},
	}
	got := ResolveCompatible(patches, youtube)
	assert.Equal(t, []string{"z", "a", "m"}, ids(got))

	got[0].CompatibleApps[0] = "mutated"
	assert.Equal(t, "com.google.android.youtube", patches[0].CompatibleApps[0])
}

func TestResolveCompatible_Empty(t *testing.T) {
	assert.Empty(t, ResolveCompatible(nil, youtube))
}

func TestFilterByQuery(t *testing.T) {
	resolved := []Patch{
		{ID: "sb", Name: "SponsorBlock", Description: "Skips sponsor segments."},
		{ID: "ads", Name: "Hide ads", Description: "Removes general feed ads."},
		{ID: "theme", Name: "Theme", Description: "Custom dark modes and colors."},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"sb", "ads", "theme"}},
		{"   ", []string{"sb", "ads", "theme"}},
		{"SPONSOR", []string{"sb"}},
		{"  ads ", []string{"ads"}},
		{"dark", []string{"theme"}},
		{"nothing-matches", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterByQuery(resolved, tt.query)))
		})
	}
}

func TestFilterByQuery_EmptyQueryIsIdentityAfterResolve(t *testing.T) {
	seed, err := Fallback()
	if err != nil {
		t.Fatalf("Fallback: %v", err)
	}
	for _, app := range seed.Applications {
		resolved := ResolveCompatible(seed.Patches, app)
		if diff := cmp.Diff(resolved, FilterByQuery(resolved, "")); diff != "" {
			t.Errorf("empty query changed result for %s:\n%s", app.ID, diff)
		}
	}
}

func TestSelectedFor(t *testing.T) {
	patches := []Patch{
		{ID: "on", Enabled: true, CompatibleApps: []string{"com.google.android.youtube"}},
		{ID: "off", Enabled: false},
		{ID: "on-wrong-app", Enabled: true, CompatibleApps: []string{"com.spotify.music"}},
		{ID: "on-incompatible", Enabled: true, Status: StatusIncompatible},
		{ID: "on-universal", Enabled: true},
	}
	assert.Equal(t, []string{"on", "on-universal"}, ids(SelectedFor(patches, youtube)))
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusVerified, ParseStatus("Verified"))
	assert.Equal(t, StatusWarning, ParseStatus(" warning "))
	assert.Equal(t, StatusIncompatible, ParseStatus("incompatible"))
	assert.Equal(t, StatusUnknown, ParseStatus("maybe"))
	assert.Equal(t, StatusUnknown, ParseStatus(""))
}
