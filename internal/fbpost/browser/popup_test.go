package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func findRule(t *testing.T, name, locale string) PopupRule {
	t.Helper()
	for _, r := range PopupRules {
		if r.Name == name && r.Locale == locale {
			return r
		}
	}
	t.Fatalf("no %s/%s rule", name, locale)
	return PopupRule{}
}

func TestPopupPassNoPopup(t *testing.T) {
	d := newFakeDriver()
	p := NewPopupPolicy(0)

	for _, phase := range []Phase{PhaseNavigation, PhaseLogin, PhaseComposer} {
		rule, ok := p.Pass(context.Background(), d, phase)
		assert.False(t, ok, phase.String())
		assert.Empty(t, rule.Name)
	}
	assert.Empty(t, d.clicks)
}

func TestPopupPassOrderStable(t *testing.T) {
	d := newFakeDriver()
	d.present[findRule(t, "close", "en").Locator] = true
	d.present[findRule(t, "notifications", "ko").Locator] = true
	d.present[findRule(t, "save-login", "en").Locator] = true
	p := NewPopupPolicy(0)

	for i := 0; i < 3; i++ {
		rule, ok := p.Pass(context.Background(), d, PhaseLogin)
		assert.True(t, ok)
		assert.Equal(t, "save-login", rule.Name)
		assert.Equal(t, "en", rule.Locale)
	}
	assert.Len(t, d.clicks, 3, "one dismissal per pass")
}

func TestPopupPassPhases(t *testing.T) {
	tests := []struct {
		name    string
		present []PopupRule
		phase   Phase
		want    string
		matched bool
	}{
		{
			name:    "composer ignores close buttons",
			present: []PopupRule{findRule(t, "close", "en"), findRule(t, "close", "ko")},
			phase:   PhaseComposer,
		},
		{
			name:    "composer dismisses notifications",
			present: []PopupRule{findRule(t, "close", "en"), findRule(t, "notifications", "en")},
			phase:   PhaseComposer,
			want:    "notifications",
			matched: true,
		},
		{
			name:    "navigation skips save login",
			present: []PopupRule{findRule(t, "save-login", "ko"), findRule(t, "close", "ko")},
			phase:   PhaseNavigation,
			want:    "close",
			matched: true,
		},
		{
			name:    "login prefers save login over close",
			present: []PopupRule{findRule(t, "close", "ko"), findRule(t, "save-login", "ko")},
			phase:   PhaseLogin,
			want:    "save-login",
			matched: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newFakeDriver()
			for _, r := range tt.present {
				d.present[r.Locator] = true
			}
			rule, ok := NewPopupPolicy(0).Pass(context.Background(), d, tt.phase)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.want, rule.Name)
		})
	}
}

func TestPopupPassCanceled(t *testing.T) {
	d := newFakeDriver()
	d.present[findRule(t, "close", "en").Locator] = true
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := NewPopupPolicy(0).Pass(ctx, d, PhaseNavigation)
	assert.False(t, ok)
	assert.Empty(t, d.clicks)
}

func TestPopupRulesLocales(t *testing.T) {
	for _, r := range PopupRules {
		assert.Contains(t, []string{"ko", "en"}, r.Locale, r.Name)
		assert.NotZero(t, r.Phases, r.Name)
		assert.NotEmpty(t, r.Locator.Value, r.Name)
	}
}
