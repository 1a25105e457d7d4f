package browser

import (
	"context"
	"time"

	"github.com/blacktop/fbpost/internal/logutil"
)

// Phase identifies when a popup pass runs.
type Phase uint8

const (
	PhaseNavigation Phase = 1 << iota
	PhaseLogin
	PhaseComposer
)

func (p Phase) String() string {
	switch p {
	case PhaseNavigation:
		return "navigation"
	case PhaseLogin:
		return "login"
	case PhaseComposer:
		return "composer"
	default:
		return "mixed"
	}
}

// PopupRule describes one known transient dialog and the control that
// dismisses it.
type PopupRule struct {
	Name    string
	Locale  string
	Locator Locator
	Phases  Phase
}

// PopupRules is the dismissal table in priority order. New locales are new
// rows. Generic close buttons never run in PhaseComposer because the composer
// dialog carries one too.
var PopupRules = []PopupRule{
	{Name: "save-login", Locale: "ko", Locator: Text("span", "정보 저장 안 함"), Phases: PhaseLogin | PhaseComposer},
	{Name: "save-login", Locale: "ko", Locator: Label("div", "취소"), Phases: PhaseLogin},
	{Name: "save-login", Locale: "ko", Locator: LabelContains("div", "다음에"), Phases: PhaseLogin},
	{Name: "save-login", Locale: "en", Locator: Label("div", "Cancel"), Phases: PhaseLogin},
	{Name: "save-login", Locale: "en", Locator: Text("span", "Decline"), Phases: PhaseLogin},
	{Name: "notifications", Locale: "ko", Locator: Text("span", "나중에"), Phases: PhaseNavigation | PhaseLogin | PhaseComposer},
	{Name: "notifications", Locale: "en", Locator: Text("span", "Not Now"), Phases: PhaseNavigation | PhaseLogin | PhaseComposer},
	{Name: "notifications", Locale: "en", Locator: Text("span", "Not now"), Phases: PhaseNavigation | PhaseLogin | PhaseComposer},
	{Name: "close", Locale: "ko", Locator: Label("div", "닫기"), Phases: PhaseNavigation | PhaseLogin},
	{Name: "close", Locale: "en", Locator: Label("div", "Close"), Phases: PhaseNavigation | PhaseLogin},
}

// PopupPolicy dismisses known dialogs on a best-effort basis.
type PopupPolicy struct {
	Rules []PopupRule
	Wait  time.Duration
}

// NewPopupPolicy returns a policy over PopupRules that probes each rule for
// at most wait.
func NewPopupPolicy(wait time.Duration) *PopupPolicy {
	return &PopupPolicy{Rules: PopupRules, Wait: wait}
}

// Pass clicks the first rule enabled for phase that matches the page. It
// reports the dismissed rule, if any, and never fails.
func (p *PopupPolicy) Pass(ctx context.Context, d Driver, phase Phase) (PopupRule, bool) {
	for _, rule := range p.Rules {
		if rule.Phases&phase == 0 {
			continue
		}
		if ctx.Err() != nil {
			return PopupRule{}, false
		}
		if err := d.Click(ctx, rule.Locator, p.Wait); err != nil {
			continue
		}
		logutil.Debugf("dismissed %s popup: locale=%s selector=%s", rule.Name, rule.Locale, rule.Locator)
		return rule, true
	}
	return PopupRule{}, false
}
