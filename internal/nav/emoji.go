package nav

import "strings"

const (
	EmojiPrev     = "⬅️"
	EmojiNext     = "➡️"
	EmojiClose    = "❌"
	EmojiCategory = "📁"
	EmojiPlay     = "▶️"
	EmojiSeries   = "📺"
	EmojiBack     = "🔙"
	EmojiPlayAll  = "📋"
)

const variationSelector = "\uFE0F"

// Intent is the action a reaction asks for.
type Intent int

const (
	IntentNone Intent = iota
	IntentPrev
	IntentNext
	IntentClose
	IntentSelectCategory
	IntentPlay
	IntentExpandSeries
	IntentBack
	IntentPlayAll
)

var intents = map[string]Intent{
	EmojiPrev:     IntentPrev,
	EmojiNext:     IntentNext,
	EmojiClose:    IntentClose,
	EmojiCategory: IntentSelectCategory,
	EmojiPlay:     IntentPlay,
	EmojiSeries:   IntentExpandSeries,
	EmojiBack:     IntentBack,
	EmojiPlayAll:  IntentPlayAll,
}

// IntentFor maps a reaction emoji to its intent. Clients differ on whether
// they send the variation selector, so it is ignored.
func IntentFor(emoji string) Intent {
	key := strings.TrimSpace(emoji)
	if intent, ok := intents[key]; ok {
		return intent
	}
	bare := strings.ReplaceAll(key, variationSelector, "")
	for candidate, intent := range intents {
		if strings.ReplaceAll(candidate, variationSelector, "") == bare {
			return intent
		}
	}
	return IntentNone
}

func (i Intent) String() string {
	switch i {
	case IntentPrev:
		return "prev"
	case IntentNext:
		return "next"
	case IntentClose:
		return "close"
	case IntentSelectCategory:
		return "select_category"
	case IntentPlay:
		return "play"
	case IntentExpandSeries:
		return "expand_series"
	case IntentBack:
		return "back"
	case IntentPlayAll:
		return "play_all"
	default:
		return "none"
	}
}
