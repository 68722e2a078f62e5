package nav

import (
	"fmt"
	"strings"

	"streambot/internal/transport"
)

// MaxViewLength bounds the total characters of a rendered view.
const MaxViewLength = transport.MaxContentLength

const (
	maxTitle      = 256
	maxFieldName  = 256
	maxFieldValue = 1024
	maxFooter     = 256
	ellipsis      = "…"
)

// View is a rendered page ready to be sent as an embed.
type View struct {
	Title       string
	Description string
	Fields      []transport.Field
	Footer      string
}

// Len counts the characters the view contributes toward MaxViewLength.
func (v View) Len() int {
	return v.embed().Len()
}

// Content wraps the view for the transport.
func (v View) Content() transport.Content {
	return transport.EmbedContent(v.embed())
}

func (v View) embed() transport.Embed {
	return transport.Embed{Title: v.Title, Description: v.Description, Fields: v.Fields, Footer: v.Footer}
}

// Render turns a PageState into a View. It never shows more than PerPage
// items and never exceeds MaxViewLength characters.
func Render(state PageState) View {
	visible := state.Visible()
	view := View{
		Title:       state.Title,
		Description: state.Description,
		Fields:      make([]transport.Field, 0, len(visible)),
		Footer:      footerFor(state),
	}
	for _, item := range visible {
		view.Fields = append(view.Fields, fieldFor(item))
	}
	fit(&view, MaxViewLength)
	return view
}

func footerFor(state PageState) string {
	total := state.TotalPages()
	indicator := fmt.Sprintf("Page %d of %d", state.clampedPage()+1, total)
	switch {
	case strings.TrimSpace(state.Footer) == "":
		return indicator
	case total > 1:
		return indicator + " • " + state.Footer
	default:
		return state.Footer
	}
}

func fieldFor(item Item) transport.Field {
	switch item.Kind {
	case KindCategory:
		return transport.Field{
			Name:   EmojiCategory + " " + item.Label,
			Value:  plural(item.Count, "video") + "\nSelect with " + EmojiCategory,
			Inline: true,
		}
	case KindSeries:
		return transport.Field{
			Name:   EmojiSeries + " " + item.Label,
			Value:  plural(item.Count, "episode") + "\nReact with " + EmojiSeries + " to expand",
			Inline: true,
		}
	case KindSeasonHeader:
		return transport.Field{
			Name:  "📂 " + item.Label,
			Value: plural(item.Count, "episode"),
		}
	default:
		return transport.Field{
			Name:   "🎬 " + item.Label,
			Value:  videoValue(item),
			Inline: true,
		}
	}
}

func videoValue(item Item) string {
	var lines []string
	if item.ShowOrigin {
		if item.SeriesName != "" {
			lines = append(lines, "From: "+item.SeriesName)
		}
		category := item.CategoryName
		if category == "" {
			category = "Uncategorized"
		}
		lines = append(lines, "Category: "+category)
	}
	kind := "Type: " + codecLabel(item.Codec)
	if d := FormatDuration(item.Duration); d != "" {
		kind += " (" + d + ")"
	}
	lines = append(lines, kind, "React with "+EmojiPlay+" to play")
	return strings.Join(lines, "\n")
}

// fit shrinks the view until it fits in limit characters: field values first,
// then field names, then the description.
func fit(v *View, limit int) {
	v.Title = truncate(v.Title, maxTitle)
	v.Footer = truncate(v.Footer, maxFooter)
	for i := range v.Fields {
		v.Fields[i].Name = truncate(v.Fields[i].Name, maxFieldName)
		v.Fields[i].Value = truncate(v.Fields[i].Value, maxFieldValue)
	}
	if v.Len() <= limit {
		return
	}
	for _, size := range []int{512, 256, 128, 64, 32, 16} {
		for i := range v.Fields {
			v.Fields[i].Value = truncate(v.Fields[i].Value, size)
		}
		if v.Len() <= limit {
			return
		}
	}
	for _, size := range []int{128, 64, 32} {
		for i := range v.Fields {
			v.Fields[i].Name = truncate(v.Fields[i].Name, size)
		}
		if v.Len() <= limit {
			return
		}
	}
	over := v.Len() - limit
	v.Description = truncate(v.Description, max(0, runeCount(v.Description)-over))
	for v.Len() > limit && len(v.Fields) > 0 {
		v.Fields = v.Fields[:len(v.Fields)-1]
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	return string(r[:n-1]) + ellipsis
}

func runeCount(s string) int {
	return len([]rune(s))
}
