// Package render turns backend responses into chat display events.
package render

import (
	"html"
	"strings"

	"mapchat/internal/model"
)

// Render maps the optional fields of resp to display events in the fixed
// order text, additionalText, followup. Absent fields produce nothing.
//
// Only followup gets newline to line-break treatment; text and
// additionalText are shown literally. The page has always rendered them
// this way, so the asymmetry is kept.
func Render(resp *model.ChatResponse) []model.DisplayEvent {
	events := make([]model.DisplayEvent, 0, 3)
	if resp == nil {
		return events
	}

	if resp.Text != nil {
		events = append(events, literal(*resp.Text))
	}
	if resp.AdditionalText != nil {
		events = append(events, literal(*resp.AdditionalText))
	}
	if resp.Followup != nil {
		events = append(events, followup(*resp.Followup))
	}

	return events
}

// Failure renders err as the single agent message shown for a failed action.
func Failure(err error) model.DisplayEvent {
	return literal("Error: " + err.Error())
}

func literal(text string) model.DisplayEvent {
	return model.DisplayEvent{Role: model.RoleAgent, Text: text}
}

func followup(text string) model.DisplayEvent {
	if !strings.Contains(text, "\n") {
		return literal(text)
	}
	return model.DisplayEvent{
		Role:      model.RoleAgent,
		Text:      text,
		Formatted: true,
		Lines:     strings.Split(text, "\n"),
	}
}

// Markup returns event text ready for insertion into an HTML page: escaped,
// with explicit <br> between lines of formatted events.
func Markup(event model.DisplayEvent) string {
	if !event.Formatted {
		return html.EscapeString(event.Text)
	}

	escaped := make([]string, len(event.Lines))
	for i, line := range event.Lines {
		escaped[i] = html.EscapeString(line)
	}
	return strings.Join(escaped, "<br>")
}
