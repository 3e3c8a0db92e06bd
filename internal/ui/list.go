package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/pawelad/music-snapshot/internal/models"
	"github.com/pawelad/music-snapshot/internal/shared"
)

var _ list.Item = eventItem{}

// eventItem wraps a [models.PlayEvent] and its history index to implement
// [list.Item].
type eventItem struct {
	index int
	event models.PlayEvent
}

func (i eventItem) FilterValue() string { return i.event.Title }
func (i eventItem) Title() string {
	return fmt.Sprintf("%s - %s", i.event.Artist, i.event.Title)
}
func (i eventItem) Description() string {
	desc := i.event.PlayedAt.Local().Format(shared.DateTimeFormat)
	if i.event.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.event.Album)
	}
	return desc
}

// eventItems builds list items for a slice of the history, keeping the
// absolute history index on each item.
func eventItems(events []models.PlayEvent, offset int) []list.Item {
	items := make([]list.Item, len(events))
	for i, event := range events {
		items[i] = eventItem{index: offset + i, event: event}
	}
	return items
}
