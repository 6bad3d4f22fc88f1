package presentation

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// TokenList is a scrollable list of text rows used for the dictionary
// views and the annotation views. It is exclusively owned by the UI
// thread.
type TokenList struct {
	widget.List
	items      []string
	selected   int
	onSelected func(index int)
}

// NewTokenList creates an empty token list. The handler receives the
// selected row index.
func NewTokenList(onSelected func(index int)) *TokenList {
	tl := &TokenList{
		selected:   -1,
		onSelected: onSelected,
	}

	tl.List = widget.List{
		Length: func() int {
			return len(tl.items)
		},
		CreateItem: func() fyne.CanvasObject {
			return widget.NewLabel("token")
		},
		UpdateItem: func(id widget.ListItemID, item fyne.CanvasObject) {
			if id < len(tl.items) {
				item.(*widget.Label).SetText(tl.items[id])
			}
		},
	}

	tl.List.OnSelected = func(id widget.ListItemID) {
		if id < 0 || id >= len(tl.items) {
			return
		}
		tl.selected = id
		if tl.onSelected != nil {
			tl.onSelected(id)
		}
	}
	tl.List.OnUnselected = func(id widget.ListItemID) {
		if tl.selected == id {
			tl.selected = -1
		}
	}

	tl.ExtendBaseWidget(tl)
	return tl
}

// SetItems replaces the rows and clears the selection.
func (tl *TokenList) SetItems(items []string) {
	tl.items = items
	tl.selected = -1
	tl.UnselectAll()
	tl.Refresh()
}

// Items returns the current rows.
func (tl *TokenList) Items() []string {
	return tl.items
}

// SelectedIndex returns the selected row, or -1.
func (tl *TokenList) SelectedIndex() int {
	return tl.selected
}

// SelectItem programmatically selects the row with the given text.
func (tl *TokenList) SelectItem(text string) {
	for i, item := range tl.items {
		if item == text {
			tl.Select(i)
			return
		}
	}
	tl.UnselectAll()
}

// Count returns the number of rows.
func (tl *TokenList) Count() int {
	return len(tl.items)
}
