package binding

import (
	"strings"

	"houseplants/models"
)

// DropdownState says which body the recent-searches section shows.
type DropdownState int

const (
	// NoHistory hides the recent-searches section entirely
	NoHistory DropdownState = iota
	// ShowAll lists every record because nothing is typed
	ShowAll
	// Matches lists the records whose term starts with the input
	Matches
	// NoMatch shows an explicit "no matching previous searches" message
	NoMatch
)

func (s DropdownState) String() string {
	switch s {
	case NoHistory:
		return "no-history"
	case ShowAll:
		return "all"
	case Matches:
		return "matches"
	case NoMatch:
		return "no-match"
	default:
		return "unknown"
	}
}

// DropdownView is everything a renderer needs for the dropdown.
type DropdownView struct {
	State DropdownState
	Items []models.SearchRecord
	// Matched is true when Items were filtered by the input
	Matched bool
	// ShowResults is true when the plant results placeholder should show
	ShowResults bool
}

// FilterDropdown applies the dropdown rules to history for the current
// input. Prefix matching ignores case; the input is not trimmed, so what
// the user typed is what is matched.
func FilterDropdown(history []models.SearchRecord, input string) DropdownView {
	view := DropdownView{ShowResults: input != ""}

	if len(history) == 0 {
		view.State = NoHistory
		return view
	}
	if input == "" {
		view.State = ShowAll
		view.Items = history
		return view
	}

	prefix := strings.ToLower(input)
	for _, rec := range history {
		if strings.HasPrefix(strings.ToLower(rec.Term), prefix) {
			view.Items = append(view.Items, rec)
		}
	}

	if len(view.Items) == 0 {
		view.State = NoMatch
		return view
	}
	view.State = Matches
	view.Matched = true
	return view
}
