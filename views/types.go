package views

import "github.com/ramborogers/netswitch/profiles"

// TreeItem is one row of the profile tree: a department header when User is
// nil, otherwise a selectable user.
type TreeItem struct {
	Department string
	User       *profiles.User
}

// Selectable reports whether the row is a user.
func (t TreeItem) Selectable() bool {
	return t.User != nil
}

// Flatten turns departments into tree rows in file order.
func Flatten(departments []profiles.Department) []TreeItem {
	var items []TreeItem
	for _, d := range departments {
		items = append(items, TreeItem{Department: d.Name})
		for i := range d.Users {
			items = append(items, TreeItem{Department: d.Name, User: &d.Users[i]})
		}
	}
	return items
}

// NextSelectable returns the index of the next user row after from in
// direction dir (+1 or -1), or from when there is none.
func NextSelectable(items []TreeItem, from, dir int) int {
	for i := from + dir; i >= 0 && i < len(items); i += dir {
		if items[i].Selectable() {
			return i
		}
	}
	return from
}

// FirstSelectable returns the first user row, or -1.
func FirstSelectable(items []TreeItem) int {
	for i, it := range items {
		if it.Selectable() {
			return i
		}
	}
	return -1
}
