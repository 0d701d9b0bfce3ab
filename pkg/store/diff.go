package store

import (
	"slices"
	"sort"

	"github.com/goliatone/go-formstate/pkg/model"
)

// Diff lists the changes between two snapshots: error messages that changed
// (including an entry appearing or disappearing), validated flags that
// flipped and list key arrays that differ. Updates are ordered by type
// (error, validated, list) and then by name.
func Diff(prev, next model.State) []model.Update {
	var updates []model.Update

	for _, name := range unionKeys(prev.Error, next.Error) {
		before, hadBefore := prev.Error[name]
		after, hasAfter := next.Error[name]
		if hadBefore != hasAfter || !slices.Equal(before, after) {
			updates = append(updates, model.Update{
				Type: model.UpdateError,
				Name: name,
				Prev: valueOrNil(before, hadBefore),
				Next: valueOrNil(after, hasAfter),
			})
		}
	}

	for _, name := range unionKeys(prev.Validated, next.Validated) {
		if prev.Validated[name] != next.Validated[name] {
			updates = append(updates, model.Update{
				Type: model.UpdateValidated,
				Name: name,
				Prev: prev.Validated[name],
				Next: next.Validated[name],
			})
		}
	}

	for _, name := range unionKeys(prev.ListKeys, next.ListKeys) {
		before, hadBefore := prev.ListKeys[name]
		after, hasAfter := next.ListKeys[name]
		if hadBefore != hasAfter || !slices.Equal(before, after) {
			updates = append(updates, model.Update{
				Type: model.UpdateList,
				Name: name,
				Prev: valueOrNil(before, hadBefore),
				Next: valueOrNil(after, hasAfter),
			})
		}
	}

	return updates
}

func unionKeys[V any](a, b map[string]V) []string {
	names := make([]string, 0, len(a)+len(b))
	for name := range a {
		names = append(names, name)
	}
	for name := range b {
		if _, ok := a[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func valueOrNil(values []string, ok bool) any {
	if !ok {
		return nil
	}
	return slices.Clone(values)
}
