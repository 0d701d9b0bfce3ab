package flat

import (
	"mime/multipart"
	"net/url"
	"sort"
)

// File is an opaque uploaded value. Files are carried through form data but
// never flattened into serializable state.
type File interface {
	Filename() string
	Size() int64
	ContentType() string
}

// Entry is a single name/value pair of submitted form data. Value is either a
// string or a File.
type Entry struct {
	Name  string
	Value any
}

// Entries is ordered form data. Names may repeat (checkbox groups,
// multi-selects).
type Entries []Entry

// Append returns entries with a new pair appended.
func (e Entries) Append(name string, value any) Entries {
	return append(e, Entry{Name: name, Value: value})
}

// Get returns the first value submitted under name.
func (e Entries) Get(name string) (any, bool) {
	for _, entry := range e {
		if entry.Name == name {
			return entry.Value, true
		}
	}
	return nil, false
}

// GetString returns the first string value submitted under name.
func (e Entries) GetString(name string) string {
	for _, entry := range e {
		if entry.Name != name {
			continue
		}
		if str, ok := entry.Value.(string); ok {
			return str
		}
	}
	return ""
}

// GetAll returns every value submitted under name in submission order.
func (e Entries) GetAll(name string) []any {
	var out []any
	for _, entry := range e {
		if entry.Name == name {
			out = append(out, entry.Value)
		}
	}
	return out
}

// Names returns the distinct names in first-seen order.
func (e Entries) Names() []string {
	seen := make(map[string]struct{}, len(e))
	out := make([]string, 0, len(e))
	for _, entry := range e {
		if _, ok := seen[entry.Name]; ok {
			continue
		}
		seen[entry.Name] = struct{}{}
		out = append(out, entry.Name)
	}
	return out
}

// Without returns a copy of entries minus the given names.
func (e Entries) Without(names ...string) Entries {
	skip := make(map[string]struct{}, len(names))
	for _, name := range names {
		skip[name] = struct{}{}
	}
	out := make(Entries, 0, len(e))
	for _, entry := range e {
		if _, ok := skip[entry.Name]; ok {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// FromValues converts url.Values into entries. Names are sorted because map
// iteration order is random; values keep their submitted order.
func FromValues(values url.Values) Entries {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Entries, 0, len(values))
	for _, name := range names {
		for _, value := range values[name] {
			out = append(out, Entry{Name: name, Value: value})
		}
	}
	return out
}

// FromMultipart converts a parsed multipart form, exposing uploads as File
// values.
func FromMultipart(form *multipart.Form) Entries {
	if form == nil {
		return nil
	}
	out := FromValues(form.Value)
	names := make([]string, 0, len(form.File))
	for name := range form.File {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, header := range form.File[name] {
			out = append(out, Entry{Name: name, Value: multipartFile{header: header}})
		}
	}
	return out
}

type multipartFile struct {
	header *multipart.FileHeader
}

func (f multipartFile) Filename() string { return f.header.Filename }
func (f multipartFile) Size() int64      { return f.header.Size }
func (f multipartFile) ContentType() string {
	return f.header.Header.Get("Content-Type")
}

// Resolve builds a value tree from entries, skipping ignored names. A name
// that occurs more than once is merged into a list.
func Resolve(entries Entries, ignore ...string) (map[string]any, error) {
	skip := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		skip[name] = struct{}{}
	}

	data := make(map[string]any)
	for _, entry := range entries {
		if entry.Name == "" {
			continue
		}
		if _, ok := skip[entry.Name]; ok {
			continue
		}
		value := entry.Value
		_, err := SetValue(data, entry.Name, func(prev any) any {
			switch typed := prev.(type) {
			case nil:
				return value
			case []any:
				return append(typed, value)
			default:
				return []any{typed, value}
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}
