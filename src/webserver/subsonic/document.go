package subsonic

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"time"
)

// Attr is a scalar value of an Element. In XML it is an attribute and in
// JSON a member of the element's object.
type Attr struct {
	Name  string
	Value any
}

// Element is a node of a response document. Attributes and children keep
// the order in which they were added.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element

	// Text is the character data of the element. Nil means none.
	Text any
}

// NewElement returns an element without attributes or children.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// Set adds an attribute. Empty strings are skipped while zero numbers are
// kept. Times are stored in the format clients expect.
func (e *Element) Set(name string, value any) *Element {
	switch val := value.(type) {
	case string:
		if val == "" {
			return e
		}
	case time.Time:
		if val.IsZero() {
			return e
		}
		value = formatTime(val)
	}

	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Attr returns the value of the attribute `name` or nil.
func (e *Element) Attr(name string) any {
	for _, attr := range e.Attrs {
		if attr.Name == name {
			return attr.Value
		}
	}
	return nil
}

// Child creates a new child element and returns it.
func (e *Element) Child(name string) *Element {
	child := NewElement(name)
	e.Children = append(e.Children, child)
	return child
}

// Append adds already built children.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// TextChild adds a child which holds only text. Empty strings are skipped.
func (e *Element) TextChild(name string, text any) *Element {
	if s, ok := text.(string); ok && s == "" {
		return e
	}
	child := e.Child(name)
	child.Text = text
	return e
}

// Find returns the first child with this name or nil.
func (e *Element) Find(name string) *Element {
	for _, child := range e.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// jsonLists names, per parent element, the children which are always JSON
// arrays. Other children become arrays only when there is more than one of
// them with the same name.
var jsonLists = map[string][]string{
	"musicFolders":  {"musicFolder"},
	"indexes":       {"index"},
	"index":         {"artist"},
	"artists":       {"index"},
	"directory":     {"child"},
	"artist":        {"album"},
	"album":         {"song"},
	"albumList":     {"album"},
	"albumList2":    {"album"},
	"randomSongs":   {"song"},
	"starred":       {"artist", "album", "song"},
	"starred2":      {"artist", "album", "song"},
	"genres":        {"genre"},
	"searchResult2": {"artist", "album", "song"},
	"searchResult3": {"artist", "album", "song"},
	"playlists":     {"playlist"},
	"playlist":      {"entry", "allowedUser"},
	"user":          {"folder"},
	"artistInfo":    {"similarArtist"},
}

// xmlOnlyAttrs are not rendered in JSON.
var xmlOnlyAttrs = map[string]bool{
	"xmlns": true,
}

// callbackPattern is what a JSONP callback name must look like before it
// is echoed back.
var callbackPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// renderer writes a document in one output format.
type renderer struct {
	contentType string
	render      func(w io.Writer, doc *Element, callback string) error
}

// renderers is the table of supported `f` values. Unknown formats are
// rendered as XML.
var renderers = map[string]renderer{
	"xml": {
		contentType: "text/xml; charset=utf-8",
		render:      renderXML,
	},
	"json": {
		contentType: "application/json; charset=utf-8",
		render:      renderJSON,
	},
	"jsonp": {
		contentType: "text/javascript; charset=utf-8",
		render:      renderJSONP,
	},
}

func formatValue(value any) string {
	switch val := value.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func renderXML(w io.Writer, doc *Element, _ string) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := encodeXMLElement(enc, doc); err != nil {
		return err
	}
	return enc.Flush()
}

func encodeXMLElement(enc *xml.Encoder, e *Element) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}}
	for _, attr := range e.Attrs {
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Local: attr.Name},
			Value: formatValue(attr.Value),
		})
	}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	if e.Text != nil {
		if err := enc.EncodeToken(xml.CharData(formatValue(e.Text))); err != nil {
			return err
		}
	}

	for _, child := range e.Children {
		if err := encodeXMLElement(enc, child); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

func renderJSON(w io.Writer, doc *Element, _ string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		doc.Name: jsonValue(doc),
	})
}

func renderJSONP(w io.Writer, doc *Element, callback string) error {
	if !callbackPattern.MatchString(callback) {
		return fmt.Errorf("invalid callback name %q", callback)
	}

	var buf bytes.Buffer
	if err := renderJSON(&buf, doc, ""); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%s(%s);", callback, bytes.TrimSpace(buf.Bytes()))
	return err
}

func jsonValue(e *Element) any {
	if e.Text != nil && len(e.Attrs) == 0 && len(e.Children) == 0 {
		return e.Text
	}

	obj := make(map[string]any, len(e.Attrs)+len(e.Children))
	for _, attr := range e.Attrs {
		if xmlOnlyAttrs[attr.Name] {
			continue
		}
		obj[attr.Name] = attr.Value
	}

	if e.Text != nil {
		obj["value"] = e.Text
	}

	var (
		order   []string
		grouped = make(map[string][]any)
	)
	for _, child := range e.Children {
		if _, ok := grouped[child.Name]; !ok {
			order = append(order, child.Name)
		}
		grouped[child.Name] = append(grouped[child.Name], jsonValue(child))
	}

	lists := jsonLists[e.Name]
	for _, name := range order {
		values := grouped[name]
		if len(values) == 1 && !slices.Contains(lists, name) {
			obj[name] = values[0]
			continue
		}
		obj[name] = values
	}

	return obj
}
