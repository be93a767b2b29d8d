package ass

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"lyricsync/internal/fileutil"
)

//go:embed karaoke_template.ass
var defaultTemplate string

const (
	sectionInfo   = "[Script Info]"
	sectionStyles = "[V4+ Styles]"
	sectionEvents = "[Events]"

	eventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
)

// Event types.
const (
	Dialogue = "Dialogue"
	Comment  = "Comment"
)

// InfoField is one "Key: Value" line of the script info section. Comment lines
// are kept with an empty Key and the full line in Value.
type InfoField struct {
	Key   string
	Value string
}

// Event is a subtitle event. Start and End are milliseconds.
type Event struct {
	Type    string
	Layer   int
	Start   int64
	End     int64
	Style   string
	Name    string
	MarginL int
	MarginR int
	MarginV int
	Effect  string
	Text    string
}

// Section is an unrecognized section kept verbatim.
type Section struct {
	Header string
	Lines  []string
}

// Document is a parsed subtitle script.
type Document struct {
	Info   []InfoField
	Styles []string
	Events []Event
	Extra  []Section
}

// Default returns a document built from the embedded karaoke template.
func Default() *Document {
	doc, err := Parse(strings.NewReader(defaultTemplate))
	if err != nil {
		panic(fmt.Sprintf("embedded karaoke template: %v", err))
	}
	return doc
}

// LoadTemplate reads a document from path. An empty path returns Default().
func LoadTemplate(path string) (*Document, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()
	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	return doc, nil
}

// Parse reads a subtitle document.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	section := ""
	var extra *Section
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = trimmed
			extra = nil
			switch section {
			case sectionInfo, sectionStyles, sectionEvents:
			default:
				doc.Extra = append(doc.Extra, Section{Header: section})
				extra = &doc.Extra[len(doc.Extra)-1]
			}
			continue
		}
		if trimmed == "" {
			continue
		}
		switch section {
		case sectionInfo:
			if strings.HasPrefix(trimmed, ";") {
				doc.Info = append(doc.Info, InfoField{Value: trimmed})
				continue
			}
			key, value, ok := strings.Cut(trimmed, ":")
			if !ok {
				return nil, fmt.Errorf("line %d: malformed script info %q", lineNo, trimmed)
			}
			doc.Info = append(doc.Info, InfoField{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
		case sectionStyles:
			doc.Styles = append(doc.Styles, trimmed)
		case sectionEvents:
			if strings.HasPrefix(trimmed, "Format:") || strings.HasPrefix(trimmed, ";") {
				continue
			}
			ev, err := parseEvent(trimmed)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			doc.Events = append(doc.Events, ev)
		case "":
			return nil, fmt.Errorf("line %d: content before first section", lineNo)
		default:
			extra.Lines = append(extra.Lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

func parseEvent(line string) (Event, error) {
	kind, rest, ok := strings.Cut(line, ":")
	if !ok {
		return Event{}, fmt.Errorf("malformed event %q", line)
	}
	fields := strings.SplitN(strings.TrimSpace(rest), ",", 10)
	if len(fields) != 10 {
		return Event{}, fmt.Errorf("event has %d fields, want 10", len(fields))
	}
	ev := Event{Type: strings.TrimSpace(kind), Style: fields[3], Name: fields[4], Effect: fields[8], Text: fields[9]}
	var err error
	if ev.Layer, err = strconv.Atoi(strings.TrimSpace(fields[0])); err != nil {
		return Event{}, fmt.Errorf("event layer: %w", err)
	}
	if ev.Start, err = ParseTime(fields[1]); err != nil {
		return Event{}, err
	}
	if ev.End, err = ParseTime(fields[2]); err != nil {
		return Event{}, err
	}
	margins := []*int{&ev.MarginL, &ev.MarginR, &ev.MarginV}
	for i, dst := range margins {
		if *dst, err = strconv.Atoi(strings.TrimSpace(fields[5+i])); err != nil {
			return Event{}, fmt.Errorf("event margin: %w", err)
		}
	}
	return ev, nil
}

// InfoValue returns the value of a script info key.
func (d *Document) InfoValue(key string) (string, bool) {
	for _, f := range d.Info {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// SetInfo replaces the value of key or appends it.
func (d *Document) SetInfo(key, value string) {
	for i, f := range d.Info {
		if f.Key == key {
			d.Info[i].Value = value
			return
		}
	}
	d.Info = append(d.Info, InfoField{Key: key, Value: value})
}

// StyleNames lists the styles declared in the styles section.
func (d *Document) StyleNames() []string {
	var names []string
	for _, line := range d.Styles {
		rest, ok := strings.CutPrefix(line, "Style:")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(rest, ",")
		names = append(names, strings.TrimSpace(name))
	}
	return names
}

// HasStyle reports whether a style with name is declared.
func (d *Document) HasStyle(name string) bool {
	for _, n := range d.StyleNames() {
		if n == name {
			return true
		}
	}
	return false
}

// Write serializes the document.
func (d *Document) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, sectionInfo)
	for _, f := range d.Info {
		if f.Key == "" {
			fmt.Fprintln(bw, f.Value)
			continue
		}
		fmt.Fprintf(bw, "%s: %s\n", f.Key, f.Value)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, sectionStyles)
	for _, line := range d.Styles {
		fmt.Fprintln(bw, line)
	}
	fmt.Fprintln(bw)

	for _, s := range d.Extra {
		fmt.Fprintln(bw, s.Header)
		for _, line := range s.Lines {
			fmt.Fprintln(bw, line)
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, sectionEvents)
	fmt.Fprintln(bw, eventFormat)
	for _, ev := range d.Events {
		kind := ev.Type
		if kind == "" {
			kind = Dialogue
		}
		fmt.Fprintf(bw, "%s: %d,%s,%s,%s,%s,%d,%d,%d,%s,%s\n",
			kind, ev.Layer, FormatTime(ev.Start), FormatTime(ev.End), ev.Style, ev.Name,
			ev.MarginL, ev.MarginR, ev.MarginV, ev.Effect, ev.Text)
	}
	return bw.Flush()
}

// Save writes the document to path atomically.
func (d *Document) Save(path string) error {
	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		if _, err := io.WriteString(w, "\ufeff"); err != nil {
			return err
		}
		return d.Write(w)
	})
	if err != nil {
		return fmt.Errorf("write subtitle: %w", err)
	}
	return nil
}

// Sanitize makes text safe for an event Text field.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}
