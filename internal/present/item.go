package present

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// DefaultIcon is shown when an item does not set one.
const DefaultIcon = "icon.png"

// ErrorIcon marks alerts and failures.
const ErrorIcon = "error.png"

// Item is one entry in the launcher result list.
type Item struct {
	// UID is prefixed with the bundle id when set; unset UIDs are random so
	// the launcher does not reorder entries by usage.
	UID      string `json:"uid,omitempty"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Icon     string `json:"icon"`
	Arg      string `json:"arg,omitempty"`
	Valid    bool   `json:"valid"`
}

// NewItem returns a non-actionable item with the default icon.
func NewItem(title, subtitle string) Item {
	return Item{Title: title, Subtitle: subtitle, Icon: DefaultIcon}
}

// ErrorItem returns a single failure entry.
func ErrorItem(title, subtitle string) Item {
	return Item{Title: title, Subtitle: subtitle, Icon: ErrorIcon}
}

// Format selects the serialization understood by the launcher.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

// Encoder writes item lists for the launcher.
type Encoder struct {
	BundleID string
	Format   Format
}

func (e Encoder) uid(it Item) string {
	if it.UID == "" {
		return uuid.NewString()
	}
	if e.BundleID == "" {
		return it.UID
	}
	return e.BundleID + "-" + it.UID
}

type xmlItems struct {
	XMLName xml.Name  `xml:"items"`
	Items   []xmlItem `xml:"item"`
}

type xmlItem struct {
	UID      string `xml:"uid,attr"`
	Valid    string `xml:"valid,attr"`
	Arg      string `xml:"arg,attr,omitempty"`
	Title    string `xml:"title"`
	Subtitle string `xml:"subtitle,omitempty"`
	Icon     string `xml:"icon"`
}

type jsonItems struct {
	Items []jsonItem `json:"items"`
}

type jsonItem struct {
	UID      string    `json:"uid"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Arg      string    `json:"arg,omitempty"`
	Icon     *jsonIcon `json:"icon,omitempty"`
	Valid    bool      `json:"valid"`
}

type jsonIcon struct {
	Path string `json:"path"`
}

// Encode writes items to w.
func (e Encoder) Encode(w io.Writer, items []Item) error {
	switch e.Format {
	case FormatJSON:
		return e.encodeJSON(w, items)
	case FormatXML, "":
		return e.encodeXML(w, items)
	default:
		return fmt.Errorf("unknown output format %q", e.Format)
	}
}

func (e Encoder) encodeXML(w io.Writer, items []Item) error {
	doc := xmlItems{Items: make([]xmlItem, 0, len(items))}
	for _, it := range items {
		valid := "no"
		if it.Valid {
			valid = "yes"
		}
		doc.Items = append(doc.Items, xmlItem{
			UID:      e.uid(it),
			Valid:    valid,
			Arg:      it.Arg,
			Title:    it.Title,
			Subtitle: it.Subtitle,
			Icon:     it.Icon,
		})
	}

	if _, err := io.WriteString(w, `<?xml version="1.0"?>`); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(doc)
}

func (e Encoder) encodeJSON(w io.Writer, items []Item) error {
	doc := jsonItems{Items: make([]jsonItem, 0, len(items))}
	for _, it := range items {
		ji := jsonItem{
			UID:      e.uid(it),
			Title:    it.Title,
			Subtitle: it.Subtitle,
			Arg:      it.Arg,
			Valid:    it.Valid,
		}
		if it.Icon != "" {
			ji.Icon = &jsonIcon{Path: it.Icon}
		}
		doc.Items = append(doc.Items, ji)
	}
	return json.NewEncoder(w).Encode(doc)
}
