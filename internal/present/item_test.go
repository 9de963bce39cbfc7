package present

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeXML(t *testing.T) {
	items := []Item{
		{UID: "wund", Title: "Weather Underground", Arg: "http://x/?a=1&b=2", Icon: DefaultIcon, Valid: true},
		NewItem("Invalid units", ""),
	}

	var buf bytes.Buffer
	enc := Encoder{BundleID: "com.example.weather", Format: FormatXML}
	if err := enc.Encode(&buf, items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, `<?xml version="1.0"?><items><item uid="com.example.weather-wund" valid="yes" arg="http://x/?a=1&amp;b=2">`) {
		t.Fatalf("unexpected xml prefix: %s", out)
	}
	if !strings.Contains(out, `<title>Invalid units</title><icon>icon.png</icon>`) {
		t.Fatalf("expected second item without subtitle: %s", out)
	}
	if !strings.Contains(out, `valid="no"`) {
		t.Fatalf("expected non-actionable item: %s", out)
	}
	if strings.Count(out, "<item ") != 2 {
		t.Fatalf("expected 2 items: %s", out)
	}
}

func TestEncodeJSONGeneratesUIDs(t *testing.T) {
	items := []Item{
		{Title: "a", Icon: ""},
		{Title: "b", Icon: ErrorIcon},
	}

	var buf bytes.Buffer
	if err := (Encoder{Format: FormatJSON}).Encode(&buf, items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		Items []struct {
			UID  string `json:"uid"`
			Icon *struct {
				Path string `json:"path"`
			} `json:"icon"`
		} `json:"items"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(doc.Items))
	}
	if doc.Items[0].UID == "" || doc.Items[0].UID == doc.Items[1].UID {
		t.Fatalf("expected distinct random uids, got %q and %q", doc.Items[0].UID, doc.Items[1].UID)
	}
	if doc.Items[0].Icon != nil || doc.Items[1].Icon.Path != ErrorIcon {
		t.Fatalf("unexpected icons %+v", doc.Items)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	if err := (Encoder{Format: "yaml"}).Encode(&bytes.Buffer{}, nil); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
