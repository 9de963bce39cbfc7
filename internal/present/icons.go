package present

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// IconsDir is the directory holding one sub-directory per icon set.
const IconsDir = "icons"

// ExampleIcon is shown next to each set when choosing one.
const ExampleIcon = "tstorms"

// Icons resolves icon names against the icon sets in a workflow directory.
// Returned paths are relative to that directory.
type Icons struct {
	fsys fs.FS
}

// NewIcons creates a resolver over fsys, which must contain IconsDir.
func NewIcons(fsys fs.FS) *Icons {
	return &Icons{fsys: fsys}
}

func (ic *Icons) exists(p string) bool {
	_, err := fs.Stat(ic.fsys, p)
	return err == nil
}

// Resolve returns the icon for name in set. Night icons fall back to their
// day variant, then to the set's default icon, then to ErrorIcon.
func (ic *Icons) Resolve(set, name string) string {
	candidates := []string{path.Join(IconsDir, set, name+".png")}
	if day, ok := strings.CutPrefix(name, "nt_"); ok {
		candidates = append(candidates, path.Join(IconsDir, set, day+".png"))
	}
	candidates = append(candidates, path.Join(IconsDir, set, "default.png"))

	for _, c := range candidates {
		if ic.exists(c) {
			return c
		}
	}
	return ErrorIcon
}

// IconSet describes an installed icon set.
type IconSet struct {
	Name        string
	Description string
	Example     string
}

// Sets lists the installed icon sets by name.
func (ic *Icons) Sets() ([]IconSet, error) {
	entries, err := fs.ReadDir(ic.fsys, IconsDir)
	if err != nil {
		return nil, fmt.Errorf("list icon sets: %w", err)
	}

	var sets []IconSet
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		set := IconSet{
			Name:    e.Name(),
			Example: path.Join(IconsDir, e.Name(), ExampleIcon+".png"),
		}
		if data, err := fs.ReadFile(ic.fsys, path.Join(IconsDir, e.Name(), "info.json")); err == nil {
			var info struct {
				Description string `json:"description"`
			}
			if err := json.Unmarshal(data, &info); err != nil {
				log.Printf("INFO: ignoring bad info.json in icon set %s: %v", e.Name(), err)
			}
			set.Description = info.Description
		}
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	return sets, nil
}

// Has reports whether set is installed.
func (ic *Icons) Has(set string) bool {
	info, err := fs.Stat(ic.fsys, path.Join(IconsDir, set))
	return err == nil && info.IsDir()
}

// iconCodes maps Weather Underground icon names to the numbered files of
// the common 48-icon weather sets.
var iconCodes = map[string]string{
	"chanceflurries":    "13",
	"chancerain":        "39",
	"chancesleet":       "7",
	"chancesnow":        "41",
	"chancetstorms":     "37",
	"clear":             "32",
	"cloudy":            "30",
	"flurries":          "13",
	"fog":               "20",
	"hazy":              "21",
	"mostlycloudy":      "28",
	"mostlysunny":       "34",
	"partlycloudy":      "30",
	"partlysunny":       "30",
	"rain":              "12",
	"sleet":             "6",
	"snow":              "14",
	"sunny":             "32",
	"tstorms":           "0",
	"wind":              "23",
	"nt_chanceflurries": "46",
	"nt_chancerain":     "45",
	"nt_chancesleet":    "46",
	"nt_chancesnow":     "46",
	"nt_chancetstorms":  "47",
	"nt_clear":          "31",
	"nt_cloudy":         "27",
	"nt_mostlycloudy":   "27",
	"nt_mostlysunny":    "33",
	"nt_partlycloudy":   "29",
	"nt_partlysunny":    "29",
	"nt_sunny":          "31",
	"nt_tstorms":        "17",
}

// ImportSet copies a numbered icon set from src into dst under Weather
// Underground names. Missing source files are skipped and reported.
func ImportSet(src, dst string) (missing []string, err error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}

	names := make([]string, 0, len(iconCodes))
	for name := range iconCodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		from := filepath.Join(src, iconCodes[name]+".png")
		to := filepath.Join(dst, name+".png")
		if err := copyFile(from, to); err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, from)
				continue
			}
			return missing, err
		}
	}
	return missing, nil
}

func copyFile(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("create %s: %w", to, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", from, err)
	}
	return out.Close()
}
