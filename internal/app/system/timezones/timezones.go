// Package timezones holds the curated list of zones an EdirHub deployment
// may run in. Edirs are mostly in East Africa and its diaspora, so the list
// stays short.
package timezones

import (
	"embed"
	"encoding/json"
	"sync"
	"time"
	_ "time/tzdata" // zone data for hosts without /usr/share/zoneinfo
)

//go:embed timezonedata/timezones.json
var FS embed.FS

type Zone struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Region string `json:"region,omitempty"`
}

var (
	loadOnce sync.Once
	zones    []Zone
	byID     map[string]Zone
	loadErr  error
)

func load() {
	loadOnce.Do(func() {
		data, err := FS.ReadFile("timezonedata/timezones.json")
		if err != nil {
			loadErr = err
			return
		}
		var list []Zone
		if err := json.Unmarshal(data, &list); err != nil {
			loadErr = err
			return
		}
		zones = list
		byID = make(map[string]Zone, len(list))
		for _, z := range list {
			byID[z.ID] = z
		}
	})
}

// All returns the curated zones in file order.
func All() ([]Zone, error) {
	load()
	return zones, loadErr
}

// Label returns the human-friendly label for an ID, or the ID itself if not found.
func Label(id string) string {
	load()
	if z, ok := byID[id]; ok && z.Label != "" {
		return z.Label
	}
	return id
}

// Valid reports whether id is in the curated list.
func Valid(id string) bool {
	load()
	_, ok := byID[id]
	return ok
}

// Location loads a curated zone. Unknown IDs fall back to UTC with ok=false.
func Location(id string) (loc *time.Location, ok bool) {
	if !Valid(id) {
		return time.UTC, false
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}
