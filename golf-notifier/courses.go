package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	unknown        = "Unknown"
	notAvailable   = "N/A"
	entrySeparator = "\n---\n"
)

// Field is a JSON scalar kept as the text it was sent as. Absent and null
// fields stay unset.
type Field struct {
	Value string
	Set   bool
}

func (f *Field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = Field{}
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Field{Value: s, Set: true}
		return nil
	}

	// numbers and booleans keep their JSON text, e.g. 20000000.0 or true
	*f = Field{Value: string(b), Set: true}
	return nil
}

func (f Field) Or(def string) string {
	if !f.Set {
		return def
	}
	return f.Value
}

type Course struct {
	TournamentID Field `json:"TournamentID"`
	Name         Field `json:"Name"`
	StartDate    Field `json:"StartDate"`
	EndDate      Field `json:"EndDate"`
	Venue        Field `json:"Venue"`
	Location     Field `json:"Location"`
	Par          Field `json:"Par"`
	Yards        Field `json:"Yards"`
	Purse        Field `json:"Purse"`
	City         Field `json:"City"`
	State        Field `json:"State"`
	ZipCode      Field `json:"ZipCode"`
	Country      Field `json:"Country"`
	TimeZone     Field `json:"TimeZone"`
	Format       Field `json:"Format"`
}

// FilterByYear keeps courses whose start or end date text begins with year.
// It is a literal prefix test; dates are never parsed.
func FilterByYear(courses []Course, year string) []Course {
	var out []Course
	for _, c := range courses {
		if strings.HasPrefix(c.StartDate.Value, year) || strings.HasPrefix(c.EndDate.Value, year) {
			out = append(out, c)
		}
	}
	return out
}

var courseTemplate = "Tournament: %s (ID: %s)\n" +
	"Venue: %s, %s\n" +
	"Dates: %s to %s\n" +
	"Par: %s, Yards: %s, Purse: $%s\n" +
	"City: %s, State: %s, Zip Code: %s, Country: %s\n" +
	"Time Zone: %s, Format: %s\n"

func FormatCourse(c Course) string {
	return fmt.Sprintf(courseTemplate,
		c.Name.Or(unknown), c.TournamentID.Or(unknown),
		c.Venue.Or(unknown), c.Location.Or(unknown),
		c.StartDate.Or(unknown), c.EndDate.Or(unknown),
		c.Par.Or(notAvailable), c.Yards.Or(notAvailable), c.Purse.Or(notAvailable),
		c.City.Or(unknown), c.State.Or(unknown), c.ZipCode.Or(unknown), c.Country.Or(unknown),
		c.TimeZone.Or(unknown), c.Format.Or(unknown),
	)
}

func FormatMessage(courses []Course) string {
	blocks := make([]string, 0, len(courses))
	for _, c := range courses {
		blocks = append(blocks, FormatCourse(c))
	}
	return strings.Join(blocks, entrySeparator)
}
