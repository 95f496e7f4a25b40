package models

import "time"

// NotAvailable is the placeholder stored for any field that could not be read.
const NotAvailable = "N/A"

// TimestampLayout is the layout of Record.ExtractedTime.
const TimestampLayout = "2006-01-02 15:04:05"

// Column names of the persisted record file, in header order.
const (
	ColName          = "name"
	ColRating        = "rating"
	ColReviews       = "reviews"
	ColAddress       = "address"
	ColPhone         = "phone"
	ColWebsite       = "website"
	ColLatitude      = "latitude"
	ColLongitude     = "longitude"
	ColExtractedTime = "extracted_time"
	ColEmails        = "emails"
)

// RecordColumns is the fixed header of the record file.
var RecordColumns = []string{
	ColName, ColRating, ColReviews, ColAddress, ColPhone,
	ColWebsite, ColLatitude, ColLongitude, ColExtractedTime,
}

// Record is one business listing pulled from the results feed.
//
// Values are kept as the text shown in the feed; nothing is parsed into
// numbers so a round trip through the CSV file is lossless.
type Record struct {
	Name          string
	Rating        string
	Reviews       string
	Address       string
	Phone         string
	Website       string
	Latitude      string
	Longitude     string
	ExtractedTime string
}

// Key identifies a physical place across runs.
//
// Two different places that display the same name and address collapse into
// one key; the feed offers nothing better to tell them apart.
type Key struct {
	Name    string
	Address string
}

// NewRecord returns a record with every field set to NotAvailable and the
// extraction time stamped from now.
func NewRecord(now time.Time) Record {
	return Record{
		Name:          NotAvailable,
		Rating:        NotAvailable,
		Reviews:       NotAvailable,
		Address:       NotAvailable,
		Phone:         NotAvailable,
		Website:       NotAvailable,
		Latitude:      NotAvailable,
		Longitude:     NotAvailable,
		ExtractedTime: now.Format(TimestampLayout),
	}
}

// Key returns the identity key of the record.
func (r Record) Key() Key {
	return Key{Name: r.Name, Address: r.Address}
}

// HasWebsite reports whether the record carries a usable website value.
func (r Record) HasWebsite() bool {
	return Available(r.Website)
}

// Row returns the record's values in RecordColumns order.
func (r Record) Row() []string {
	return []string{
		r.Name, r.Rating, r.Reviews, r.Address, r.Phone,
		r.Website, r.Latitude, r.Longitude, r.ExtractedTime,
	}
}

// Field returns the value of the named record column; ok is false for a
// column a Record does not carry.
func (r Record) Field(col string) (value string, ok bool) {
	switch col {
	case ColName:
		return r.Name, true
	case ColRating:
		return r.Rating, true
	case ColReviews:
		return r.Reviews, true
	case ColAddress:
		return r.Address, true
	case ColPhone:
		return r.Phone, true
	case ColWebsite:
		return r.Website, true
	case ColLatitude:
		return r.Latitude, true
	case ColLongitude:
		return r.Longitude, true
	case ColExtractedTime:
		return r.ExtractedTime, true
	}
	return "", false
}

// Project lays the record out under header cols. Unknown columns are
// filled with NotAvailable.
func (r Record) Project(cols []string) []string {
	row := make([]string, len(cols))
	for i, col := range cols {
		if v, ok := r.Field(col); ok {
			row[i] = v
		} else {
			row[i] = NotAvailable
		}
	}
	return row
}

// RecordFromFields builds a record from a column->value lookup. Columns the
// lookup does not know about come back as NotAvailable.
func RecordFromFields(get func(col string) (string, bool)) Record {
	val := func(col string) string {
		if v, ok := get(col); ok {
			return v
		}
		return NotAvailable
	}
	return Record{
		Name:          val(ColName),
		Rating:        val(ColRating),
		Reviews:       val(ColReviews),
		Address:       val(ColAddress),
		Phone:         val(ColPhone),
		Website:       val(ColWebsite),
		Latitude:      val(ColLatitude),
		Longitude:     val(ColLongitude),
		ExtractedTime: val(ColExtractedTime),
	}
}

// Available reports whether v holds a real value rather than the placeholder.
func Available(v string) bool {
	return v != "" && v != NotAvailable
}
