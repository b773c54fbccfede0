package internal

import (
	"strings"
)

// FlatColumns is the column order of every FlatRecord.
// Serializers rely on this order, so it must not change.
var FlatColumns = []string{
	"code",
	"transaction",
	"lname",
	"fname",
	"date",
	"price",
	"product",
}

// RawRecord is one input line split on its first tab.
// Key holds "marker,code,transaction" and Details holds
// "lname,fname,date,price,product".
type RawRecord struct {
	Key     string
	Details string
}

// ParseRawRecord splits a raw input line into its key and details halves.
// A trailing carriage return is dropped. Anything after the first tab,
// including further tabs, belongs to Details.
func ParseRawRecord(line string) (RawRecord, error) {
	line = strings.TrimSuffix(line, "\r")

	key, details, found := strings.Cut(line, "\t")
	if !found {
		return RawRecord{}, &MalformedRecordError{
			Field: "line",
			Want:  2,
			Got:   1,
		}
	}

	return RawRecord{
		Key:     key,
		Details: details,
	}, nil
}

// FlatRecord is the reshaped row. All fields are opaque strings.
type FlatRecord struct {
	Code        string
	Transaction string
	LName       string
	FName       string
	Date        string
	Price       string
	Product     string
}

func (r FlatRecord) Len() int {
	return len(FlatColumns)
}

// Values returns the fields in FlatColumns order.
func (r FlatRecord) Values() []string {
	return []string{
		r.Code,
		r.Transaction,
		r.LName,
		r.FName,
		r.Date,
		r.Price,
		r.Product,
	}
}

// String renders the record in the comma separated output format,
// without a trailing newline.
func (r FlatRecord) String() string {
	return strings.Join(r.Values(), ",")
}
