package reshaper

import (
	"strings"

	"github.com/turbolytics/cleaner/internal"
)

const (
	keyArity     = 3
	detailsArity = 5
)

/*
Reshape flattens a raw transaction record.

	BigPetStore,storeCode_OK,2	yang,jay,Mon Dec 15 23:33:49 EST 1969,69.56,flea collar

becomes

	storeCode_OK,2,yang,jay,Mon Dec 15 23:33:49 EST 1969,69.56,flea collar

The leading key marker is dropped. Both halves are arity checked; a field
that does not split into exactly 3 (key) or 5 (details) sub-fields is
rejected with a *internal.MalformedRecordError instead of being padded or
truncated.
*/
func Reshape(r internal.RawRecord) (internal.FlatRecord, error) {
	key := strings.Split(r.Key, ",")
	if len(key) != keyArity {
		return internal.FlatRecord{}, &internal.MalformedRecordError{
			Field: "key",
			Want:  keyArity,
			Got:   len(key),
		}
	}

	details := strings.Split(r.Details, ",")
	if len(details) != detailsArity {
		return internal.FlatRecord{}, &internal.MalformedRecordError{
			Field: "details",
			Want:  detailsArity,
			Got:   len(details),
		}
	}

	return internal.FlatRecord{
		Code:        key[1],
		Transaction: key[2],
		LName:       details[0],
		FName:       details[1],
		Date:        details[2],
		Price:       details[3],
		Product:     details[4],
	}, nil
}

// Line parses and reshapes a single input line.
func Line(line string) (internal.FlatRecord, error) {
	raw, err := internal.ParseRawRecord(line)
	if err != nil {
		return internal.FlatRecord{}, err
	}
	return Reshape(raw)
}
