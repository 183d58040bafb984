package session

import "github.com/oryx-bolt/go-bolt/packstream"

// RecordRow is one RECORD's values, paired with the field-name list declared
// by the preceding RUN's SUCCESS, please read @spec section 3 "Record
// result row". Invariant: len(Values()) == len(Fields()); newRecordRow
// rejects any record that violates it.
type RecordRow struct {
	fields []string
	values []packstream.Value
}

func newRecordRow(fields []string, values []packstream.Value) (*RecordRow, error) {
	if len(fields) != len(values) {
		return nil, ErrFieldsRecordMismatch
	}
	return &RecordRow{fields: fields, values: values}, nil
}

// Fields returns the field names in declaration order.
func (r *RecordRow) Fields() []string { return r.fields }

// Values returns the row's values in the same order as Fields.
func (r *RecordRow) Values() []packstream.Value { return r.values }

// Get looks a value up by its declared field name.
func (r *RecordRow) Get(name string) (packstream.Value, bool) {
	for i, f := range r.fields {
		if f == name {
			return r.values[i], true
		}
	}
	return packstream.Value{}, false
}

// buildRows pairs every record in records with fields, please read
// @spec section 3.
func buildRows(fields []string, records [][]packstream.Value) ([]*RecordRow, error) {
	rows := make([]*RecordRow, 0, len(records))
	for _, rec := range records {
		row, err := newRecordRow(fields, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func bookmarkFromMetadata(m *packstream.Map) Bookmark {
	v, ok := m.Get("bookmark")
	if !ok {
		return ""
	}
	s, _ := v.Text()
	return Bookmark(s)
}
