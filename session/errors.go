package session

import "errors"

// ErrFieldsRecordMismatch is returned when a RECORD's value count does not
// match the field-name list declared by the preceding RUN's SUCCESS, please
// read @spec section 3 "Record result row" invariant.
var ErrFieldsRecordMismatch = errors.New("session: record field count does not match declared fields")
