package store

// Int reads an integer column from a record; missing and null read as zero.
func Int(rec Record, column string) int64 {
	v, _ := rec[column].(int64)
	return v
}

// Str reads a text column from a record; missing and null read as "".
func Str(rec Record, column string) string {
	v, _ := rec[column].(string)
	return v
}

// Bool reads a boolean column from a record; missing and null read as false.
func Bool(rec Record, column string) bool {
	v, _ := rec[column].(bool)
	return v
}
