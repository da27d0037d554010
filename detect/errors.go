package detect

import "errors"

var (
	ErrAllEncodingsFailed = errors.New("no candidate encoding could read the file")
	ErrUnknownEncoding    = errors.New("unknown encoding label")
	ErrTooManyReplacement = errors.New("too many undecodable bytes")
	ErrNoHeader           = errors.New("no header row")
	ErrNativeNotDelimited = errors.New("native spreadsheet content is not delimited text")
)
