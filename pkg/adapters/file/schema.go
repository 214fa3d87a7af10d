package file

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed session.schema.json
var sessionSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(sessionSchema)

// ErrInvalidSession is returned when a session file does not match the schema.
var ErrInvalidSession = errors.New("session file does not match schema")

// validate checks a session document before it is decoded, so a hand-edited
// or truncated file is reported with every violation instead of a decode error.
func validate(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidSession, strings.Join(msgs, "; "))
}
