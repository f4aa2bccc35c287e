package config

import (
	_ "embed"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ErrInvalid is returned by Validate when a configuration violates the schema.
var ErrInvalid = errors.New("config: invalid page configuration")

//go:embed schema.cue
var schemaSource string

// Validate checks v against the page configuration schema. Keys the schema
// does not name are allowed.
func Validate(v Value) error {
	if _, ok := v.(Mapping); !ok {
		return fmt.Errorf("%w: top level must be a mapping", ErrInvalid)
	}

	// cue.Context is not safe for concurrent use, so each call builds its own.
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling page config schema: %w", err)
	}
	schema = schema.LookupPath(cue.ParsePath("#PageConfig"))

	data := ctx.Encode(ToAny(v))
	if err := data.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := schema.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
