// internal/scoring/assembler/schema.go
package assembler

import (
	_ "embed"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"assessment-engine/internal/common/errors"
)

//go:embed snapshot_schema.json
var snapshotSchemaJSON string

// validateSnapshot checks the marshaled snapshot against the embedded
// schema before it is persisted. A schema failure means a programming
// error upstream, never bad user input, so it aborts the run.
func validateSnapshot(snapshot []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(snapshotSchemaJSON)
	documentLoader := gojsonschema.NewBytesLoader(snapshot)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.NewSnapshotValidationFailedError(err.Error())
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return errors.NewSnapshotValidationFailedError(strings.Join(errs, "; "))
	}
	return nil
}
