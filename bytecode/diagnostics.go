package bytecode

import (
	"fmt"

	"github.com/tliron/commonlog"
)

// noteVersionProducer is the Error & Diagnostic Adapter from spec.md §4.8:
// every diagnostic emitted during a parse gets a trailing note recording
// the bytecode version and producer string, once both are known. Before
// the version and producer have been read, err is returned unmodified.
func (r *Reader) noteVersionProducer(err error) error {
	if err == nil || !r.versionKnown {
		return err
	}
	annotated := fmt.Errorf("%w (in bytecode version %d produced by: %s)", err, r.version, r.producer)
	commonlog.NewErrorMessage(0, annotated.Error())
	return annotated
}
