package query

import (
	"fmt"

	"github.com/abdul-hamid-achik/stopwatch/packages/core/fsutil"
)

// saveAtomically writes body to path so readers never observe a partial
// file. Failures wrap ErrPersistence.
func saveAtomically(path string, body []byte) error {
	resolved, err := fsutil.ExpandPath(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := fsutil.WriteFileAtomic(resolved, body, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
