// internal/store/id.go
package store

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDFunc produces record ids; swapped out in tests.
type IDFunc func(prefix string) string

// NewID returns "<prefix>_<unix millis>_<9 random chars>".
func NewID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return prefix + "_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + suffix
}

// SequentialIDs returns an IDFunc yielding prefix_1, prefix_2, ...
func SequentialIDs() IDFunc {
	var n atomic.Int64
	return func(prefix string) string {
		return prefix + "_" + strconv.FormatInt(n.Add(1), 10)
	}
}
