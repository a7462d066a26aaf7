package booking

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReference generates a human-readable booking reference such as
// ALB-2026-9F3A21C4. It is generated exactly once at creation and never
// regenerated on update; the storage layer enforces global uniqueness with
// a unique index.
func NewReference(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("ALB-%d-%s", now.UTC().Year(), strings.ToUpper(hex.EncodeToString(id[:4])))
}
