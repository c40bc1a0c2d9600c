package storage

import (
	"fmt"
	"time"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/model"
)

// ArchiveKey locates one archived HYCOM extraction.
type ArchiveKey struct {
	Source    string // "hycom"
	RunType   model.RunType
	Day       time.Time
	RunID     model.RunID
	Extension string // e.g. "nc.zst"
}

func (k ArchiveKey) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s.%s", k.Source, k.RunType, k.Day.UTC().Format("2006-01-02"), k.RunID, k.Extension)
}
