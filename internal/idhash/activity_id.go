package idhash

import (
	"fmt"

	"github.com/google/uuid"

	"unicorn-dashboard/internal/domain"
)

// activityNamespace scopes activity ids so they never collide with other v5 ids.
var activityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("unicorn-dashboard/activity"))

// ComputeActivityID computes a deterministic activity entry id (UUID v5).
// Formula: SHA1(namespace, category|record_id|timestamp_ms|seq)
func ComputeActivityID(
	category domain.ActivityCategory,
	recordID string,
	timestampMs int64,
	seq uint64,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		string(category),
		recordID,
		timestampMs,
		seq,
	)

	return uuid.NewSHA1(activityNamespace, []byte(data)).String()
}
