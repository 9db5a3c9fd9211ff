package outbound

import (
	"context"

	"github.com/ajkula/GoAutoSync/domain/model"
)

// ObjectStore transfers a local file to remote storage.
// Implementations must not retry on their own behalf beyond what the
// underlying client is configured to do.
type ObjectStore interface {
	// uploads task.SourcePath under task.DestinationKey, returns bytes sent
	Upload(ctx context.Context, task model.UploadTask) (int64, error)
}
