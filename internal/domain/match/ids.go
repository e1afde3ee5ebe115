package match

import (
	"strings"

	"github.com/hirestorm/matchd/internal/domain/model"
)

// VectorID builds the index-side id for an entity: the kind prefixed onto
// the entity id, e.g. "job_42". Prefixing keeps ids unique across entity
// kinds sharing one index namespace.
func VectorID(kind model.EntityKind, id string) string {
	return string(kind) + "_" + id
}

// EntityID strips the kind prefix from an index-side id. Ids without a
// known prefix are returned unchanged.
func EntityID(vectorID string) string {
	for _, kind := range []model.EntityKind{model.KindUser, model.KindJob, model.KindInternship, model.KindResume} {
		prefix := string(kind) + "_"
		if strings.HasPrefix(vectorID, prefix) {
			return vectorID[len(prefix):]
		}
	}
	return vectorID
}
