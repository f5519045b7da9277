package syncq

import (
	"fmt"

	"github.com/tradeos/fieldsync/internal/models"
)

// apiPrefix is the path prefix of the remote endpoint family.
const apiPrefix = "/api"

// collectionPath maps an entity type to its pluralized collection
// endpoint. Unknown types are an explicit error, never a fallthrough.
func collectionPath(t models.EntityType) (string, error) {
	switch t {
	case models.EntityJob:
		return apiPrefix + "/jobs", nil
	case models.EntityTask:
		return apiPrefix + "/tasks", nil
	case models.EntityCustomer:
		return apiPrefix + "/customers", nil
	case models.EntityPhoto:
		return apiPrefix + "/photos", nil
	}
	return "", fmt.Errorf("unknown entity type: %q", t)
}

// Route derives the remote path and HTTP method for a mutation. The
// mapping is deterministic: create posts to the collection endpoint,
// update and delete address the entity endpoint. Photos are immutable
// once uploaded, so a photo update has no route.
func Route(t models.EntityType, a models.Action, entityID string) (path, method string, err error) {
	base, err := collectionPath(t)
	if err != nil {
		return "", "", err
	}

	switch a {
	case models.ActionCreate:
		return base, "POST", nil
	case models.ActionUpdate:
		if t == models.EntityPhoto {
			return "", "", fmt.Errorf("photos are immutable, no update route")
		}
		return base + "/" + entityID, "PUT", nil
	case models.ActionDelete:
		return base + "/" + entityID, "DELETE", nil
	}
	return "", "", fmt.Errorf("unknown action: %q", a)
}
