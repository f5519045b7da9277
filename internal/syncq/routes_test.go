package syncq

import (
	"testing"

	"github.com/tradeos/fieldsync/internal/models"
)

func TestRoute(t *testing.T) {
	cases := []struct {
		entity models.EntityType
		action models.Action
		path   string
		method string
	}{
		{models.EntityJob, models.ActionCreate, "/api/jobs", "POST"},
		{models.EntityJob, models.ActionUpdate, "/api/jobs/j1", "PUT"},
		{models.EntityJob, models.ActionDelete, "/api/jobs/j1", "DELETE"},
		{models.EntityTask, models.ActionCreate, "/api/tasks", "POST"},
		{models.EntityTask, models.ActionUpdate, "/api/tasks/j1", "PUT"},
		{models.EntityCustomer, models.ActionCreate, "/api/customers", "POST"},
		{models.EntityCustomer, models.ActionDelete, "/api/customers/j1", "DELETE"},
		{models.EntityPhoto, models.ActionCreate, "/api/photos", "POST"},
		{models.EntityPhoto, models.ActionDelete, "/api/photos/j1", "DELETE"},
	}
	for _, tc := range cases {
		path, method, err := Route(tc.entity, tc.action, "j1")
		if err != nil {
			t.Errorf("Route(%s, %s) errored: %v", tc.entity, tc.action, err)
			continue
		}
		if path != tc.path || method != tc.method {
			t.Errorf("Route(%s, %s) = %s %s, want %s %s",
				tc.entity, tc.action, method, path, tc.method, tc.path)
		}
	}
}

func TestRouteUnknownType(t *testing.T) {
	_, _, err := Route(models.EntityType("invoice"), models.ActionCreate, "x")
	if err == nil {
		t.Error("expected error for unknown entity type")
	}
}

func TestRoutePhotoUpdateRejected(t *testing.T) {
	_, _, err := Route(models.EntityPhoto, models.ActionUpdate, "p1")
	if err == nil {
		t.Error("expected error, photos have no update route")
	}
}
