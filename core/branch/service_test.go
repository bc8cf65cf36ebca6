package branch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
	"github.com/crreddy/polysis/testutil"
)

func TestService_FindByNameOrCode(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := env.Services.Branch
	ctx := context.Background()

	cse := testutil.Insert(t, svc.Service, core.Document{"code": "CSE", "name": "Computer Science", "regulations": []string{" C20 ", "", "C23"}})
	testutil.Insert(t, svc.Service, core.Document{"code": "ECE", "name": "Electronics"})
	assert.Equal(t, primitive.A{"C20", "C23"}, cse["regulations"])

	tests := []struct {
		name, s   string
		wantFound bool
	}{
		{name: "code", s: "CSE", wantFound: true},
		{name: "name", s: " Computer Science ", wantFound: true},
		{name: "partial name", s: "Computer"},
		{name: "other case", s: "cse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := svc.FindByNameOrCode(ctx, tt.s)
			if !tt.wantFound {
				assert.True(t, entity.IsNotFound(err), err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, cse["_id"], doc["_id"])
		})
	}

	docs, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "CSE", docs[0]["code"])

	_, err = svc.Create(ctx, core.Document{"code": "LOL", "name": "Unknown"}, "")
	assert.Error(t, err)
}
