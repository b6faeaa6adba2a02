// internal/store/responses_test.go
package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

func TestResponseStore_ListCompletedRated(t *testing.T) {
	db, mock := setupMockDB(t)

	rating := 4.0
	items, err := json.Marshal([]models.ResponseItem{
		{CompetencyID: "c1", QuestionID: "q1", Rating: &rating, Comment: "solid"},
	})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT r.invitation_id, i.rater_type, r.items").
		WithArgs("assessment-1", models.InvitationStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"invitation_id", "rater_type", "items"}).
			AddRow("inv-1", "peer", items).
			AddRow("inv-2", "self", items))

	store := NewResponseStore(db, logger.NewNoOpLogger())
	rated, err := store.ListCompletedRated(context.Background(), "assessment-1")
	require.NoError(t, err)

	require.Len(t, rated, 2)
	assert.Equal(t, "inv-1", rated[0].InvitationID)
	assert.Equal(t, models.RaterTypePeer, rated[0].RaterType)
	require.Len(t, rated[0].Items, 1)
	require.NotNil(t, rated[0].Items[0].Rating)
	assert.InDelta(t, 4.0, *rated[0].Items[0].Rating, 1e-9)
	assert.Equal(t, models.RaterTypeSelf, rated[1].RaterType)
}

func TestResponseStore_ListCompletedRated_SkipsMalformedItems(t *testing.T) {
	db, mock := setupMockDB(t)

	good, err := json.Marshal([]models.ResponseItem{{CompetencyID: "c1", QuestionID: "q1"}})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT r.invitation_id, i.rater_type, r.items").
		WillReturnRows(sqlmock.NewRows([]string{"invitation_id", "rater_type", "items"}).
			AddRow("inv-1", "peer", []byte("[broken")).
			AddRow("inv-2", "peer", good))

	store := NewResponseStore(db, logger.NewNoOpLogger())
	rated, err := store.ListCompletedRated(context.Background(), "assessment-1")
	require.NoError(t, err)

	require.Len(t, rated, 1)
	assert.Equal(t, "inv-2", rated[0].InvitationID)
}

func TestResponseStore_ListCompletedRated_Empty(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT r.invitation_id, i.rater_type, r.items").
		WillReturnRows(sqlmock.NewRows([]string{"invitation_id", "rater_type", "items"}))

	store := NewResponseStore(db, logger.NewNoOpLogger())
	rated, err := store.ListCompletedRated(context.Background(), "assessment-1")
	require.NoError(t, err)
	assert.Empty(t, rated)
}
