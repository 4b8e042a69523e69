package handler

import (
	"net/http"
	"testing"

	activityapp "github.com/miv/backend/internal/application/activity"
	"github.com/miv/backend/internal/interfaces/http/dto"
	"github.com/miv/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityHandler_Record(t *testing.T) {
	f := newPortfolioFixture(t)
	v := f.createVenture(t, kilimo())

	w := f.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/activities", Body: map[string]any{
		"title":      "Site visit done",
		"venture_id": v.ID,
		"metadata":   map[string]any{"visited_by": "field team"},
	}})
	note := testutil.DecodeData[activityapp.ActivityResponse](t, w, http.StatusCreated)
	assert.Equal(t, "NOTE", note.Type)
	require.NotNil(t, note.UserID)
	assert.Equal(t, f.user.ID, *note.UserID)
	require.NotNil(t, note.VentureID)
	assert.Equal(t, v.ID, *note.VentureID)
	assert.Equal(t, "field team", note.Metadata["visited_by"])

	w = f.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/activities", Body: map[string]any{"title": "Q3 board pack", "type": "CUSTOM"}})
	custom := testutil.DecodeData[activityapp.ActivityResponse](t, w, http.StatusCreated)
	assert.Equal(t, "CUSTOM", custom.Type)
	assert.Nil(t, custom.VentureID)

	// system entries only come from events
	w = f.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/activities", Body: map[string]any{"title": "Stage changed", "type": "STAGE_CHANGE"}})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = f.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/activities", Body: map[string]any{"type": "NOTE"}})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestActivityHandler_ListAndRecent(t *testing.T) {
	f := newPortfolioFixture(t)
	v := f.createVenture(t, kilimo())
	for _, body := range []map[string]any{
		{"title": "Intro call", "venture_id": v.ID},
		{"title": "Term sheet sent", "venture_id": v.ID},
		{"title": "Portfolio review"},
	} {
		w := f.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/activities", Body: body})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := f.do(t, testutil.Request{Path: "/api/activities?venture_id=" + v.ID.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := testutil.DecodeEnvelope(t, w)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 2, env.Meta.Total)

	w = f.do(t, testutil.Request{Path: "/api/activities?user_id=" + f.user.ID.String() + "&type=note"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 3, testutil.DecodeEnvelope(t, w).Meta.Total)

	w = f.do(t, testutil.Request{Path: "/api/activities?venture_id=bogus"})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)

	w = f.do(t, testutil.Request{Path: "/api/activities/recent?limit=2"})
	recent := testutil.DecodeData[[]activityapp.ActivityResponse](t, w, http.StatusOK)
	assert.Len(t, recent, 2)

	w = f.do(t, testutil.Request{Path: "/api/activities/recent?venture_id=" + v.ID.String()})
	recent = testutil.DecodeData[[]activityapp.ActivityResponse](t, w, http.StatusOK)
	assert.Len(t, recent, 2)

	w = f.do(t, testutil.Request{Path: "/api/activities/recent?limit=ten"})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
}
