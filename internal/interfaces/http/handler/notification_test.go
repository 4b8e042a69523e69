package handler

import (
	"errors"
	"net/http"
	"testing"

	notificationapp "github.com/miv/backend/internal/application/notification"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/interfaces/http/dto"
	"github.com/miv/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *portfolioFixture) notify(t *testing.T, userID string, title string) notificationapp.NotificationResponse {
	t.Helper()
	w := f.do(t, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/notifications",
		Body:   map[string]any{"user_id": userID, "title": title, "type": "WARNING"},
	})
	return testutil.DecodeData[notificationapp.NotificationResponse](t, w, http.StatusCreated)
}

func TestNotificationHandler_Inbox(t *testing.T) {
	f := newPortfolioFixture(t)
	other := testutil.CreateUser(t, f.db, "analyst@miv.test", identity.RoleAnalyst)

	mine := f.notify(t, f.user.ID.String(), "Review due for Kilimo Fresh")
	assert.Equal(t, "WARNING", mine.Type)
	assert.False(t, mine.Read)
	theirs := f.notify(t, other.ID.String(), "Welcome")

	w := f.do(t, testutil.Request{Path: "/api/notifications/unread-count"})
	count := testutil.DecodeData[notificationapp.UnreadCountResponse](t, w, http.StatusOK)
	assert.EqualValues(t, 1, count.Unread)

	w = f.do(t, testutil.Request{Path: "/api/notifications"})
	items := testutil.DecodeData[[]notificationapp.NotificationResponse](t, w, http.StatusOK)
	require.Len(t, items, 1)
	assert.Equal(t, mine.ID, items[0].ID)

	// other users' notifications look missing
	w = f.do(t, testutil.Request{Method: http.MethodPut, Path: "/api/notifications/" + theirs.ID.String() + "/read"})
	testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	w = f.do(t, testutil.Request{Method: http.MethodDelete, Path: "/api/notifications/" + theirs.ID.String()})
	testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = f.do(t, testutil.Request{Method: http.MethodPut, Path: "/api/notifications/" + mine.ID.String() + "/read"})
	read := testutil.DecodeData[notificationapp.NotificationResponse](t, w, http.StatusOK)
	assert.True(t, read.Read)
	assert.NotNil(t, read.ReadAt)

	w = f.do(t, testutil.Request{Path: "/api/notifications?unread_only=true"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 0, testutil.DecodeEnvelope(t, w).Meta.Total)

	w = f.do(t, testutil.Request{Method: http.MethodPut, Path: "/api/notifications/read-all"})
	all := testutil.DecodeData[notificationapp.MarkAllReadResponse](t, w, http.StatusOK)
	assert.EqualValues(t, 0, all.Updated)

	w = f.do(t, testutil.Request{Method: http.MethodDelete, Path: "/api/notifications/" + mine.ID.String()})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestNotificationHandler_Create_Rejections(t *testing.T) {
	f := newPortfolioFixture(t)

	w := f.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/notifications", Body: map[string]any{
		"user_id": f.user.ID, "title": "Hi", "type": "URGENT",
	}})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = f.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/notifications", Body: map[string]any{
		"user_id": testutil.NewTestUUID("ghost"), "title": "Hi",
	}})
	testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = f.do(t, testutil.Request{Method: http.MethodPut, Path: "/api/notifications/nope/read"})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)
}

func TestNotificationHandler_Emails(t *testing.T) {
	f := newPortfolioFixture(t)

	w := f.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/emails", Body: map[string]any{
		"to": "founder@kilimo.test, cfo@kilimo.test", "subject": "Screening scheduled", "body": "See you Monday",
	}})
	sent := testutil.DecodeData[notificationapp.EmailLogResponse](t, w, http.StatusCreated)
	assert.Equal(t, "SENT", sent.Status)
	assert.NotNil(t, sent.SentAt)
	assert.Equal(t, []string{"Screening scheduled"}, f.mailer.subjects)

	f.mailer.err = errors.New("smtp: 554 rejected")
	w = f.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/emails", Body: map[string]any{
		"to": "founder@kilimo.test", "subject": "Term sheet",
	}})
	testutil.AssertError(t, w, http.StatusBadGateway, dto.ErrCodeEmailDelivery)

	// the failed send is still logged
	w = f.do(t, testutil.Request{Path: "/api/emails?status=failed"})
	failed := testutil.DecodeData[[]notificationapp.EmailLogResponse](t, w, http.StatusOK)
	require.Len(t, failed, 1)
	assert.Equal(t, "Term sheet", failed[0].Subject)
	assert.Contains(t, failed[0].Error, "554")

	w = f.do(t, testutil.Request{Path: "/api/emails?status=BOUNCED"})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = f.do(t, testutil.Request{Path: "/api/emails/" + sent.ID.String()})
	got := testutil.DecodeData[notificationapp.EmailLogResponse](t, w, http.StatusOK)
	assert.Equal(t, sent.ID, got.ID)

	w = f.do(t, testutil.Request{Path: "/api/emails/" + testutil.NewTestUUID("no-email").String()})
	testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = f.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/emails", Body: map[string]any{"subject": "No recipient"}})
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}
