package document

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	ventureID := uuid.New()

	t.Run("creates pending document with scoped key", func(t *testing.T) {
		d, err := NewDocument(&ventureID, "Pitch Deck 2026.pdf", TypePitchDeck, "application/pdf", 1024, 10<<20, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusPendingUpload, d.Status)
		assert.True(t, strings.HasPrefix(d.StorageKey, "documents/ventures/"+ventureID.String()+"/"))
		assert.True(t, strings.HasSuffix(d.StorageKey, "/Pitch_Deck_2026.pdf"))
	})

	t.Run("general scope without venture", func(t *testing.T) {
		d, err := NewDocument(nil, "policy.docx", "", "", 0, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, TypeOther, d.Type)
		assert.True(t, strings.HasPrefix(d.StorageKey, "documents/general/"))
	})

	t.Run("rejects oversize", func(t *testing.T) {
		_, err := NewDocument(&ventureID, "big.pdf", TypeLegal, "application/pdf", 11<<20, 10<<20, nil)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "FILE_TOO_LARGE", de.Code)
	})

	t.Run("rejects unknown type and empty name", func(t *testing.T) {
		_, err := NewDocument(&ventureID, "x.pdf", Type("SPREADSHEET"), "", 1, 0, nil)
		assert.Error(t, err)
		_, err = NewDocument(&ventureID, "  ", TypeLegal, "", 1, 0, nil)
		assert.Error(t, err)
	})
}

func TestDocument_MarkUploaded(t *testing.T) {
	ventureID := uuid.New()
	d, err := NewDocument(&ventureID, "plan.pdf", TypeBusinessPlan, "application/pdf", 0, 0, nil)
	require.NoError(t, err)

	require.NoError(t, d.MarkUploaded(2048, nil))
	assert.True(t, d.IsUploaded())
	assert.Equal(t, int64(2048), d.SizeBytes)

	events := d.GetDomainEvents()
	require.Len(t, events, 1)
	uploaded := events[0].(*DocumentUploadedEvent)
	require.NotNil(t, uploaded.VentureID)
	assert.Equal(t, ventureID.String(), *uploaded.VentureID)

	assert.Error(t, d.MarkUploaded(0, nil))
}

func TestDocument_Rename(t *testing.T) {
	d, err := NewDocument(nil, "a.pdf", TypeOther, "", 0, 0, nil)
	require.NoError(t, err)
	expires := time.Now().Add(24 * time.Hour)

	require.NoError(t, d.Rename("Lease agreement", TypeLegal, &expires))
	assert.Equal(t, "Lease agreement", d.Name)
	assert.Equal(t, TypeLegal, d.Type)
	assert.Equal(t, &expires, d.ExpiresAt)

	assert.Error(t, d.Rename("x", Type("NOPE"), nil))
}
