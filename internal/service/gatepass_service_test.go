package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/export"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/storage"
)

type countingRenderer struct {
	calls int
	inner *export.PDFExporter
}

func (r *countingRenderer) Render(doc export.Document) ([]byte, error) {
	r.calls++
	return r.inner.Render(doc)
}

func newGatePassFixture(t *testing.T) (*GatePassService, *outpassFixture, *countingRenderer) {
	t.Helper()
	f := newOutpassFixture(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	renderer := &countingRenderer{inner: export.NewPDFExporter()}
	signer := storage.NewSignedURLSigner("gate-secret", time.Hour)
	svc := NewGatePassService(f.svc, renderer, store, signer, "/api/v1/", zap.NewNop())
	return svc, f, renderer
}

func TestGatePassServiceRendersApprovedOnly(t *testing.T) {
	svc, f, renderer := newGatePassFixture(t)
	ctx := context.Background()
	view := submitAs(t, f, studentClaims)

	_, _, err := svc.Render(ctx, view.ID, studentClaims)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Equal(t, 0, renderer.calls)

	approveAll(t, f, view.ID)

	name, data, err := svc.Render(ctx, view.ID, studentClaims)
	require.NoError(t, err)
	assert.Equal(t, "gate-pass-"+view.ID+".pdf", name)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, again, err := svc.Render(ctx, view.ID, wardenClaims)
	require.NoError(t, err)
	assert.Equal(t, data, again)
	assert.Equal(t, 1, renderer.calls)
}

func TestGatePassServiceSignedLinkRoundTrip(t *testing.T) {
	svc, f, _ := newGatePassFixture(t)
	ctx := context.Background()
	view := submitAs(t, f, studentClaims)
	approveAll(t, f, view.ID)

	link, err := svc.Link(ctx, view.ID, studentClaims)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.URL, "/api/v1/gate-passes/"))
	assert.True(t, link.ExpiresAt.After(time.Now()))

	token := strings.TrimPrefix(link.URL, "/api/v1/gate-passes/")
	name, data, err := svc.Download(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "gate-pass-"+view.ID+".pdf", name)
	assert.NotEmpty(t, data)

	_, _, err = svc.Download(ctx, token+"x")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestGatePassDocumentListsApprovers(t *testing.T) {
	f := newOutpassFixture(t)
	view := submitAs(t, f, studentClaims)
	approveAll(t, f, view.ID)
	req, student, err := f.svc.LoadApproved(context.Background(), view.ID, adminClaims)
	require.NoError(t, err)

	doc := gatePassDocument(*req, *student)
	require.NotNil(t, doc.Table)
	require.Len(t, doc.Table.Rows, models.StageCount)
	assert.Equal(t, "Mrs. Warden", doc.Table.Rows[3]["approver"])
	assert.Equal(t, "Asha Rao", doc.Fields[0].Value)
}

func TestGatePassServicePurgeRerendersOnDemand(t *testing.T) {
	svc, f, renderer := newGatePassFixture(t)
	ctx := context.Background()
	view := submitAs(t, f, studentClaims)
	approveAll(t, f, view.ID)

	_, first, err := svc.Render(ctx, view.ID, studentClaims)
	require.NoError(t, err)

	removed, err := svc.Purge(0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, second, err := svc.Render(ctx, view.ID, studentClaims)
	require.NoError(t, err)
	assert.NotEmpty(t, second)
	assert.NotEmpty(t, first)
	assert.Equal(t, 2, renderer.calls)
}
