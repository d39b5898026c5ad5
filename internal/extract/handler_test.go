package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/extract"
	"github.com/jonesrussell/webetl/testutils"
)

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	reg := extract.NewDefaultRegistry(&testutils.MockFetcher{})
	for _, ct := range domain.ContentTypes() {
		h, err := reg.Lookup(ct)
		require.NoError(t, err, ct.String())
		assert.NotNil(t, h)
	}

	_, err := extract.NewRegistry().Lookup(domain.ContentTypeHTML)
	require.ErrorIs(t, err, domain.ErrUnsupportedContentType)
}

func TestRegistry_ValidateJob(t *testing.T) {
	t.Parallel()

	reg := extract.NewDefaultRegistry(&testutils.MockFetcher{})

	valid := domain.Job{
		Name:        "ok",
		Seed:        "https://example.com/",
		Steps:       []domain.NavigationStep{{ContentType: domain.ContentTypeHTML, Selector: "//a/@href"}},
		ContentType: domain.ContentTypeRSS,
		Fields:      []domain.Field{{Name: "title", Selector: "title"}},
	}
	require.NoError(t, reg.ValidateJob(valid))

	badStep := valid.Clone()
	badStep.Steps[0].Selector = "//a["
	require.ErrorIs(t, reg.ValidateJob(badStep), extract.ErrInvalidSelector)

	badType := valid.Clone()
	badType.Steps[0].ContentType = domain.ContentType(99)
	require.ErrorIs(t, reg.ValidateJob(badType), domain.ErrUnsupportedContentType)
}
