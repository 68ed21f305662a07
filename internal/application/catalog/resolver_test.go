package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corecatalog "3tcapital/ms_emision_dian/internal/core/catalog"
	"3tcapital/ms_emision_dian/internal/core/submission"
	"3tcapital/ms_emision_dian/internal/testutil"
)

func TestResolveCode(t *testing.T) {
	store := testutil.NewCatalogStore(map[corecatalog.Domain]map[string]int{
		corecatalog.DomainTax: {"01": 1},
	})
	r := NewResolver(store, testutil.NewNullLogger())

	id, err := r.ResolveCode(context.Background(), corecatalog.DomainTax, " 01 ")
	require.NoError(t, err)
	assert.Equal(t, 1, id)
}

func TestResolveCode_UnknownIsValidationError(t *testing.T) {
	r := NewResolver(testutil.NewCatalogStore(nil), testutil.NewNullLogger())

	_, err := r.ResolveCode(context.Background(), corecatalog.DomainTax, "ZZ")

	var validation *submission.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "code not found: ZZ", validation.Error())
}

func TestResolveCode_StoreFailureIsWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	store := &testutil.MockCatalogStore{
		LookupFunc: func(context.Context, corecatalog.Domain, string) (int, error) { return 0, boom },
	}
	r := NewResolver(store, testutil.NewNullLogger())

	_, err := r.ResolveCode(context.Background(), corecatalog.DomainUnit, "94")

	require.ErrorIs(t, err, boom)
	var validation *submission.ValidationError
	assert.False(t, errors.As(err, &validation))
}

func TestResolveOrDefault(t *testing.T) {
	store := testutil.NewCatalogStore(map[corecatalog.Domain]map[string]int{
		corecatalog.DomainUnit: {"94": 70, "KGM": 767},
	})
	r := NewResolver(store, testutil.NewNullLogger())

	id, err := r.ResolveOrDefault(context.Background(), corecatalog.DomainUnit, "KGM", 70)
	require.NoError(t, err)
	assert.Equal(t, 767, id)

	id, err = r.ResolveOrDefault(context.Background(), corecatalog.DomainUnit, "XXX", 70)
	require.NoError(t, err)
	assert.Equal(t, 70, id)
}
