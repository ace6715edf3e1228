package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid/leadgen/internal/model"
)

func TestEnrich_StatusClassification(t *testing.T) {
	svc := NewService(NewExtractor(nil, contactSite(), 6))

	got := svc.Enrich(context.Background(), model.EnrichmentRequest{Name: "Acme", Website: "acme.example"})
	assert.Equal(t, model.EnrichmentSuccess, got.Status)
	assert.NotEmpty(t, got.Contacts)

	empty := svc.Enrich(context.Background(), model.EnrichmentRequest{Name: "Gone", Website: "gone.example"})
	assert.Equal(t, model.EnrichmentNoContacts, empty.Status)
	assert.Empty(t, empty.Contacts)
	assert.Zero(t, empty.Confidence)
}

func TestEnrichBatch_IsolatesOutcomes(t *testing.T) {
	svc := NewService(NewExtractor(nil, contactSite(), 6))

	batch := svc.EnrichBatch(context.Background(), []model.EnrichmentRequest{
		{Name: "Acme", Website: "acme.example"},
		{Name: "Gone", Website: "gone.example"},
	})

	assert.Equal(t, 2, batch.Total)
	assert.Equal(t, 2, batch.Successful)
	assert.Equal(t, 0, batch.Failed)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, model.EnrichmentSuccess, batch.Results[0].Status)
	assert.Equal(t, model.EnrichmentNoContacts, batch.Results[1].Status)
}
