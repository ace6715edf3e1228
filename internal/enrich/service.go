package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/model"
)

// Service wraps the extractor into the enrichment envelopes used by the
// API and CLI surfaces.
type Service struct {
	extractor *Extractor
}

// NewService creates a Service.
func NewService(extractor *Extractor) *Service {
	return &Service{extractor: extractor}
}

// Enrich runs contact extraction for one business and classifies the
// outcome. Extraction itself never fails, so the status here is either
// success or no_contacts_found.
func (s *Service) Enrich(ctx context.Context, req model.EnrichmentRequest) model.EnrichmentResponse {
	result := s.extractor.Extract(ctx, req.Name, req.Website, req.Address)

	status := model.EnrichmentNoContacts
	if len(result.Contacts) > 0 {
		status = model.EnrichmentSuccess
	}

	zap.L().Info("enrich: business enriched",
		zap.String("business", req.Name),
		zap.Int("contacts", len(result.Contacts)),
		zap.Float64("confidence", result.Confidence),
	)

	return model.EnrichmentResponse{
		Name:       result.BusinessName,
		Website:    result.Website,
		Contacts:   result.Contacts,
		Confidence: result.Confidence,
		Status:     status,
	}
}

// EnrichBatch enriches businesses one at a time. A panic inside one
// business's extraction downgrades that entry to an error record and the
// batch continues.
func (s *Service) EnrichBatch(ctx context.Context, reqs []model.EnrichmentRequest) model.BatchEnrichmentResponse {
	batch := model.BatchEnrichmentResponse{
		Total:   len(reqs),
		Results: make([]model.EnrichmentResponse, 0, len(reqs)),
	}

	for _, req := range reqs {
		resp := s.enrichSafe(ctx, req)
		if resp.Status == model.EnrichmentError {
			batch.Failed++
		} else {
			batch.Successful++
		}
		batch.Results = append(batch.Results, resp)
	}

	return batch
}

func (s *Service) enrichSafe(ctx context.Context, req model.EnrichmentRequest) (resp model.EnrichmentResponse) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("enrich: extraction panicked",
				zap.String("business", req.Name),
				zap.Any("panic", r),
			)
			resp = model.EnrichmentResponse{
				Name:     req.Name,
				Website:  req.Website,
				Contacts: []model.Contact{},
				Status:   model.EnrichmentError,
			}
		}
	}()
	return s.Enrich(ctx, req)
}
