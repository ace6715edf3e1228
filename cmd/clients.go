package main

import (
	"context"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/config"
	"github.com/leadgrid/leadgen/internal/crawl"
	"github.com/leadgrid/leadgen/internal/enrich"
	"github.com/leadgrid/leadgen/internal/query"
	"github.com/leadgrid/leadgen/internal/search"
	"github.com/leadgrid/leadgen/internal/store"
	"github.com/leadgrid/leadgen/pkg/crm"
	"github.com/leadgrid/leadgen/pkg/dataset"
	"github.com/leadgrid/leadgen/pkg/llm"
	"github.com/leadgrid/leadgen/pkg/places"
)

// openStore opens the configured persistence backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildSearchService assembles the search service from whatever upstreams
// are configured. Missing credentials leave the matching client nil; the
// service degrades per operation.
func buildSearchService(cfg *config.Config) *search.Service {
	var placesClient places.Client
	if cfg.Places.Key != "" {
		var opts []places.Option
		if cfg.Places.BaseURL != "" {
			opts = append(opts, places.WithBaseURL(cfg.Places.BaseURL))
		}
		if cfg.Places.GeocodeBaseURL != "" {
			opts = append(opts, places.WithGeocodeBaseURL(cfg.Places.GeocodeBaseURL))
		}
		if cfg.Places.SkipDetails {
			opts = append(opts, places.WithoutDetails())
		}
		placesClient = places.NewClient(cfg.Places.Key, opts...)
	}

	var datasetClient dataset.Client
	if cfg.Dataset.Token != "" {
		datasetClient = dataset.NewClient(cfg.Dataset.BaseURL, cfg.Dataset.ActorID, cfg.Dataset.Token)
	}

	var interpreter *query.Interpreter
	var suggester *query.SuggestionGenerator
	if cfg.Anthropic.Key != "" {
		llmClient := llm.NewClient(cfg.Anthropic.Key, llm.WithModel(cfg.Anthropic.Model))
		interpreter = query.NewInterpreter(llmClient)
		suggester = query.NewSuggestionGenerator(llmClient, newFetcher(cfg), cfg.Crawl.MaxPages)
	}

	return search.NewService(placesClient, datasetClient, interpreter, suggester)
}

// buildAgent assembles the extraction-filter chat agent. Without an LLM
// key the agent route answers 503.
func buildAgent(cfg *config.Config) *query.Agent {
	if cfg.Anthropic.Key == "" {
		return nil
	}
	return query.NewAgent(llm.NewClient(cfg.Anthropic.Key, llm.WithModel(cfg.Anthropic.Model)))
}

// buildEnrichService assembles the contact-extraction service. It works
// without an Anthropic key; heuristics alone still produce contacts.
func buildEnrichService(cfg *config.Config) *enrich.Service {
	var llmClient llm.Client
	if cfg.Anthropic.Key != "" {
		llmClient = llm.NewClient(cfg.Anthropic.Key, llm.WithModel(cfg.Anthropic.Model))
	}
	extractor := enrich.NewExtractor(llmClient, newFetcher(cfg), cfg.Enrich.MaxPages)
	return enrich.NewService(extractor)
}

func newFetcher(cfg *config.Config) *crawl.HTTPFetcher {
	var opts []crawl.Option
	if cfg.Crawl.TimeoutSecs > 0 {
		opts = append(opts, crawl.WithTimeout(time.Duration(cfg.Crawl.TimeoutSecs)*time.Second))
	}
	return crawl.NewHTTPFetcher(opts...)
}

// buildConnectors registers every CRM whose credentials are present.
func buildConnectors(cfg *config.Config) map[string]crm.Connector {
	connectors := make(map[string]crm.Connector)

	if cfg.CRM.HubSpot.AccessToken != "" {
		connectors["hubspot"] = crm.NewHubSpot(cfg.CRM.HubSpot.AccessToken)
	}
	if cfg.CRM.Zoho.AccessToken != "" {
		var opts []crm.ZohoOption
		if cfg.CRM.Zoho.APIDomain != "" {
			opts = append(opts, crm.WithZohoBaseURL(cfg.CRM.Zoho.APIDomain+"/crm/v2"))
		}
		connectors["zoho"] = crm.NewZoho(cfg.CRM.Zoho.AccessToken, opts...)
	}
	if cfg.CRM.Salesforce.ClientID != "" {
		sf, err := salesforce.Init(salesforce.Creds{
			Domain:         cfg.CRM.Salesforce.Domain,
			ConsumerKey:    cfg.CRM.Salesforce.ClientID,
			ConsumerSecret: cfg.CRM.Salesforce.ClientSecret,
		})
		if err != nil {
			zap.L().Warn("salesforce connector disabled", zap.Error(err))
		} else {
			connectors["salesforce"] = crm.NewSalesforce(sf)
		}
	}

	return connectors
}
