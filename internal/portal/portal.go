// Package portal drives the registry portal's search and detail pages: a
// fixed, linear sequence of cached actions and structured extractions per
// target, branching only on the portal's non-deterministic tab loads.
package portal

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
	"github.com/maheshrjl/reraharvest/internal/config"
	"github.com/maheshrjl/reraharvest/internal/retry"
)

// Tab marker texts. A tab counts as loaded once its marker is visible.
const (
	markerProjectDetails = "Registration Number"
	markerComplaints     = "Complaint"
	markerLandDetails    = "Survey Number"
	markerDocuments      = "Uploaded Documents"
)

// Actor executes one natural-language instruction on a page, through the
// instruction cache.
type Actor interface {
	Act(ctx context.Context, page schemas.PageSession, instruction string) error
}

// Scraper runs the full extraction pipeline for one target on one page
// session.
type Scraper struct {
	cfg    *config.Config
	actor  Actor
	logger *zap.Logger
}

// NewScraper builds a Scraper over a cached-action executor.
func NewScraper(cfg *config.Config, actor Actor, logger *zap.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		actor:  actor,
		logger: logger.Named("portal"),
	}
}

// Scrape runs both flows for one target: search and open the detail view,
// extract registration data (project details and complaints), then land
// details and reconciled documents. The caller owns the failure boundary; any
// error here discards the target's partial progress.
func (s *Scraper) Scrape(ctx context.Context, page schemas.PageSession, target string) (*schemas.TargetResult, error) {
	log := s.logger.With(zap.String("target", target), zap.String("session_id", page.ID()))

	if err := s.openDetailView(ctx, page, target, log); err != nil {
		return nil, err
	}

	registration, err := s.extractRegistration(ctx, page, log)
	if err != nil {
		return nil, err
	}

	landDocs, err := s.extractLandDocuments(ctx, page, log)
	if err != nil {
		return nil, err
	}

	return &schemas.TargetResult{
		Target:        target,
		Registration:  registration,
		LandDocuments: landDocs,
	}, nil
}

// openDetailView searches for the target and opens its detail view.
func (s *Scraper) openDetailView(ctx context.Context, page schemas.PageSession, target string, log *zap.Logger) error {
	log.Info("Opening project detail view.")

	if err := page.Navigate(ctx, s.cfg.Portal.SearchURL, s.cfg.Network.NavigationTimeout); err != nil {
		return fmt.Errorf("failed to open search page: %w", err)
	}

	// The typed value is part of the instruction, so per-target search
	// instructions are distinct cache keys.
	enter := fmt.Sprintf("Type '%s' into the project search input box", target)
	if err := s.actor.Act(ctx, page, enter); err != nil {
		return err
	}

	// Confirm any autocomplete selection the search box produced.
	if err := page.PressKey(ctx, "Enter"); err != nil {
		return err
	}

	if err := s.actor.Act(ctx, page, "Click the search button to search for the project"); err != nil {
		return err
	}
	if err := page.WaitForNetworkIdle(ctx); err != nil {
		return err
	}

	if err := s.actor.Act(ctx, page, "Click the 'View Details' link of the first project in the search results"); err != nil {
		return err
	}
	if err := page.WaitForNetworkIdle(ctx); err != nil {
		return err
	}
	return nil
}

// extractRegistration pulls project details and the complaints list.
func (s *Scraper) extractRegistration(ctx context.Context, page schemas.PageSession, log *zap.Logger) (*schemas.RegistrationResult, error) {
	log.Info("Extracting project details.")

	if err := s.openTab(ctx, page, "Click the 'Project Details' tab", markerProjectDetails); err != nil {
		return nil, err
	}

	var details schemas.ProjectDetailsRecord
	if err := page.ExtractStructured(ctx,
		"Extract the project detail fields from the Project Details panel as a single JSON object",
		projectDetailsSchema, &details); err != nil {
		return nil, fmt.Errorf("project details extraction failed: %w", err)
	}

	log.Info("Extracting complaints.")

	if err := s.openTab(ctx, page, "Click the 'Complaints' tab", markerComplaints); err != nil {
		return nil, err
	}
	if err := s.actor.Act(ctx, page, "Click the element that expands the list of complaints against this project"); err != nil {
		return nil, err
	}

	var complaints []schemas.ComplaintRecord
	if err := page.ExtractStructured(ctx,
		"Extract every complaint listed against this project as a JSON array of objects, one per complaint",
		complaintsSchema, &complaints); err != nil {
		return nil, fmt.Errorf("complaints extraction failed: %w", err)
	}

	return &schemas.RegistrationResult{
		ProjectDetails: details,
		Complaints:     complaints,
	}, nil
}

// extractLandDocuments pulls the flattened land triples and the reconciled
// document records. The metadata extraction and the link harvest are
// independent passes with no ordering dependency.
func (s *Scraper) extractLandDocuments(ctx context.Context, page schemas.PageSession, log *zap.Logger) (*schemas.LandDocumentsResult, error) {
	log.Info("Extracting land details.")

	if err := s.openTab(ctx, page, "Click the 'Land Details' tab", markerLandDetails); err != nil {
		return nil, err
	}

	// One flat (surveyNumber, field, value) triple per attribute per parcel:
	// the field set varies by parcel, so the shape stays flat here and is
	// pivoted only at the CSV boundary.
	var landDetails []schemas.LandDetailRecord
	if err := page.ExtractStructured(ctx,
		"Extract the land details table as a JSON array with one object per attribute per survey number",
		landDetailsSchema, &landDetails); err != nil {
		return nil, fmt.Errorf("land details extraction failed: %w", err)
	}

	log.Info("Extracting uploaded documents.")

	if err := s.openTab(ctx, page, "Click the 'Uploaded Documents' tab", markerDocuments); err != nil {
		return nil, err
	}

	documents := make([]schemas.DocumentRecord, 0)
	for _, category := range s.cfg.Portal.DocumentCategories {
		instruction := fmt.Sprintf(
			"Extract every document listed under the '%s' section as a JSON array of objects, one per document",
			category)

		var docs []schemas.DocumentRecord
		if err := page.ExtractStructured(ctx, instruction, documentsSchema, &docs); err != nil {
			return nil, fmt.Errorf("document extraction failed for category %q: %w", category, err)
		}
		for i := range docs {
			docs[i].Category = category
		}
		documents = append(documents, docs...)
	}

	links, err := page.HarvestDownloadLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("link harvest failed: %w", err)
	}

	log.Info("Reconciling documents with harvested links.",
		zap.Int("documents", len(documents)),
		zap.Int("links", len(links)),
	)

	return &schemas.LandDocumentsResult{
		LandDetails: landDetails,
		Documents:   ReconcileDocuments(documents, links),
	}, nil
}

// openTab clicks a tab and waits for its marker text. The portal's tab loads
// are non-deterministic: when the marker does not appear within the short
// bound, the tab is clicked once more and the wait repeated. A second miss
// propagates.
func (s *Scraper) openTab(ctx context.Context, page schemas.PageSession, clickInstruction, marker string) error {
	if err := s.actor.Act(ctx, page, clickInstruction); err != nil {
		return err
	}

	step := retry.Recoverable{
		Name:        clickInstruction,
		MaxAttempts: 2,
		OnRetry: func(ctx context.Context) error {
			s.logger.Warn("Tab marker did not appear, re-clicking tab.", zap.String("marker", marker))
			return s.actor.Act(ctx, page, clickInstruction)
		},
	}
	return step.Do(ctx, func(ctx context.Context) error {
		return page.WaitForText(ctx, marker, s.cfg.Network.TabReadyTimeout)
	})
}
