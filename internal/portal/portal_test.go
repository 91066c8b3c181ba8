package portal

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
	"github.com/maheshrjl/reraharvest/internal/config"
)

// -- Fakes --

// fakeActor records acted instructions in order.
type fakeActor struct {
	acted  []string
	actErr func(instruction string) error
}

func (a *fakeActor) Act(ctx context.Context, page schemas.PageSession, instruction string) error {
	a.acted = append(a.acted, instruction)
	if a.actErr != nil {
		return a.actErr(instruction)
	}
	return nil
}

// fakePage scripts the page side of a flow: marker waits can be made to fail
// a fixed number of times, and extractions are served from canned JSON keyed
// by an instruction fragment.
type fakePage struct {
	navigated   []string
	pressedKeys []string
	waitedText  []string

	// markerFailures counts remaining failures per marker text.
	markerFailures map[string]int

	// extractions maps an instruction fragment to canned JSON.
	extractions map[string]string

	links      []schemas.DocumentLinkRecord
	harvestErr error
}

func newFakePage() *fakePage {
	return &fakePage{
		markerFailures: make(map[string]int),
		extractions:    make(map[string]string),
	}
}

func (p *fakePage) ID() string { return "fake-page" }
func (p *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.navigated = append(p.navigated, url)
	return nil
}
func (p *fakePage) ExecuteAction(ctx context.Context, action schemas.CachedAction) error { return nil }
func (p *fakePage) ResolveInstruction(ctx context.Context, instruction string) ([]schemas.CachedAction, error) {
	return nil, errors.New("not used")
}
func (p *fakePage) WaitForNetworkIdle(ctx context.Context) error { return nil }
func (p *fakePage) WaitForText(ctx context.Context, text string, timeout time.Duration) error {
	p.waitedText = append(p.waitedText, text)
	if n := p.markerFailures[text]; n > 0 {
		p.markerFailures[text] = n - 1
		return errors.New("marker did not appear")
	}
	return nil
}
func (p *fakePage) PressKey(ctx context.Context, key string) error {
	p.pressedKeys = append(p.pressedKeys, key)
	return nil
}
func (p *fakePage) ExtractStructured(ctx context.Context, instruction string, schema schemas.ExtractionSchema, out any) error {
	for fragment, raw := range p.extractions {
		if strings.Contains(instruction, fragment) {
			return json.Unmarshal([]byte(raw), out)
		}
	}
	return errors.New("no canned extraction for instruction: " + instruction)
}
func (p *fakePage) HarvestDownloadLinks(ctx context.Context) ([]schemas.DocumentLinkRecord, error) {
	return p.links, p.harvestErr
}
func (p *fakePage) Highlight(ctx context.Context, action schemas.CachedAction) error { return nil }
func (p *fakePage) ClearHighlight(ctx context.Context) error                         { return nil }
func (p *fakePage) Close(ctx context.Context) error                                  { return nil }

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Portal.DocumentCategories = []string{"Financial Documents", "Project Documents"}
	cfg.Network.TabReadyTimeout = 100 * time.Millisecond
	return cfg
}

func cannedPage() *fakePage {
	page := newFakePage()
	page.extractions["Project Details panel"] = `{
		"projectName": "Green Meadows Phase II",
		"registrationNumber": "TN/01/0001/2023",
		"promoterName": "Meadow Homes Pvt Ltd",
		"projectType": "Residential",
		"projectStatus": "Ongoing",
		"district": "Chennai",
		"taluk": "Ambattur",
		"approvedDate": "12/01/2023",
		"completionDate": "not available",
		"totalLandArea": "2.5 acres"
	}`
	page.extractions["complaint"] = `[
		{"complaintNumber": "C-42", "complainantName": "A. Kumar", "respondentName": "Meadow Homes Pvt Ltd", "complaintStatus": "Disposed", "dateOfComplaint": "03/05/2024"}
	]`
	page.extractions["land details table"] = `[
		{"surveyNumber": "112/1A", "field": "Type of Land", "value": "Residential"},
		{"surveyNumber": "112/1A", "field": "Extent of Land", "value": "500 sqm"}
	]`
	page.extractions["'Financial Documents' section"] = `[
		{"fileName": "balance_sheet_2023.pdf", "uploadedDate": "10/02/2023"}
	]`
	page.extractions["'Project Documents' section"] = `[
		{"fileName": "approval_plan.pdf", "uploadedDate": "11/02/2023"}
	]`
	page.links = []schemas.DocumentLinkRecord{
		{Text: "approval_plan.pdf", URL: "https://portal.example/d/plan"},
	}
	return page
}

// -- Tests --

func TestScrape_FullFlow(t *testing.T) {
	cfg := testConfig()
	actor := &fakeActor{}
	page := cannedPage()

	s := NewScraper(cfg, actor, zap.NewNop())
	result, err := s.Scrape(context.Background(), page, "TN/01/0001/2023")
	require.NoError(t, err)
	require.NotNil(t, result)

	// Search phase: navigate, type, confirm with Enter, search, open details.
	require.Len(t, page.navigated, 1)
	assert.Equal(t, cfg.Portal.SearchURL, page.navigated[0])
	assert.Equal(t, []string{"Enter"}, page.pressedKeys)
	require.NotEmpty(t, actor.acted)
	assert.Contains(t, actor.acted[0], "TN/01/0001/2023", "the typed value is part of the instruction")

	// Registration payload.
	require.NotNil(t, result.Registration)
	assert.Equal(t, "Green Meadows Phase II", result.Registration.ProjectDetails.ProjectName)
	assert.Equal(t, schemas.NotAvailable, result.Registration.ProjectDetails.CompletionDate)
	require.Len(t, result.Registration.Complaints, 1)
	assert.Equal(t, "C-42", result.Registration.Complaints[0].ComplaintNumber)

	// Land and documents payload.
	require.NotNil(t, result.LandDocuments)
	require.Len(t, result.LandDocuments.LandDetails, 2)
	assert.Equal(t, "112/1A", result.LandDocuments.LandDetails[0].SurveyNumber)

	require.Len(t, result.LandDocuments.Documents, 2)
	docsByName := map[string]schemas.DocumentRecord{}
	for _, d := range result.LandDocuments.Documents {
		docsByName[d.FileName] = d
	}
	assert.Equal(t, "Financial Documents", docsByName["balance_sheet_2023.pdf"].Category)
	assert.Equal(t, schemas.NotAvailable, docsByName["balance_sheet_2023.pdf"].DownloadURL)
	assert.Equal(t, "https://portal.example/d/plan", docsByName["approval_plan.pdf"].DownloadURL)

	// Every tab marker was waited on.
	assert.Contains(t, page.waitedText, markerProjectDetails)
	assert.Contains(t, page.waitedText, markerComplaints)
	assert.Contains(t, page.waitedText, markerLandDetails)
	assert.Contains(t, page.waitedText, markerDocuments)
}

func TestScrape_TabMarkerTimeoutRetriesClickOnce(t *testing.T) {
	cfg := testConfig()
	actor := &fakeActor{}
	page := cannedPage()
	page.markerFailures[markerComplaints] = 1

	s := NewScraper(cfg, actor, zap.NewNop())
	_, err := s.Scrape(context.Background(), page, "TN/01/0001/2023")
	require.NoError(t, err)

	clicks := 0
	for _, instr := range actor.acted {
		if instr == "Click the 'Complaints' tab" {
			clicks++
		}
	}
	assert.Equal(t, 2, clicks, "the tab click must be repeated exactly once on a marker miss")
}

func TestScrape_SecondMarkerMissPropagates(t *testing.T) {
	cfg := testConfig()
	actor := &fakeActor{}
	page := cannedPage()
	page.markerFailures[markerLandDetails] = 2

	s := NewScraper(cfg, actor, zap.NewNop())
	_, err := s.Scrape(context.Background(), page, "TN/01/0001/2023")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Land Details")
}

func TestScrape_ActionFailureAbortsTarget(t *testing.T) {
	cfg := testConfig()
	actErr := errors.New("no candidate action")
	actor := &fakeActor{
		actErr: func(instruction string) error {
			if instruction == "Click the search button to search for the project" {
				return actErr
			}
			return nil
		},
	}
	page := cannedPage()

	s := NewScraper(cfg, actor, zap.NewNop())
	result, err := s.Scrape(context.Background(), page, "TN/01/0001/2023")
	require.Error(t, err)
	assert.ErrorIs(t, err, actErr)
	assert.Nil(t, result, "a failure discards all partial progress for the target")
}

func TestScrape_ExtractionShapeFailurePropagates(t *testing.T) {
	cfg := testConfig()
	actor := &fakeActor{}
	page := cannedPage()
	// An object where an array is expected fails to unmarshal.
	page.extractions["land details table"] = `{"surveyNumber": "112/1A"}`

	s := NewScraper(cfg, actor, zap.NewNop())
	_, err := s.Scrape(context.Background(), page, "TN/01/0001/2023")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "land details extraction failed")
}
