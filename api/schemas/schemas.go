// Package schemas holds the data model shared by every component: cached
// actions, extraction records, per-target outcomes, and the collaborator
// interfaces. It is a data-only package with no internal dependencies.
package schemas

// NotAvailable is the literal sentinel written into any extracted field the
// portal does not expose for a project. It is a schema contract: extracted
// records never carry absent fields, they carry this value.
const NotAvailable = "not available"

// ActionKind enumerates the low-level operations an instruction can resolve to.
type ActionKind string

const (
	ActionClick  ActionKind = "click"
	ActionFill   ActionKind = "fill"
	ActionPress  ActionKind = "press"
	ActionSelect ActionKind = "select"
)

// SelectorKind identifies how a CachedAction locates its element.
type SelectorKind string

const (
	SelectorCSS   SelectorKind = "css"
	SelectorXPath SelectorKind = "xpath"
)

// CachedAction is a replayable low-level UI operation resolved from a
// natural-language instruction. It is serialized verbatim into the
// instruction cache, keyed by the exact instruction text that produced it.
// An entry is valid only for that instruction text; keys are never
// normalized, and entries are never expired (stale actions after a portal
// layout change fail downstream and are recovered by manual cache deletion).
type CachedAction struct {
	Kind         ActionKind   `json:"kind"`
	SelectorKind SelectorKind `json:"selector_kind"`
	Selector     string       `json:"selector"`
	Value        string       `json:"value,omitempty"`
	Description  string       `json:"description,omitempty"`
}

// SchemaField pairs an output field name with the literal per-field
// instruction handed to the extraction collaborator.
type SchemaField struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
}

// ExtractionSchema is an ordered field set for one structured extraction
// call. Fields the page does not expose come back as NotAvailable.
type ExtractionSchema struct {
	Fields []SchemaField
}

// ProjectDetailsRecord is the flat field set scraped from the
// "Project Details" tab of a registration entry.
type ProjectDetailsRecord struct {
	ProjectName        string `json:"projectName"`
	RegistrationNumber string `json:"registrationNumber"`
	PromoterName       string `json:"promoterName"`
	ProjectType        string `json:"projectType"`
	ProjectStatus      string `json:"projectStatus"`
	District           string `json:"district"`
	Taluk              string `json:"taluk"`
	ApprovedDate       string `json:"approvedDate"`
	CompletionDate     string `json:"completionDate"`
	TotalLandArea      string `json:"totalLandArea"`
}

// ComplaintRecord is one row of the complaints list for a project.
type ComplaintRecord struct {
	ComplaintNumber string `json:"complaintNumber"`
	ComplainantName string `json:"complainantName"`
	RespondentName  string `json:"respondentName"`
	ComplaintStatus string `json:"complaintStatus"`
	DateOfComplaint string `json:"dateOfComplaint"`
}

// LandDetailRecord is one (survey number, field, value) triple. The portal's
// land table carries a variable field set per parcel, so land details are
// kept flat rather than nested; pivoting into one row per survey number
// happens only at the CSV boundary.
type LandDetailRecord struct {
	SurveyNumber string `json:"surveyNumber"`
	Field        string `json:"field"`
	Value        string `json:"value"`
}

// DocumentRecord is the metadata of one uploaded document, as extracted from
// a named category section of the "Uploaded Documents" tab. DownloadURL is
// filled by reconciliation against the separately harvested link set and is
// NotAvailable when no link matches.
type DocumentRecord struct {
	Category     string `json:"category"`
	FileName     string `json:"fileName"`
	UploadedDate string `json:"uploadedDate"`
	DownloadURL  string `json:"downloadUrl"`
}

// DocumentLinkRecord is one downloadable-link element harvested site-wide.
// It carries no stable key back to a DocumentRecord; the association is made
// at reconciliation time by substring matching on the filename.
type DocumentLinkRecord struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// RegistrationResult is the payload of the registration-number flow.
type RegistrationResult struct {
	ProjectDetails ProjectDetailsRecord `json:"projectDetails"`
	Complaints     []ComplaintRecord    `json:"complaints"`
}

// LandDocumentsResult is the payload of the land/documents flow.
type LandDocumentsResult struct {
	LandDetails []LandDetailRecord `json:"landDetails"`
	Documents   []DocumentRecord   `json:"documents"`
}

// TargetResult is the complete extraction payload for one target.
type TargetResult struct {
	Target        string               `json:"target"`
	Registration  *RegistrationResult  `json:"registration,omitempty"`
	LandDocuments *LandDocumentsResult `json:"landDocuments,omitempty"`
}

// SessionOutcome is the single per-target result of a run: either a payload
// or an error, never both and never partial. A failure anywhere in a
// target's pipeline discards all partial progress for that target.
type SessionOutcome struct {
	Target string
	Result *TargetResult
	Err    error
}

// Failed reports whether the target's pipeline ended in an error.
func (o SessionOutcome) Failed() bool { return o.Err != nil }
