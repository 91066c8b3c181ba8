package portal

import "github.com/maheshrjl/reraharvest/api/schemas"

// The extraction schemas are literal: every field carries the exact
// instruction handed to the extraction collaborator. Fields the page does not
// expose come back as the "not available" sentinel.

var projectDetailsSchema = schemas.ExtractionSchema{Fields: []schemas.SchemaField{
	{Name: "projectName", Instruction: "The full name of the project as shown in the Project Details panel"},
	{Name: "registrationNumber", Instruction: "The RERA registration number of the project (format TN/...)"},
	{Name: "promoterName", Instruction: "The name of the promoter or promoting company"},
	{Name: "projectType", Instruction: "The type of the project (e.g. Residential, Commercial, Mixed)"},
	{Name: "projectStatus", Instruction: "The current status of the project (e.g. Ongoing, Completed)"},
	{Name: "district", Instruction: "The district where the project is located"},
	{Name: "taluk", Instruction: "The taluk where the project is located"},
	{Name: "approvedDate", Instruction: "The date on which the registration was approved"},
	{Name: "completionDate", Instruction: "The proposed or actual completion date of the project"},
	{Name: "totalLandArea", Instruction: "The total land area of the project, with its unit"},
}}

var complaintsSchema = schemas.ExtractionSchema{Fields: []schemas.SchemaField{
	{Name: "complaintNumber", Instruction: "The complaint number"},
	{Name: "complainantName", Instruction: "The name of the complainant"},
	{Name: "respondentName", Instruction: "The name of the respondent"},
	{Name: "complaintStatus", Instruction: "The current status of the complaint"},
	{Name: "dateOfComplaint", Instruction: "The date the complaint was filed"},
}}

var landDetailsSchema = schemas.ExtractionSchema{Fields: []schemas.SchemaField{
	{Name: "surveyNumber", Instruction: "The survey number of the land parcel this row belongs to"},
	{Name: "field", Instruction: "The name of the attribute shown for this parcel (e.g. Type of Land, Extent of Land)"},
	{Name: "value", Instruction: "The value of the attribute for this parcel"},
}}

var documentsSchema = schemas.ExtractionSchema{Fields: []schemas.SchemaField{
	{Name: "fileName", Instruction: "The file name of the uploaded document"},
	{Name: "uploadedDate", Instruction: "The date the document was uploaded"},
}}
