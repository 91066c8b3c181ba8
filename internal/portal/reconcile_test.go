package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

func doc(name string) schemas.DocumentRecord {
	return schemas.DocumentRecord{Category: "Project Documents", FileName: name}
}

func TestReconcileDocuments_BidirectionalContainment(t *testing.T) {
	docs := []schemas.DocumentRecord{
		doc("approval_plan_2023.pdf"), // link text is a substring of the file name
		doc("noc"),                    // file name is a substring of the link text
	}
	links := []schemas.DocumentLinkRecord{
		{Text: "approval_plan", URL: "https://portal.example/d/1"},
		{Text: "noc_certificate.pdf", URL: "https://portal.example/d/2"},
	}

	out := ReconcileDocuments(docs, links)
	require.Len(t, out, 2)
	assert.Equal(t, "https://portal.example/d/1", out[0].DownloadURL)
	assert.Equal(t, "https://portal.example/d/2", out[1].DownloadURL)
}

func TestReconcileDocuments_ZeroMatchGetsSentinel(t *testing.T) {
	docs := []schemas.DocumentRecord{doc("completion_certificate.pdf")}
	links := []schemas.DocumentLinkRecord{
		{Text: "site_photo.jpg", URL: "https://portal.example/d/9"},
	}

	out := ReconcileDocuments(docs, links)
	require.Len(t, out, 1)
	assert.Equal(t, schemas.NotAvailable, out[0].DownloadURL)
}

func TestReconcileDocuments_ReorderSafe(t *testing.T) {
	docs := []schemas.DocumentRecord{
		doc("plan_a.pdf"),
		doc("plan_b.pdf"),
	}
	links := []schemas.DocumentLinkRecord{
		{Text: "plan_a.pdf", URL: "https://portal.example/a"},
		{Text: "plan_b.pdf", URL: "https://portal.example/b"},
	}
	reversed := []schemas.DocumentLinkRecord{links[1], links[0]}

	out1 := ReconcileDocuments(docs, links)
	out2 := ReconcileDocuments(docs, reversed)
	assert.Equal(t, out1, out2, "link order must not change which link attaches to which document")
}

func TestReconcileDocuments_FirstMatchWins(t *testing.T) {
	docs := []schemas.DocumentRecord{doc("layout.pdf")}
	links := []schemas.DocumentLinkRecord{
		{Text: "layout", URL: "https://portal.example/first"},
		{Text: "layout.pdf", URL: "https://portal.example/second"},
	}

	out := ReconcileDocuments(docs, links)
	assert.Equal(t, "https://portal.example/first", out[0].DownloadURL)
}

func TestReconcileDocuments_EmptyNamesNeverMatch(t *testing.T) {
	docs := []schemas.DocumentRecord{
		doc(""),
		doc(schemas.NotAvailable),
	}
	links := []schemas.DocumentLinkRecord{
		{Text: "", URL: "https://portal.example/empty"},
		{Text: "anything.pdf", URL: "https://portal.example/any"},
	}

	out := ReconcileDocuments(docs, links)
	assert.Equal(t, schemas.NotAvailable, out[0].DownloadURL)
	assert.Equal(t, schemas.NotAvailable, out[1].DownloadURL)
}

func TestReconcileDocuments_CaseInsensitive(t *testing.T) {
	docs := []schemas.DocumentRecord{doc("Approval_Plan.PDF")}
	links := []schemas.DocumentLinkRecord{
		{Text: "approval_plan.pdf", URL: "https://portal.example/d/1"},
	}

	out := ReconcileDocuments(docs, links)
	assert.Equal(t, "https://portal.example/d/1", out[0].DownloadURL)
}
