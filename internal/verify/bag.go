package verify

import (
	"strings"

	"certdesign/internal/storage"
)

// DateLayout is how issue dates appear on certificates.
const DateLayout = "January 2, 2006"

// DefaultIssuer stands in for the organization name when a certificate has
// no organization on record.
const DefaultIssuer = "Verified Issuer"

// VerifyLink returns the public verification URL of a certificate.
func VerifyLink(baseURL, certificateID string) string {
	return strings.TrimRight(baseURL, "/") + "/verify/" + certificateID
}

// BuildBag returns the placeholder data a certificate's design is resolved
// against. Several keys are aliases kept for templates authored against
// older field names; f1 to f4 and VerifyLink are the ids of the default dynamic
// fields.
func BuildBag(c *storage.Certificate, baseURL string) map[string]string {
	date := c.IssuedDate.UTC().Format(DateLayout)
	issuer := c.OrganizationName
	if issuer == "" {
		issuer = DefaultIssuer
	}

	return map[string]string{
		"recipient_name":    c.RecipientName,
		"issue_date":        date,
		"date":              date,
		"issueDate":         date,
		"certificate_id":    c.CertificateID,
		"certificateId":     c.CertificateID,
		"title":             c.Title,
		"course_name":       c.Title,
		"courseName":        c.Title,
		"description":       c.Description,
		"issuer_name":       issuer,
		"organization_name": issuer,
		"f1":                c.RecipientName,
		"f2":                date,
		"f3":                c.CertificateID,
		"f4":                c.Title,
		"VerifyLink":        VerifyLink(baseURL, c.CertificateID),
	}
}
