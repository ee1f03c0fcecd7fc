package model

// SampleFeedback returns the canonical 10-row demo dataset. Every call returns
// a fresh slice.
func SampleFeedback() []Feedback {
	return []Feedback{
		{Text: "The new enterprise dashboard is missing critical security features required for SOX compliance", Product: "Enterprise Dashboard", Severity: SeverityCritical, Region: RegionUS, HumanCategory: string(CategoryCompliance)},
		{Text: "Mobile app crashes frequently when processing large datasets, affecting productivity", Product: "Mobile App", Severity: SeverityHigh, Region: RegionEU, HumanCategory: string(CategoryUsability)},
		{Text: "Need SSO integration with Okta and Active Directory for our Fortune 500 deployment", Product: "API Platform", Severity: SeverityMedium, Region: RegionAPAC, HumanCategory: string(CategoryEnterprise)},
		{Text: "GDPR data export functionality is broken and causing compliance violations", Product: "Data Export", Severity: SeverityCritical, Region: RegionEU, HumanCategory: string(CategoryCompliance)},
		{Text: "Dashboard loading times are unacceptable for our daily operations", Product: "Analytics Dashboard", Severity: SeverityHigh, Region: RegionUS, HumanCategory: string(CategoryUsability)},
		{Text: "Missing advanced role-based access controls and multi-tenancy for enterprise customers", Product: "Access Control", Severity: SeverityCritical, Region: RegionUS, HumanCategory: string(CategoryEnterprise)},
		{Text: "Performance degrades significantly with more than 1000 concurrent users", Product: "Core Platform", Severity: SeverityHigh, Region: RegionAPAC, HumanCategory: string(CategoryUsability)},
		{Text: "Need white-label customization and API access for our enterprise integration", Product: "Collaboration Tools", Severity: SeverityMedium, Region: RegionUS, HumanCategory: string(CategoryEnterprise)},
		{Text: "Data encryption at rest is not meeting our security requirements", Product: "Security Module", Severity: SeverityCritical, Region: RegionEU, HumanCategory: string(CategoryCompliance)},
		{Text: "User interface is confusing and requires extensive training", Product: "User Interface", Severity: SeverityMedium, Region: RegionLATAM, HumanCategory: string(CategoryUsability)},
	}
}

// SampleSummaries is the fixed pool of example summaries used in offline mode.
var SampleSummaries = []string{
	"Enterprise dashboard lacks critical SOX compliance security features",
	"Mobile app crashes frequently when processing large datasets",
	"API documentation needs improvement for faster integration",
	"GDPR data export functionality is broken causing violations",
	"Dashboard loading times are unacceptable for operations",
	"Missing role-based access controls for enterprise customers",
	"Performance degrades with 1000+ concurrent users",
	"Real-time collaboration features needed for distributed teams",
	"Data encryption at rest doesn't meet security requirements",
	"User interface is confusing and requires training",
}
