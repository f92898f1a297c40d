package types

// Catalog lists the inquiry types each department handles and the months
// each quarter covers.
type Catalog struct {
	InquiryTypes  map[string][]string
	QuarterMonths map[string][]string
}

var defaultCatalog = DefaultCatalog()

// DefaultCatalog returns the categories of the built-in generation profile.
func DefaultCatalog() Catalog {
	return Catalog{
		InquiryTypes: map[string][]string{
			string(DeptFinancialAid):    {"FAFSA Status", "Award Letter", "Scholarship Inquiry", "Loan Questions", "Work-Study"},
			string(DeptRegistrar):       {"Transcript Request", "Enrollment Verification", "Grade Change", "Graduation Check", "Add/Drop"},
			string(DeptBusinessService): {"Tuition Payment", "Refund Status", "Payment Plan", "Account Hold", "1098-T"},
			string(DeptAdmissions):      {"Application Status", "Admission Decision", "Transfer Credits", "Orientation", "Residency"},
			string(DeptGeneralInquiry):  {"Campus Resources", "Department Referral", "Hours/Location", "General Question", "Complaint"},
		},
		QuarterMonths: map[string][]string{
			"Fall 2024":   {"Sep", "Oct", "Nov", "Dec"},
			"Winter 2025": {"Jan", "Feb", "Mar"},
			"Spring 2025": {"Apr", "May", "Jun"},
			"Summer 2025": {"Jul", "Aug"},
		},
	}
}
