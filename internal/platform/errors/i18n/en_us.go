package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown            = "UNKNOWN"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeClassMismatch      = "CLASS_MISMATCH"
	CodeSectionWriteDenied = "SECTION_WRITE_DENIED"
	CodeArchetypeNotFound  = "ARCHETYPE_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
)

var enUSCatalog = &Catalog{
	locale: BaseLocale,
	messages: map[Code]string{
		CodeUnknown: "Something went wrong",

		// Permission errors
		CodePermissionDenied: "You do not have permission to modify {{.subject}}",

		// Eligibility errors
		CodeClassMismatch: "This archetype requires the {{.archetype_class}} class, but the selected class is {{.subject_class}}",

		// Content errors
		CodeSectionWriteDenied: "Only the GM can edit the {{.section}} section",
		CodeArchetypeNotFound:  "No archetype named {{.slug}} exists in any content section",

		// Storage errors
		CodeNotFound: "The requested record was not found",
	},
}
