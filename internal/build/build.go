// Package build provides build information that is linked into the application. Other
// packages within this project can use this information in logs etc..
package build

var (
	// Version is the build version of the binary (e.g. v0.1.0).
	Version = "dev"

	// Commit is the git commit SHA that was used to build the binary.
	Commit = "none"

	// Date is the date when the binary was built.
	Date = "unknown"

	// ProjectName is used as the namespace of exported metrics.
	ProjectName = "nexus_search"
)

// MinimumSupportedDatastoreSchemaRevision is the lowest relational schema revision
// the element datastores can read from.
const MinimumSupportedDatastoreSchemaRevision = 1
