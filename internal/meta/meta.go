package meta

// EndpointMetadata describes a compiled endpoint for listings and tooling.
// This type is internal so it cannot be instantiated by external packages.
type EndpointMetadata struct {
	Name         string
	Method       string
	Path         string
	Placeholders []string
	Args         []ArgMetadata
}

// ArgMetadata describes one declared argument.
type ArgMetadata struct {
	Name      string
	Placement string
	Validator string
}
