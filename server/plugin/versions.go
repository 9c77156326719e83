package plugin

// It should be maintained in chronological order with most current
// release at the front of the list.
var apiVersions = []string{
	"v1",
}

// CurrentAPIVersion is the newest API version
var CurrentAPIVersion = apiVersions[0]
