package api

import "strings"

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"

	// ElectionsEndpoint is the endpoint for creating and listing elections
	ElectionsEndpoint = "/elections"
	// ElectionEndpoint is the endpoint to get the election info
	ElectionURLParam = "electionId"
	ElectionEndpoint = "/elections/{" + ElectionURLParam + "}"
	// SpecifiersEndpoint returns the election specifiers
	SpecifiersEndpoint = ElectionEndpoint + "/specifiers"
	// BallotsEndpoint is the endpoint for submitting a ballot
	BallotsEndpoint = ElectionEndpoint + "/ballots"
	// InvalidBallotsEndpoint lists the ballots rejected by the batches
	InvalidBallotsEndpoint = BallotsEndpoint + "/invalid"
	// AggregateEndpoint returns the running aggregate proof of an election
	AggregateEndpoint = ElectionEndpoint + "/aggregate"

	// CensusEndpoint is the endpoint for creating a new census
	CensusEndpoint = "/census"
	CensusURLParam = "censusId"
	// CensusRefEndpoint is the endpoint to delete a census
	CensusRefEndpoint = "/census/{" + CensusURLParam + "}"
	// CensusVotersEndpoint is the endpoint for registering voters
	CensusVotersEndpoint = CensusRefEndpoint + "/voters"
	// CensusRootEndpoint returns the census Merkle root
	CensusRootEndpoint = CensusRefEndpoint + "/root"
	// CensusSizeEndpoint returns the number of registered voters
	CensusSizeEndpoint = CensusRefEndpoint + "/size"
	// CensusProofEndpoint returns the inclusion proof of a voter, selected
	// with the publicKey query parameter
	CensusProofEndpoint = CensusRefEndpoint + "/proof"

	CensusRootURLParam = "root"
	// CensusByRootEndpoint selects the census whose current Merkle root is
	// the given hex value
	CensusByRootEndpoint = "/census/roots/{" + CensusRootURLParam + "}"
	// CensusRootProofEndpoint returns the inclusion proof of a voter in the
	// census with the given root
	CensusRootProofEndpoint = CensusByRootEndpoint + "/proof"
	// CensusRootSizeEndpoint returns the number of voters of the census with
	// the given root
	CensusRootSizeEndpoint = CensusByRootEndpoint + "/size"
)

// Path replaces the URL parameters of an endpoint with the given values,
// in order.
func Path(endpoint string, values ...string) string {
	for _, v := range values {
		start := strings.Index(endpoint, "{")
		end := strings.Index(endpoint, "}")
		if start < 0 || end < start {
			break
		}
		endpoint = endpoint[:start] + v + endpoint[end+1:]
	}
	return endpoint
}
