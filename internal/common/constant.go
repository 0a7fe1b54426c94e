package common

// Reserved collection names. The crypto collection carries the key bundle,
// meta carries storage-format metadata; neither is a user data collection
// and both are excluded from normal ingestion.
const (
	CryptoCollection = "crypto"
	MetaCollection   = "meta"
)

// Root sentinels used by the bookmark feed for top-level folders. A parent
// reference to one of these is never materialized as a foreign reference.
var RootSentinels = map[string]struct{}{
	"places":  {},
	"unfiled": {},
}
