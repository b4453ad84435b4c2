package dash

import "strings"

// Well-known DRM system scheme URIs.
const (
	schemeWidevine  = "urn:uuid:edef8ba9-79d6-4ace-a3c8-27dcd51d21ed"
	schemePlayReady = "urn:uuid:9a04f079-9840-4286-ab92-e65be0885f95"
	schemeFairPlay  = "urn:uuid:94ce86fb-07ff-4f43-adb8-93d2fa968ca2"
)

// isKnownDRMScheme reports whether schemeIdUri names a recognized DRM
// system.
func isKnownDRMScheme(schemeIDURI string) bool {
	scheme := strings.ToLower(schemeIDURI)
	switch scheme {
	case schemeWidevine, schemePlayReady, schemeFairPlay:
		return true
	default:
		return false
	}
}
