package hls

import "strings"

// isDRMMethod reports whether a #EXT-X-KEY METHOD value indicates DRM.
// AES-128 is deliberately excluded: its key is fetched over plain HTTP,
// so the stream is downloadable without any key negotiation.
func isDRMMethod(method string) bool {
	return method != "" && method != "NONE" && method != "AES-128"
}

// isDRMKeyFormat reports whether a KEYFORMAT attribute names a known DRM
// system.
func isDRMKeyFormat(keyformat string) bool {
	lower := strings.ToLower(keyformat)
	return strings.Contains(lower, "widevine") || strings.Contains(lower, "fairplay")
}

// bodyMentionsDRM scans raw manifest text for well-known DRM reverse-DNS
// identifiers that can appear outside any single attribute.
func bodyMentionsDRM(body string) bool {
	return strings.Contains(body, "com.widevine") || strings.Contains(body, "com.apple.fps")
}

// keyIsDRM reports whether a parsed key descriptor indicates DRM.
func keyIsDRM(k *KeyDescriptor) bool {
	if k == nil {
		return false
	}
	return isDRMMethod(k.Method) || isDRMKeyFormat(k.KeyFormat)
}
