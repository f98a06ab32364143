package gateway

import (
	"net/url"
	"regexp"
	"strings"
)

// masterMarker identifies a master playlist: only master playlists carry
// variant-stream tags.
const masterMarker = "#EXT-X-STREAM-INF"

// uriAttrPattern extracts the quoted URI attribute from #EXT-X-KEY and
// #EXT-X-MAP tag lines.
var uriAttrPattern = regexp.MustCompile(`URI="([^"]+)"`)

// IsMasterPlaylist reports whether text is an HLS master playlist.
func IsMasterPlaylist(text string) bool {
	return strings.Contains(text, masterMarker)
}

// RewritePlaylist rewrites every upstream URI in an HLS playlist fetched from
// src so that it routes back through the gateway's proxy endpoints. Master
// playlists get their variant URIs pointed at /proxy/hls; media playlists get
// segment, key, and map URIs pointed at /proxy/hls/seg. All other lines pass
// through byte for byte.
func RewritePlaylist(text, src string) string {
	if IsMasterPlaylist(text) {
		return RewriteMasterPlaylist(text, src)
	}
	return RewriteMediaPlaylist(text, src)
}

// RewriteMasterPlaylist replaces each variant URI line with a /proxy/hls
// reference to its absolute upstream URL. Comment/tag lines and blank lines
// are preserved verbatim.
func RewriteMasterPlaylist(text, src string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines[i] = playlistProxyPath(resolveURL(src, line))
	}
	return strings.Join(lines, "\n")
}

// RewriteMediaPlaylist replaces each segment URI line, and the quoted URI
// attribute of key/map tags, with a /proxy/hls/seg reference carrying both the
// original playlist URL and the absolute target URL. The playlist URL rides
// along so that the segment endpoint can re-resolve relative targets.
func RewriteMediaPlaylist(text, src string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "#EXT-X-KEY") || strings.HasPrefix(line, "#EXT-X-MAP") {
			m := uriAttrPattern.FindStringSubmatch(line)
			if m != nil {
				target := segmentProxyPath(src, resolveURL(src, m[1]))
				lines[i] = strings.Replace(line, m[1], target, 1)
			}
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines[i] = segmentProxyPath(src, resolveURL(src, line))
	}
	return strings.Join(lines, "\n")
}

// resolveURL resolves ref against base using standard base-URL semantics.
// Absolute refs pass through unchanged; relative refs are joined to the base.
// If either value cannot be parsed the raw ref is returned, so a single odd
// line never fails the whole rewrite.
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := b.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func playlistProxyPath(target string) string {
	return "/proxy/hls?src=" + url.QueryEscape(target)
}

func segmentProxyPath(src, target string) string {
	return "/proxy/hls/seg?src=" + url.QueryEscape(src) + "&seg=" + url.QueryEscape(target)
}
