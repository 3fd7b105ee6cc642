// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package platform recognises which social platform a link points to and,
// for video links, builds the URL of an embeddable player. Detection is a
// best-effort heuristic: unknown or malformed URLs fall back to the
// caller's hint and never cause an error.
package platform

import (
	"net/url"
	"regexp"
	"strings"
)

// Other is the platform reported when nothing matches and no hint is given.
const Other = "other"

// MaxLen is the longest platform name stored on a link.
const MaxLen = 50

// Result is what Detect reports for a URL.
type Result struct {
	Platform string `json:"platform"`
	IsVideo  bool   `json:"isVideo"`
	EmbedURL string `json:"embedUrl,omitempty"`
}

// rule recognises one platform. Rules are tried in order and the first
// whose hosts match wins, so more specific hosts must come first.
type rule struct {
	platform string
	hosts    []string
	extract  func(u *url.URL) (isVideo bool, embed string)
}

var (
	youtubeID   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	numericID   = regexp.MustCompile(`^[0-9]+$`)
	shortcode   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	twitchLogin = regexp.MustCompile(`^[A-Za-z0-9_]{3,25}$`)
)

var rules = []rule{
	{platform: "youtube", hosts: []string{"youtu.be"}, extract: youtubeShort},
	{platform: "youtube", hosts: []string{"youtube.com", "youtube-nocookie.com"}, extract: youtube},
	{platform: "vimeo", hosts: []string{"player.vimeo.com", "vimeo.com"}, extract: vimeo},
	{platform: "tiktok", hosts: []string{"tiktok.com"}, extract: tiktok},
	{platform: "instagram", hosts: []string{"instagram.com", "instagr.am"}, extract: instagram},
	{platform: "twitter", hosts: []string{"twitter.com", "x.com", "t.co"}, extract: noEmbed},
	{platform: "facebook", hosts: []string{"fb.watch"}, extract: alwaysVideo},
	{platform: "facebook", hosts: []string{"facebook.com", "fb.com"}, extract: facebook},
	{platform: "linkedin", hosts: []string{"linkedin.com", "lnkd.in"}, extract: noEmbed},
	{platform: "reddit", hosts: []string{"reddit.com", "redd.it"}, extract: noEmbed},
	{platform: "twitch", hosts: []string{"clips.twitch.tv"}, extract: twitchClip},
	{platform: "twitch", hosts: []string{"twitch.tv"}, extract: twitch},
}

// Detect reports the platform of rawURL. When no rule matches, the
// normalized hint is used, or Other if the hint is empty.
func Detect(rawURL, hint string) Result {
	fallback := Result{Platform: Normalize(hint)}
	if fallback.Platform == "" {
		fallback.Platform = Other
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return fallback
	}
	host := strings.ToLower(u.Hostname())

	for _, r := range rules {
		if !matchHost(host, r.hosts) {
			continue
		}
		isVideo, embed := r.extract(u)
		return Result{Platform: r.platform, IsVideo: isVideo, EmbedURL: embed}
	}
	return fallback
}

// Normalize trims and lower-cases a platform name and cuts it to MaxLen
// characters. The cut never splits a multibyte character.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if r := []rune(name); len(r) > MaxLen {
		name = string(r[:MaxLen])
	}
	return name
}

// matchHost reports whether host is one of domains or a subdomain of one.
func matchHost(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// segments splits the URL path into its non-empty parts.
func segments(u *url.URL) []string {
	var out []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func youtubeEmbed(id string) (bool, string) {
	if !youtubeID.MatchString(id) {
		return true, ""
	}
	return true, "https://www.youtube.com/embed/" + id
}

func youtubeShort(u *url.URL) (bool, string) {
	seg := segments(u)
	if len(seg) == 0 {
		return false, ""
	}
	return youtubeEmbed(seg[0])
}

func youtube(u *url.URL) (bool, string) {
	seg := segments(u)
	if len(seg) == 0 {
		return false, ""
	}
	switch seg[0] {
	case "watch":
		if v := u.Query().Get("v"); v != "" {
			return youtubeEmbed(v)
		}
		return false, ""
	case "shorts", "embed", "live", "v":
		if len(seg) > 1 {
			return youtubeEmbed(seg[1])
		}
	}
	return false, ""
}

func vimeo(u *url.URL) (bool, string) {
	for _, s := range segments(u) {
		if numericID.MatchString(s) {
			return true, "https://player.vimeo.com/video/" + s
		}
	}
	return false, ""
}

func tiktok(u *url.URL) (bool, string) {
	seg := segments(u)
	for i := 0; i+1 < len(seg); i++ {
		if seg[i] == "video" && numericID.MatchString(seg[i+1]) {
			return true, "https://www.tiktok.com/embed/v2/" + seg[i+1]
		}
	}
	// Short share links (vm.tiktok.com/xyz) are videos without a known ID.
	if strings.HasPrefix(strings.ToLower(u.Hostname()), "vm.") {
		return true, ""
	}
	return false, ""
}

func instagram(u *url.URL) (bool, string) {
	seg := segments(u)
	if len(seg) < 2 || !shortcode.MatchString(seg[1]) {
		return false, ""
	}
	switch seg[0] {
	case "p":
		return false, "https://www.instagram.com/p/" + seg[1] + "/embed"
	case "reel", "reels", "tv":
		return true, "https://www.instagram.com/p/" + seg[1] + "/embed"
	}
	return false, ""
}

func facebook(u *url.URL) (bool, string) {
	seg := segments(u)
	for _, s := range seg {
		if s == "videos" || s == "watch" || s == "reel" {
			return true, ""
		}
	}
	return false, ""
}

func twitchClip(u *url.URL) (bool, string) {
	seg := segments(u)
	if len(seg) == 0 || !shortcode.MatchString(seg[0]) {
		return true, ""
	}
	return true, "https://clips.twitch.tv/embed?clip=" + seg[0]
}

func twitch(u *url.URL) (bool, string) {
	seg := segments(u)
	switch {
	case len(seg) >= 2 && seg[0] == "videos" && numericID.MatchString(seg[1]):
		return true, "https://player.twitch.tv/?video=v" + seg[1]
	case len(seg) >= 3 && seg[1] == "clip" && shortcode.MatchString(seg[2]):
		return true, "https://clips.twitch.tv/embed?clip=" + seg[2]
	case len(seg) == 1 && seg[0] != "videos" && twitchLogin.MatchString(seg[0]):
		return true, "https://player.twitch.tv/?channel=" + strings.ToLower(seg[0])
	}
	return false, ""
}

func noEmbed(*url.URL) (bool, string) { return false, "" }

func alwaysVideo(*url.URL) (bool, string) { return true, "" }
