// Package devices maps request metadata to the playback capabilities of the
// renderer that sent it.
package devices

import (
	"net/http"
	"strings"
)

// Profile describes what a renderer can play. It is comparable so it can
// take part in cache keys; codec lists are comma-separated ffprobe codec names.
type Profile struct {
	Name        string
	Container   string // ffmpeg muxer name
	MimeType    string
	VideoCodecs string
	AudioCodecs string
}

// AcceptsVideo reports whether the renderer decodes the given video codec.
func (p Profile) AcceptsVideo(codec string) bool {
	return listContains(p.VideoCodecs, codec)
}

// AcceptsAudio reports whether the renderer decodes the given audio codec.
func (p Profile) AcceptsAudio(codec string) bool {
	return listContains(p.AudioCodecs, codec)
}

func listContains(list, codec string) bool {
	if codec == "" {
		return false
	}
	for _, c := range strings.Split(list, ",") {
		if c == codec {
			return true
		}
	}
	return false
}

// Known profiles.
var (
	Generic = Profile{
		Name:        "generic",
		Container:   "matroska",
		MimeType:    "video/x-matroska",
		VideoCodecs: "h264",
		AudioCodecs: "aac,mp3",
	}

	Samsung = Profile{
		Name:        "samsung",
		Container:   "matroska",
		MimeType:    "video/x-matroska",
		VideoCodecs: "h264,hevc,mpeg4,vp9",
		AudioCodecs: "aac,ac3,eac3,mp3",
	}

	LG = Profile{
		Name:        "lg",
		Container:   "mpegts",
		MimeType:    "video/mpeg",
		VideoCodecs: "h264,hevc,mpeg2video",
		AudioCodecs: "aac,ac3,mp3",
	}

	Sony = Profile{
		Name:        "sony",
		Container:   "mpegts",
		MimeType:    "video/mpeg",
		VideoCodecs: "h264,mpeg2video",
		AudioCodecs: "aac,ac3",
	}

	Panasonic = Profile{
		Name:        "panasonic",
		Container:   "mpegts",
		MimeType:    "video/mpeg",
		VideoCodecs: "h264,mpeg2video",
		AudioCodecs: "aac,ac3,mp2",
	}

	// Software players decode nearly everything.
	Software = Profile{
		Name:        "software",
		Container:   "matroska",
		MimeType:    "video/x-matroska",
		VideoCodecs: "h264,hevc,vp8,vp9,av1,mpeg4,mpeg2video",
		AudioCodecs: "aac,ac3,eac3,mp3,mp2,opus,vorbis,flac,dts",
	}
)

var matchers = []struct {
	needles []string
	profile Profile
}{
	{[]string{"samsung", "sec_hhp"}, Samsung},
	{[]string{"webos", "netcast", "lge"}, LG},
	{[]string{"playstation", "bravia", "sony"}, Sony},
	{[]string{"panasonic", "viera"}, Panasonic},
	{[]string{"vlc", "kodi", "xbmc", "mpv"}, Software},
}

// Identify picks a profile from the User-Agent and X-AV-Client-Info
// headers. Unknown clients get Generic.
func Identify(h http.Header) Profile {
	ua := strings.ToLower(h.Get("User-Agent") + " " + h.Get("X-AV-Client-Info"))

	for _, m := range matchers {
		for _, needle := range m.needles {
			if strings.Contains(ua, needle) {
				return m.profile
			}
		}
	}

	return Generic
}
