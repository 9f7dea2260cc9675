package devices

import (
	"net/http"
	"testing"
)

func TestIdentify(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		want   string
	}{
		{"empty", http.Header{}, "generic"},
		{"samsung tv", http.Header{"User-Agent": {"SEC_HHP_[TV] Samsung Q60/1.0 DLNADOC/1.50"}}, "samsung"},
		{"lg webos", http.Header{"User-Agent": {"Linux/3.10 UPnP/1.0 webOS TV/Version 0.9"}}, "lg"},
		{"sony client info", http.Header{"X-Av-Client-Info": {`av=5.0; cn="Sony Corporation"; mn="BRAVIA KDL-40"`}}, "sony"},
		{"panasonic", http.Header{"User-Agent": {"Panasonic MIL DLNA CP UPnP/1.0"}}, "panasonic"},
		{"vlc", http.Header{"User-Agent": {"VLC/3.0.18 LibVLC/3.0.18"}}, "software"},
		{"browser", http.Header{"User-Agent": {"Mozilla/5.0 (X11; Linux x86_64)"}}, "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identify(tt.header).Name; got != tt.want {
				t.Errorf("Identify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProfileAccepts(t *testing.T) {
	if !LG.AcceptsVideo("h264") {
		t.Error("LG should accept h264")
	}
	if LG.AcceptsVideo("vp9") {
		t.Error("LG should not accept vp9")
	}
	if Generic.AcceptsAudio("") {
		t.Error("empty codec must never be accepted")
	}
	if !Software.AcceptsAudio("flac") {
		t.Error("software players should accept flac")
	}
}

func TestProfileIsComparable(t *testing.T) {
	seen := map[Profile]int{Samsung: 1}
	seen[Identify(http.Header{"User-Agent": {"Samsung"}})]++

	if seen[Samsung] != 2 {
		t.Errorf("identical profiles should share a map key, got %v", seen)
	}
}
