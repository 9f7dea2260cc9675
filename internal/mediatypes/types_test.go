package mediatypes

import (
	"strings"
	"testing"
)

func TestGetFileType(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want FileType
	}{
		{
			name: "JPEG image",
			ext:  ".jpg",
			want: FileTypeImage,
		},
		{
			name: "PNG image",
			ext:  ".png",
			want: FileTypeImage,
		},
		{
			name: "MP4 video",
			ext:  ".mp4",
			want: FileTypeVideo,
		},
		{
			name: "MKV video",
			ext:  ".mkv",
			want: FileTypeVideo,
		},
		{
			name: "SRT subtitles",
			ext:  ".srt",
			want: FileTypeSubtitles,
		},
		{
			name: "ASS subtitles",
			ext:  ".ass",
			want: FileTypeSubtitles,
		},
		{
			name: "Unknown extension",
			ext:  ".xyz",
			want: FileTypeOther,
		},
		{
			name: "Empty extension",
			ext:  "",
			want: FileTypeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetFileType(tt.ext)
			if got != tt.want {
				t.Errorf("GetFileType(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".jpg", "image/jpeg"},
		{".mkv", "video/x-matroska"},
		{".mp4", "video/mp4"},
		{".ts", "video/mp2t"},
		{".srt", "application/x-subrip"},
		{".xyz", "application/octet-stream"},
		{"", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := GetMimeType(tt.ext); got != tt.want {
				t.Errorf("GetMimeType(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestDLNAClass(t *testing.T) {
	tests := []struct {
		fileType FileType
		want     string
	}{
		{FileTypeDirectory, "object.container.storageFolder"},
		{FileTypeVideo, "object.item.videoItem"},
		{FileTypeImage, "object.item.imageItem.photo"},
		{FileTypeSubtitles, "object.item.textItem"},
		{FileTypeOther, "object.item"},
	}

	for _, tt := range tests {
		t.Run(string(tt.fileType), func(t *testing.T) {
			if got := DLNAClass(tt.fileType); got != tt.want {
				t.Errorf("DLNAClass(%v) = %q, want %q", tt.fileType, got, tt.want)
			}
		})
	}
}

func TestFormatTableKeys(t *testing.T) {
	for ext, f := range formats {
		if ext == "" || ext[0] != '.' || strings.ToLower(ext) != ext {
			t.Errorf("extension %q is not a lowercase dotted suffix", ext)
		}
		if f.fileType == FileTypeOther || f.fileType == FileTypeDirectory {
			t.Errorf("%s listed with file type %s", ext, f.fileType)
		}
		if f.mime == "" {
			t.Errorf("%s has no MIME type", ext)
		}
	}
}
