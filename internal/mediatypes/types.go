package mediatypes

// FileType is the role an entry plays in the content tree.
type FileType string

const (
	FileTypeDirectory FileType = "directory"
	FileTypeVideo     FileType = "video"
	FileTypeImage     FileType = "image"
	FileTypeSubtitles FileType = "subtitles"
	// FileTypeOther covers every extension not listed in the format table.
	FileTypeOther FileType = "other"
)

// UPnP classes used in DIDL-Lite output.
const (
	ClassStorageFolder = "object.container.storageFolder"
	ClassVideoItem     = "object.item.videoItem"
	ClassPhoto         = "object.item.imageItem.photo"
	ClassTextItem      = "object.item.textItem"
	ClassItem          = "object.item"
)

const defaultMime = "application/octet-stream"

type format struct {
	fileType FileType
	mime     string
}

// formats is keyed by lowercase extension including the dot.
var formats = map[string]format{
	".jpg":  {FileTypeImage, "image/jpeg"},
	".jpeg": {FileTypeImage, "image/jpeg"},
	".png":  {FileTypeImage, "image/png"},
	".gif":  {FileTypeImage, "image/gif"},
	".webp": {FileTypeImage, "image/webp"},

	".mp4":  {FileTypeVideo, "video/mp4"},
	".m4v":  {FileTypeVideo, "video/x-m4v"},
	".mkv":  {FileTypeVideo, "video/x-matroska"},
	".webm": {FileTypeVideo, "video/webm"},
	".avi":  {FileTypeVideo, "video/x-msvideo"},
	".mov":  {FileTypeVideo, "video/quicktime"},
	".wmv":  {FileTypeVideo, "video/x-ms-wmv"},
	".flv":  {FileTypeVideo, "video/x-flv"},
	".mpg":  {FileTypeVideo, "video/mpeg"},
	".mpeg": {FileTypeVideo, "video/mpeg"},
	".3gp":  {FileTypeVideo, "video/3gpp"},
	".ts":   {FileTypeVideo, "video/mp2t"},
	".m2ts": {FileTypeVideo, "video/mp2t"},

	".srt": {FileTypeSubtitles, "application/x-subrip"},
	".vtt": {FileTypeSubtitles, "text/vtt"},
	".ass": {FileTypeSubtitles, "text/x-ssa"},
	".ssa": {FileTypeSubtitles, "text/x-ssa"},
	".sub": {FileTypeSubtitles, "text/plain"},
}

// GetFileType classifies a lowercase extension such as ".mkv".
func GetFileType(ext string) FileType {
	if f, ok := formats[ext]; ok {
		return f.fileType
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a lowercase extension, falling back
// to application/octet-stream.
func GetMimeType(ext string) string {
	if f, ok := formats[ext]; ok {
		return f.mime
	}
	return defaultMime
}

// DLNAClass returns the upnp:class for a file type.
func DLNAClass(t FileType) string {
	switch t {
	case FileTypeDirectory:
		return ClassStorageFolder
	case FileTypeVideo:
		return ClassVideoItem
	case FileTypeImage:
		return ClassPhoto
	case FileTypeSubtitles:
		return ClassTextItem
	default:
		return ClassItem
	}
}
