// Package transcoder wraps FFmpeg for the media server.
//
// Probe inspects a file with ffprobe and reports its container and the
// codecs of its first video and audio streams. Plan turns that, together
// with a renderer's devices.Profile, into a Target: streams the renderer
// can decode are copied and the rest are re-encoded to H.264 and AAC.
// Encode runs ffmpeg for a Target and writes the muxed output to an
// io.Writer, which is how the transcode cache fills its spool.
//
// FFmpeg and ffprobe must be installed and available in the system PATH
// unless explicit paths are given to New.
package transcoder
