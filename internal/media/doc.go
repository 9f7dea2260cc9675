// Package media exposes a directory as the object tree the ContentDirectory
// service browses.
//
// Object ids are slash-separated paths relative to the media root, with
// RootID ("0") standing for the root itself. A child's id is its parent's
// id followed by "/" and its name, so the descendants of a directory form
// one contiguous run of ids. Files that share a base name with a video
// (ep1.mkv, ep1.jpg, ep1.srt) share its Prefix, which is how Browse finds
// their thumbnails and subtitles.
//
// There is no index: every Lookup stats the file on demand through the NFS
// retry helpers of package filesystem. When Watch is running, directory
// listings are cached and invalidated by fsnotify events.
package media
