// Package mediatypes classifies files by extension for the content tree.
//
// It has no dependencies so that the tree, the DIDL-Lite encoder and the
// streaming handlers can all share one table:
//
//	ext := strings.ToLower(filepath.Ext(name))
//	switch mediatypes.GetFileType(ext) {
//	case mediatypes.FileTypeVideo:
//		// listed as object.item.videoItem
//	case mediatypes.FileTypeImage, mediatypes.FileTypeSubtitles:
//		// attached to the video that shares its prefix
//	}
//
// Anything not in the table is [FileTypeOther] and never browsed.
package mediatypes
