// Package thumbs renders the JPEG_TN thumbnails offered next to the
// full-size image resources of a video.
//
// Images are decoded with imaging (JPEG, PNG, GIF and WebP), downscaled
// first when they are very large, fitted into 160x160 and encoded as JPEG.
// Results are kept in an in-memory LRU and, when a cache directory is
// configured, on disk. Concurrent requests for the same thumbnail render it
// once.
package thumbs
