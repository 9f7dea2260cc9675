// Package filesystem retries stat, open and readdir calls that fail with a
// stale NFS file handle (ESTALE).
//
// Media libraries are often NFS mounts. When the server side renames or
// replaces a file, the client's cached handle goes stale and the next call
// fails even though a fresh lookup would succeed. A Policy repeats the call
// with doubling backoff, up to Retries times, and gives up early when its
// context is done. Any other error is returned at once.
//
//	p := filesystem.DefaultPolicy()
//	f, err := p.Open(ctx, "/media/show/ep1.mkv")
//
// Every attempt and every finished call is reported to the Observer set with
// SetObserver, labelled with the volume the path lives on (see Volumes).
package filesystem
